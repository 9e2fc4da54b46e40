// Package checklist serves the read-only inspection checklist catalog.
package checklist

import (
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// catalogNamespace derives stable item ids from their codes, so reseeding a
// fresh database yields the same ids.
var catalogNamespace = uuid.MustParse("6f1c2d0e-5b7a-4c8e-9a53-2e1f0d9b7c41")

var validCriticality = map[string]bool{"baixa": true, "media": true, "alta": true, "critica": true}

type Item struct {
	ID            uuid.UUID `json:"id" yaml:"-"`
	Code          string    `json:"codigo" yaml:"code"`
	AreaType      string    `json:"tipo_area" yaml:"area_type"`
	Category      string    `json:"categoria" yaml:"category"`
	Question      string    `json:"pergunta" yaml:"question"`
	PhotoGuidance string    `json:"orientacao_foto" yaml:"photo_guidance"`
	Criticality   string    `json:"criticidade" yaml:"criticality"`
	RiskPoints    int       `json:"pontos_risco" yaml:"risk_points"`
	LegalBasis    string    `json:"fundamentacao_legal" yaml:"legal_basis"`
	Order         int       `json:"ordem" yaml:"order"`
}

type catalogFile struct {
	Items []Item `yaml:"items"`
}

// LoadCatalog parses the embedded seed catalog.
func LoadCatalog() ([]Item, error) {
	return parseCatalog(catalogYAML)
}

func parseCatalog(data []byte) ([]Item, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse checklist catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Items))
	for i := range file.Items {
		item := &file.Items[i]
		if item.Code == "" || item.AreaType == "" || item.Question == "" {
			return nil, fmt.Errorf("checklist item %d: code, area_type and question are required", i)
		}
		if !validCriticality[item.Criticality] {
			return nil, fmt.Errorf("checklist item %s: invalid criticality %q", item.Code, item.Criticality)
		}
		if item.RiskPoints < 0 {
			return nil, fmt.Errorf("checklist item %s: negative risk points", item.Code)
		}
		if _, dup := seen[item.Code]; dup {
			return nil, fmt.Errorf("checklist item %s: duplicate code", item.Code)
		}
		seen[item.Code] = struct{}{}
		item.ID = uuid.NewSHA1(catalogNamespace, []byte(item.Code))
	}
	return file.Items, nil
}
