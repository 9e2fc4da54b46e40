package service

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/base64"
	"fmt"
	"html/template"

	"ecoguard_backend/internal/access"
	"ecoguard_backend/internal/tickets/domain"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

const (
	reportDateLayout = "02/01/2006 15:04"
	qrCodeSize       = 256
)

//go:embed report.html
var reportSource string

var reportTemplate = template.Must(template.New("report").Parse(reportSource))

type reportArea struct {
	Name           string
	AreaType       string
	Criticality    string
	HasClientPhoto bool
	Verdict        string
	Note           string
}

type reportData struct {
	ShortID      string
	CompanyName  string
	PlanName     string
	StageLabel   string
	Status       string
	OpenedAt     string
	ClosedAt     string
	QRCode       template.URL
	Total        int
	Compliant    int
	NonCompliant int
	Pending      int
	Areas        []reportArea
}

// Report renders the ticket's area verdicts as a standalone HTML page.
func (s *Service) Report(ctx context.Context, actor access.Actor, id uuid.UUID) ([]byte, error) {
	detail, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	data := reportData{
		ShortID:     detail.ID.String()[:8],
		CompanyName: detail.Company.Name,
		PlanName:    detail.Plan.Name,
		StageLabel:  detail.Stage.Label(),
		Status:      detail.Status,
		OpenedAt:    detail.CreatedAt.Format(reportDateLayout),
		Total:       len(detail.Areas),
		Areas:       make([]reportArea, 0, len(detail.Areas)),
	}
	if detail.ClosedAt != nil {
		data.ClosedAt = detail.ClosedAt.Format(reportDateLayout)
	}
	if s.appBaseURL != "" {
		data.QRCode = s.qrCode(fmt.Sprintf("%s/tickets/%s", s.appBaseURL, detail.ID))
	}

	for _, a := range detail.Areas {
		row := reportArea{
			Name:           a.Name,
			AreaType:       a.AreaType,
			Criticality:    a.Criticality,
			HasClientPhoto: a.HasClientPhoto,
		}
		if a.AnalysisVerdict != nil {
			row.Verdict = *a.AnalysisVerdict
		}
		if a.AnalysisNote != nil {
			row.Note = *a.AnalysisNote
		}
		switch domain.Verdict(row.Verdict) {
		case domain.VerdictCompliant:
			data.Compliant++
		case domain.VerdictNonCompliant:
			data.NonCompliant++
		case "":
			data.Pending++
		}
		data.Areas = append(data.Areas, row)
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render ticket report: %w", err)
	}
	return buf.Bytes(), nil
}

// qrCode encodes link as a PNG data URI. A failure only drops the image.
func (s *Service) qrCode(link string) template.URL {
	png, err := qrcode.Encode(link, qrcode.Medium, qrCodeSize)
	if err != nil {
		s.log.Warn("failed to render ticket QR code", "error", err)
		return ""
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}
