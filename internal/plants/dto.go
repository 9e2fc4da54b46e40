package plants

import (
	"io"
	"time"

	"github.com/google/uuid"
)

const (
	PlanStatusAwaitingMarking = "aguardando_marcacao"
	PlanStatusMapped          = "mapeada"
)

type Plan struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"empresa_id"`
	Name        string    `json:"nome"`
	FileKey     string    `json:"-"`
	ContentType string    `json:"content_type"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type Area struct {
	ID              uuid.UUID  `json:"id"`
	PlanID          uuid.UUID  `json:"planta_id"`
	Name            string     `json:"nome"`
	AreaType        string     `json:"tipo_area"`
	PosX            float64    `json:"posicao_x"`
	PosY            float64    `json:"posicao_y"`
	Description     *string    `json:"descricao,omitempty"`
	Criticality     string     `json:"criticidade"`
	ClientPhotoKey  *string    `json:"-"`
	HasClientPhoto  bool       `json:"tem_foto_cliente"`
	PhotoTakenAt    *time.Time `json:"foto_capturada_em,omitempty"`
	AnalysisVerdict *string    `json:"situacao,omitempty"`
	AnalysisNote    *string    `json:"observacao_analise,omitempty"`
	AnalyzedAt      *time.Time `json:"analisado_em,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// CreateAreaRequest marks a critical area on a plan. Positions are
// normalized to the plan's width and height.
type CreateAreaRequest struct {
	Name        string   `json:"nome" validate:"required,notblank,max=200"`
	AreaType    string   `json:"tipo_area" validate:"required,notblank,max=60"`
	PosX        *float64 `json:"posicao_x" validate:"required,min=0,max=1"`
	PosY        *float64 `json:"posicao_y" validate:"required,min=0,max=1"`
	Description *string  `json:"descricao" validate:"omitempty,max=2000"`
	Criticality string   `json:"criticidade" validate:"required,oneof=baixa media alta critica"`
}

// FileUpload is a multipart file handed to the service layer.
type FileUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type UploadResult struct {
	Plan     Plan      `json:"planta"`
	TicketID uuid.UUID `json:"ticket_id"`
}
