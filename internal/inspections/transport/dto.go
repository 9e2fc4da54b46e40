package transport

import (
	"io"

	"ecoguard_backend/internal/inspections/repository"
)

// AnswerRequest is the multipart answer submission for one item.
type AnswerRequest struct {
	Answer string
	Note   *string
	Photo  *Photo
}

type Photo struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type InspectionDetail struct {
	repository.Inspection
	Alerts []repository.Alert `json:"alertas"`
}

type CompletionResponse struct {
	repository.Inspection
	Alerts      []repository.Alert `json:"alertas"`
	AlertsCount int                `json:"alertas_gerados"`
}
