package transport

import (
	"ecoguard_backend/internal/companies"
	"ecoguard_backend/internal/plants"
	"ecoguard_backend/internal/tickets/repository"

	"github.com/google/uuid"
)

type MessageRequest struct {
	Message string `validate:"required,notblank,max=5000"`
	Kind    string `validate:"omitempty,oneof=mensagem apontamento"`
}

// StatusRequest drives the workflow. Either field may be empty, not both.
type StatusRequest struct {
	Status string `validate:"omitempty,max=100"`
	Stage  string `validate:"omitempty,oneof=mapeamento_gestor upload_fotos_cliente analise_gestor finalizado"`
}

type VerdictRequest struct {
	AreaID  uuid.UUID `validate:"required"`
	Verdict string    `validate:"required,oneof=conforme nao_conforme nao_aplicavel"`
	Note    *string   `validate:"omitempty,max=2000"`
}

// TicketDetail is a ticket with everything its page shows.
type TicketDetail struct {
	repository.Ticket
	Company  companies.Company    `json:"empresa"`
	Plan     plants.Plan          `json:"planta"`
	Areas    []plants.Area        `json:"areas"`
	Messages []repository.Message `json:"mensagens"`
}

type CanCreateResponse struct {
	CanCreate bool   `json:"pode_criar"`
	Reason    string `json:"motivo,omitempty"`
}

type DeleteResponse struct {
	Deleted bool `json:"deletado"`
	Soft    bool `json:"soft_delete"`
}
