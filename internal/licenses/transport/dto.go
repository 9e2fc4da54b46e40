package transport

import (
	"time"

	"ecoguard_backend/internal/licenses/domain"

	"github.com/google/uuid"
)

type LicenseRequest struct {
	CompanyID    uuid.UUID `json:"empresa_id" validate:"required"`
	Name         string    `json:"nome_licenca" validate:"required,notblank,max=200"`
	Number       string    `json:"numero_licenca" validate:"required,notblank,max=100"`
	Type         string    `json:"tipo" validate:"required,notblank,max=60"`
	Authority    string    `json:"orgao_emissor" validate:"required,notblank,max=200"`
	IssuedOn     string    `json:"data_emissao" validate:"required"`
	ExpiresOn    string    `json:"data_validade" validate:"required"`
	LeadTimeDays *int      `json:"dias_alerta_vencimento" validate:"omitempty,min=0,max=365"`
	Notes        *string   `json:"observacoes" validate:"omitempty,max=4000"`
}

type LicenseResponse struct {
	ID           uuid.UUID     `json:"id"`
	CompanyID    uuid.UUID     `json:"empresa_id"`
	Name         string        `json:"nome_licenca"`
	Number       string        `json:"numero_licenca"`
	Type         string        `json:"tipo"`
	Authority    string        `json:"orgao_emissor"`
	IssuedOn     string        `json:"data_emissao"`
	ExpiresOn    string        `json:"data_validade"`
	LeadTimeDays int           `json:"dias_alerta_vencimento"`
	HasDocument  bool          `json:"tem_arquivo"`
	Notes        *string       `json:"observacoes,omitempty"`
	Status       domain.Status `json:"status"`
	DaysLeft     int           `json:"dias_restantes"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type ConditionRequest struct {
	Name              string  `json:"nome" validate:"required,notblank,max=200"`
	FollowUpOn        string  `json:"data_acompanhamento" validate:"required"`
	AlertOn           *string `json:"alerta_acompanhamento"`
	ResponsibleName   string  `json:"responsavel_nome" validate:"required,notblank,max=200"`
	ResponsibleEmail  string  `json:"responsavel_email" validate:"required,email"`
	Description       string  `json:"descricao" validate:"required,notblank,max=4000"`
	Status            string  `json:"status" validate:"omitempty,oneof=em_andamento concluida atrasada pendente"`
	CompletionPercent int     `json:"percentual_conclusao" validate:"min=0,max=100"`
	Notes             *string `json:"observacoes" validate:"omitempty,max=4000"`
	RescheduledOn     *string `json:"nova_data_acompanhamento"`
}

type ConditionResponse struct {
	ID                uuid.UUID `json:"id"`
	LicenseID         uuid.UUID `json:"licenca_id"`
	Name              string    `json:"nome"`
	FollowUpOn        string    `json:"data_acompanhamento"`
	AlertOn           *string   `json:"alerta_acompanhamento,omitempty"`
	ResponsibleName   string    `json:"responsavel_nome"`
	ResponsibleEmail  string    `json:"responsavel_email"`
	Description       string    `json:"descricao"`
	Status            string    `json:"status"`
	CompletionPercent int       `json:"percentual_conclusao"`
	Notes             *string   `json:"observacoes,omitempty"`
	RescheduledOn     *string   `json:"nova_data_acompanhamento,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type UpcomingExpiry struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"nome_licenca"`
	Number    string    `json:"numero_licenca"`
	ExpiresOn string    `json:"data_validade"`
	DaysLeft  int       `json:"dias_restantes"`
}

type Indicators struct {
	Total    int              `json:"total"`
	Valid    int              `json:"validas"`
	DueSoon  int              `json:"a_vencer"`
	Expired  int              `json:"vencidas"`
	ByType   map[string]int   `json:"por_tipo"`
	Upcoming []UpcomingExpiry `json:"proximos_vencimentos"`
}
