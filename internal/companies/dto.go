package companies

import (
	"time"

	"github.com/google/uuid"
)

type Company struct {
	ID                uuid.UUID `json:"id"`
	OwnerUserID       uuid.UUID `json:"user_id"`
	Name              string    `json:"nome"`
	TaxID             string    `json:"cnpj"`
	Sector            string    `json:"setor"`
	EstablishmentType string    `json:"tipo_estabelecimento"`
	Address           *string   `json:"endereco,omitempty"`
	City              *string   `json:"cidade,omitempty"`
	State             *string   `json:"estado,omitempty"`
	Phone             *string   `json:"telefone,omitempty"`
	ContactEmail      *string   `json:"email,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Owner is the contact that receives license alerts for a company.
type Owner struct {
	CompanyName string
	Email       string
	Name        string
}

// CompanyRequest is used for both create and full update.
type CompanyRequest struct {
	Name              string  `json:"nome" validate:"required,notblank,max=200"`
	TaxID             string  `json:"cnpj" validate:"required,notblank,max=32"`
	Sector            string  `json:"setor" validate:"max=120"`
	EstablishmentType string  `json:"tipo_estabelecimento" validate:"required,oneof=matriz filial"`
	Address           *string `json:"endereco" validate:"omitempty,max=300"`
	City              *string `json:"cidade" validate:"omitempty,max=120"`
	State             *string `json:"estado" validate:"omitempty,max=60"`
	Phone             *string `json:"telefone" validate:"omitempty,max=40"`
	ContactEmail      *string `json:"email" validate:"omitempty,email"`
}
