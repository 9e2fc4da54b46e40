package events

import (
	"github.com/google/uuid"
)

// TicketOpened is published when a plan upload opens a mapping ticket.
type TicketOpened struct {
	BaseEvent
	TicketID    uuid.UUID
	CompanyID   uuid.UUID
	CompanyName string
	PlanName    string
	ClientEmail string
}

func (TicketOpened) EventName() string { return "ticket.opened" }

// TicketStageChanged is published after every ticket transition or status update.
type TicketStageChanged struct {
	BaseEvent
	TicketID    uuid.UUID
	CompanyID   uuid.UUID
	CompanyName string
	FromStage   string
	ToStage     string
	Status      string
	ActorEmail  string
	ActorRole   string
	ClientEmail string
}

func (TicketStageChanged) EventName() string { return "ticket.stage_changed" }

// InspectionCompleted is published once an inspection has been scored.
type InspectionCompleted struct {
	BaseEvent
	InspectionID uuid.UUID
	CompanyID    uuid.UUID
	CompanyName  string
	Score        float64
	RiskTier     string
	AlertCount   int
	OwnerEmail   string
}

func (InspectionCompleted) EventName() string { return "inspection.completed" }
