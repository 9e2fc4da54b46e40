// Package domain holds the ticket workflow: stages, the legal transitions
// between them and the role each transition requires.
package domain

import (
	"ecoguard_backend/internal/access"
	"ecoguard_backend/platform/apperr"
)

type Stage string

const (
	StageMapping       Stage = "mapeamento_gestor"
	StageClientPhotos  Stage = "upload_fotos_cliente"
	StageManagerReview Stage = "analise_gestor"
	StageFinished      Stage = "finalizado"
)

func (s Stage) Valid() bool {
	switch s {
	case StageMapping, StageClientPhotos, StageManagerReview, StageFinished:
		return true
	}
	return false
}

func (s Stage) Terminal() bool {
	return s == StageFinished
}

// DefaultStatus is the status written alongside a stage when none is given.
func (s Stage) DefaultStatus() string {
	switch s {
	case StageMapping:
		return "aberto"
	case StageClientPhotos:
		return "aguardando_fotos_cliente"
	case StageManagerReview:
		return "em_analise"
	case StageFinished:
		return "concluido"
	}
	return ""
}

// Label is the human-readable stage name used in emails and reports.
func (s Stage) Label() string {
	switch s {
	case StageMapping:
		return "Mapeamento pelo gestor"
	case StageClientPhotos:
		return "Envio de fotos pelo cliente"
	case StageManagerReview:
		return "Análise do gestor"
	case StageFinished:
		return "Finalizado"
	}
	return string(s)
}

// requirement describes who may take an edge.
type requirement int

const (
	anyActor requirement = iota
	managerOnly
)

type edge struct {
	from, to Stage
}

var transitions = map[edge]requirement{
	{StageMapping, StageClientPhotos}:       managerOnly,
	{StageClientPhotos, StageManagerReview}: anyActor,
	{StageMapping, StageFinished}:           managerOnly,
	{StageClientPhotos, StageFinished}:      managerOnly,
	{StageManagerReview, StageFinished}:     managerOnly,
}

const (
	msgUnknownStage       = "Etapa inválida"
	msgTicketFinished     = "Ticket finalizado não aceita novas transições"
	msgIllegalTransition  = "Transição de etapa não permitida"
	msgManagerRequired    = "Apenas gestores podem realizar esta transição"
	msgNotTicketOwner     = "Acesso negado a este ticket"
	msgStatusManagerOnly  = "Apenas gestores podem alterar o status"
	msgStatusOrStageEmpty = "Informe status ou etapa"
)

// CheckTransition validates moving from one stage to another. Legality is
// checked before role, so an impossible jump is a 400 for everyone.
// isOwner reports whether the actor created the ticket.
func CheckTransition(from, to Stage, actor access.Actor, isOwner bool) error {
	if !to.Valid() {
		return apperr.BadRequest(msgUnknownStage)
	}
	if from.Terminal() {
		return apperr.BadRequest(msgTicketFinished)
	}
	req, ok := transitions[edge{from, to}]
	if !ok {
		return apperr.BadRequest(msgIllegalTransition)
	}
	switch req {
	case managerOnly:
		if !actor.IsManager() {
			return apperr.Forbidden(msgManagerRequired)
		}
	case anyActor:
		if !actor.IsManager() && !isOwner {
			return apperr.Forbidden(msgNotTicketOwner)
		}
	}
	return nil
}

// Change is the outcome of a status update request.
type Change struct {
	Stage      Stage
	Status     string
	Transition bool
}

// PlanChange decides what a (status, etapa) request does to a ticket at
// stage current. An empty etapa, or one equal to current, is a status-only
// update and is reserved for managers.
func PlanChange(current Stage, status, requested string, actor access.Actor, isOwner bool) (Change, error) {
	if requested == "" || Stage(requested) == current {
		if status == "" {
			return Change{}, apperr.BadRequest(msgStatusOrStageEmpty)
		}
		if !actor.IsManager() {
			return Change{}, apperr.Forbidden(msgStatusManagerOnly)
		}
		if current.Terminal() {
			return Change{}, apperr.BadRequest(msgTicketFinished)
		}
		return Change{Stage: current, Status: status}, nil
	}

	to := Stage(requested)
	if err := CheckTransition(current, to, actor, isOwner); err != nil {
		return Change{}, err
	}
	if status == "" {
		status = to.DefaultStatus()
	}
	return Change{Stage: to, Status: status, Transition: true}, nil
}

type MessageKind string

const (
	MessageText         MessageKind = "mensagem"
	MessageStatusChange MessageKind = "status_change"
	MessageFinding      MessageKind = "apontamento"
)

func (k MessageKind) Valid() bool {
	switch k {
	case MessageText, MessageStatusChange, MessageFinding:
		return true
	}
	return false
}

type Verdict string

const (
	VerdictCompliant    Verdict = "conforme"
	VerdictNonCompliant Verdict = "nao_conforme"
	VerdictNotApplies   Verdict = "nao_aplicavel"
)

func (v Verdict) Valid() bool {
	switch v {
	case VerdictCompliant, VerdictNonCompliant, VerdictNotApplies:
		return true
	}
	return false
}
