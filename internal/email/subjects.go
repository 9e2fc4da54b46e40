package email

const (
	subjectTicketOpenedFmt       = "[EcoGuard] Ticket #%s aberto - %s"
	subjectTicketStageChangedFmt = "[EcoGuard] Ticket #%s - %s"
	subjectLicenseExpiredFmt     = "[EcoGuard] URGENTE: licença %s vencida"
	subjectLicenseCriticalFmt    = "[EcoGuard] CRÍTICO: licença %s vence em %d dia(s)"
	subjectLicenseAttentionFmt   = "[EcoGuard] ATENÇÃO: licença %s vence em %d dias"
	subjectConditionDueFmt       = "[EcoGuard] Condicionante %s requer acompanhamento"
)
