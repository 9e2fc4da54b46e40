package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/ecoguard")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("MANAGER_EMAILS", " Gestor@Example.com , second@example.com")
	t.Setenv("EMAIL_ENABLED", "false")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000")
}

func TestLoadDefaultsAdminToFirstManager(t *testing.T) {
	setRequired(t)

	cfg, err := load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.ManagerEmails) != 2 || cfg.ManagerEmails[0] != "gestor@example.com" {
		t.Fatalf("expected normalized manager list, got %v", cfg.ManagerEmails)
	}
	if cfg.AdminEmail != "gestor@example.com" {
		t.Fatalf("expected admin to default to first manager, got %q", cfg.AdminEmail)
	}
	if cfg.AlertScanInterval != time.Hour {
		t.Fatalf("expected 1h scan interval, got %s", cfg.AlertScanInterval)
	}
	if cfg.AlertSendTimeout != 15*time.Second {
		t.Fatalf("expected 15s send timeout, got %s", cfg.AlertSendTimeout)
	}
}

func TestLoadRequiresManagers(t *testing.T) {
	setRequired(t)
	t.Setenv("MANAGER_EMAILS", "")

	if _, err := load(); err == nil {
		t.Fatal("expected error when no manager is configured")
	}
}

func TestLoadRejectsNonPositiveScanInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("ALERT_SCAN_INTERVAL", "0s")

	if _, err := load(); err == nil {
		t.Fatal("expected error for zero scan interval")
	}
}

func TestLoadExplicitAdminEmail(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_EMAIL", "Aplicativo@SNEngenharia.org")

	cfg, err := load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AdminEmail != "aplicativo@snengenharia.org" {
		t.Fatalf("expected lowercased admin email, got %q", cfg.AdminEmail)
	}
}
