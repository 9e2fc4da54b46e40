package storage

import (
	"strings"
	"testing"
)

func TestObjectKeyKeepsExtensionAndFolder(t *testing.T) {
	key := objectKey("plans/abc", "../../etc/planta baixa.pdf")
	if !strings.HasPrefix(key, "plans/abc/planta baixa_") || !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("unexpected key %q", key)
	}
	if strings.Contains(key, "..") {
		t.Fatalf("expected path traversal to be stripped, got %q", key)
	}
}

func TestValidation(t *testing.T) {
	s := &MinIOService{maxFileSize: 10}
	if err := s.ValidateContentType("image/JPEG; charset=binary"); err != nil {
		t.Fatalf("expected jpeg to be allowed, got %v", err)
	}
	if err := s.ValidateContentType("application/x-msdownload"); err == nil {
		t.Fatal("expected executable to be rejected")
	}
	if err := s.ValidateFileSize(11); err == nil {
		t.Fatal("expected oversize file to be rejected")
	}
	if err := s.ValidateFileSize(0); err == nil {
		t.Fatal("expected empty file to be rejected")
	}
	if !IsImageContentType("image/png") || IsImageContentType("application/pdf") {
		t.Fatal("unexpected image detection")
	}
}
