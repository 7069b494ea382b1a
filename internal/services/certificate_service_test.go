package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/flexible-healthcare/training-service/internal/models"
)

func TestCertificateService_Document(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	repo.addUser(&models.User{ID: "user-1", Email: "nurse@example.com"}, "secret1")
	module := repo.addModule(&models.TrainingModule{Title: "Fire Safety", Category: "Safety"})

	record := repo.addCompliance(&models.ComplianceRecord{
		UserID:    "user-1",
		ModuleID:  module.ID,
		IsValid:   true,
		UpdatedAt: time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC),
	})
	stored := repo.addCompliance(&models.ComplianceRecord{
		UserID:         "user-1",
		ModuleID:       "other",
		IsValid:        true,
		CertificateURL: ptr("https://files.example.com/cert.pdf"),
	})

	svc := NewCertificateService(repo, testLogger())

	t.Run("generated text", func(t *testing.T) {
		doc, err := svc.Document(ctx, "user-1", record.ID)
		if err != nil {
			t.Fatalf("Document() error = %v", err)
		}
		want := "CERTIFICATE OF COMPLETION\n\nRecipient: nurse@example.com\nModule: Fire Safety\nDate: February 14, 2026\n\nFlexible Healthcare Training Platform"
		if string(doc.Content) != want {
			t.Errorf("Document() content = %q, want %q", doc.Content, want)
		}
		if doc.RedirectURL != "" {
			t.Errorf("RedirectURL = %q, want empty", doc.RedirectURL)
		}
		if doc.Filename != "Fire_Safety_Certificate.txt" {
			t.Errorf("Filename = %q, want Fire_Safety_Certificate.txt", doc.Filename)
		}
	})

	t.Run("stored file redirects", func(t *testing.T) {
		doc, err := svc.Document(ctx, "user-1", stored.ID)
		if err != nil {
			t.Fatalf("Document() error = %v", err)
		}
		if doc.RedirectURL != "https://files.example.com/cert.pdf" || doc.Content != nil {
			t.Errorf("Document() = %+v", doc)
		}
	})

	t.Run("other user's record", func(t *testing.T) {
		if _, err := svc.Document(ctx, "user-2", record.ID); !errors.Is(err, ErrCertificateNotFound) {
			t.Errorf("Document() error = %v, want ErrCertificateNotFound", err)
		}
	})
}

func TestCertificateFilename(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Fire Safety", "Fire_Safety_Certificate.txt"},
		{"  Infection   Control\tBasics ", "Infection_Control_Basics_Certificate.txt"},
		{"CPR", "CPR_Certificate.txt"},
	}
	for _, tt := range tests {
		if got := certificateFilename(tt.title); got != tt.want {
			t.Errorf("certificateFilename(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestCertificateService_ListAndExport(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := NewMockRepository()

	fire := repo.addModule(&models.TrainingModule{Title: "Fire Safety", Category: "Safety"})
	cpr := repo.addModule(&models.TrainingModule{Title: "CPR", Category: "Clinical"})
	expired := now.AddDate(0, 0, -1)
	repo.addCompliance(&models.ComplianceRecord{UserID: "user-1", ModuleID: fire.ID, IsValid: true, ExpiryDate: &expired, UpdatedAt: now.AddDate(-1, 0, 0)})
	repo.addCompliance(&models.ComplianceRecord{UserID: "user-1", ModuleID: cpr.ID, IsValid: true, UpdatedAt: now.AddDate(0, -1, 0)})

	svc := NewCertificateService(repo, testLogger()).(*certificateService)
	svc.now = func() time.Time { return now }

	views, err := svc.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("List() returned %d, want 2", len(views))
	}
	// newest first
	if views[0].ModuleTitle != "CPR" || views[0].Status != models.ComplianceValid {
		t.Errorf("views[0] = %s %s", views[0].ModuleTitle, views[0].Status)
	}
	if views[1].Status != models.ComplianceExpired || views[1].Category != "Safety" {
		t.Errorf("views[1] = %s %s", views[1].Status, views[1].Category)
	}

	file, err := svc.Export(ctx, "user-1")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if file.Filename != "certificates-2026-06-01.xlsx" {
		t.Errorf("Filename = %q", file.Filename)
	}

	book, err := excelize.OpenReader(bytes.NewReader(file.Content))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer book.Close()

	rows, err := book.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("sheet has %d rows, want 3", len(rows))
	}
	wantHeader := []string{"Module", "Category", "Status", "Completed", "Expires"}
	for i, h := range wantHeader {
		if rows[0][i] != h {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], h)
		}
	}
	if rows[2][0] != "Fire Safety" || rows[2][2] != "expired" || rows[2][4] != "2026-05-31" {
		t.Errorf("row 2 = %v", rows[2])
	}
}
