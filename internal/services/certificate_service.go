package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/repositories"
)

const (
	certificateDateLayout = "January 2, 2006"
	exportDateLayout      = "2006-01-02"
	exportSheet           = "Certificates"
)

type certificateService struct {
	repo   repositories.Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewCertificateService(repo repositories.Repository, logger *slog.Logger) CertificateService {
	return &certificateService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *certificateService) List(ctx context.Context, userID string) ([]*models.CertificateView, error) {
	records, err := s.repo.Compliance().ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list compliance records: %w", err)
	}

	now := s.now()
	views := make([]*models.CertificateView, 0, len(records))
	for _, record := range records {
		views = append(views, toCertificateView(record, now))
	}
	return views, nil
}

func toCertificateView(record *models.ComplianceRecord, now time.Time) *models.CertificateView {
	view := &models.CertificateView{
		ID:             record.ID,
		ModuleID:       record.ModuleID,
		ModuleTitle:    moduleTitle(record.Module, "Training"),
		Status:         record.Status(now),
		IsValid:        record.IsValid,
		IssuedAt:       record.UpdatedAt,
		ExpiryDate:     record.ExpiryDate,
		CertificateURL: record.CertificateURL,
	}
	if record.Module != nil {
		view.Category = record.Module.Category
	}
	return view
}

// Document prefers a stored certificate file and otherwise renders a plain text one
func (s *certificateService) Document(ctx context.Context, userID, recordID string) (*CertificateDocument, error) {
	record, err := s.repo.Compliance().GetByID(ctx, nil, userID, recordID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to get compliance record: %w", err)
	}

	if record.CertificateURL != nil && *record.CertificateURL != "" {
		return &CertificateDocument{RedirectURL: *record.CertificateURL}, nil
	}

	recipient, err := s.recipientEmail(ctx, userID)
	if err != nil {
		return nil, err
	}

	title := moduleTitle(record.Module, "Training")
	body := fmt.Sprintf("CERTIFICATE OF COMPLETION\n\nRecipient: %s\nModule: %s\nDate: %s\n\nFlexible Healthcare Training Platform",
		recipient, title, record.UpdatedAt.Format(certificateDateLayout))

	return &CertificateDocument{
		Filename:    certificateFilename(title),
		ContentType: "text/plain; charset=utf-8",
		Content:     []byte(body),
	}, nil
}

// certificateFilename turns "Fire Safety" into "Fire_Safety_Certificate.txt"
func certificateFilename(title string) string {
	return strings.Join(strings.Fields(title), "_") + "_Certificate.txt"
}

func (s *certificateService) recipientEmail(ctx context.Context, userID string) (string, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err == nil {
		return user.Email, nil
	}
	if !repositories.IsNotFoundError(err) {
		s.logger.Warn("Identity lookup failed, using profile email", "user_id", userID, "error", err)
	}

	profile, perr := s.repo.Profile().GetByID(ctx, nil, userID)
	if perr != nil {
		if repositories.IsNotFoundError(perr) {
			return "", ErrProfileNotFound
		}
		return "", fmt.Errorf("failed to get profile: %w", perr)
	}
	return profile.Email, nil
}

// Export writes every certificate of the user to a single sheet workbook
func (s *certificateService) Export(ctx context.Context, userID string) (*ExportFile, error) {
	views, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{"Module", "Category", "Status", "Completed", "Expires"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, view := range views {
		expires := ""
		if view.ExpiryDate != nil {
			expires = view.ExpiryDate.Format(exportDateLayout)
		}
		row := []interface{}{
			view.ModuleTitle,
			view.Category,
			string(view.Status),
			view.IssuedAt.Format(exportDateLayout),
			expires,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to address row: %w", err)
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Certificates exported", "user_id", userID, "count", len(views))
	return &ExportFile{
		Filename:    fmt.Sprintf("certificates-%s.xlsx", s.now().UTC().Format(exportDateLayout)),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     buf.Bytes(),
	}, nil
}
