package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/educhain-labs/educhain-api/internal/models"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
	"github.com/educhain-labs/educhain-api/pkg/export"
)

type statementLedgerRepository interface {
	ListAllByProfile(ctx context.Context, profileID string) ([]models.TokenTransaction, error)
}

type statementProfileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
}

type statementBadgeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Badge, error)
}

// StatementService renders ledger statements as CSV or PDF and badge
// certificates as PDF.
type StatementService struct {
	ledger   statementLedgerRepository
	profiles statementProfileRepository
	badges   statementBadgeRepository
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewStatementService constructs the service.
func NewStatementService(ledger statementLedgerRepository, profiles statementProfileRepository, badges statementBadgeRepository, logger *zap.Logger) *StatementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatementService{
		ledger:   ledger,
		profiles: profiles,
		badges:   badges,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// LedgerCSV renders the full ledger of a profile as CSV.
func (s *StatementService) LedgerCSV(ctx context.Context, profileID string) ([]byte, string, error) {
	table, profile, err := s.ledgerTable(ctx, profileID)
	if err != nil {
		return nil, "", err
	}
	data, err := s.csv.Render(*table)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render statement")
	}
	name := fmt.Sprintf("ledger-%s.csv", profile.ID)
	return data, name, nil
}

// LedgerPDF renders the full ledger of a profile as a PDF table.
func (s *StatementService) LedgerPDF(ctx context.Context, profileID string) ([]byte, string, error) {
	table, profile, err := s.ledgerTable(ctx, profileID)
	if err != nil {
		return nil, "", err
	}
	title := fmt.Sprintf("Token statement for %s", profile.DisplayName)
	data, err := s.pdf.RenderTable(*table, title)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render statement")
	}
	name := fmt.Sprintf("ledger-%s.pdf", profile.ID)
	return data, name, nil
}

// BadgeCertificate renders the printable certificate of an awarded badge.
func (s *StatementService) BadgeCertificate(ctx context.Context, badgeID string) ([]byte, string, error) {
	badge, err := s.badges.FindByID(ctx, badgeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "badge not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load badge")
	}
	profile, err := s.profiles.FindByID(ctx, badge.ProfileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	cert := export.Certificate{
		Title:     badge.Title,
		Recipient: profile.DisplayName,
		Subtitle:  fmt.Sprintf("for achievement: %s", badge.Kind),
		IssuedAt:  badge.AwardedAt.Format("2006-01-02"),
		Footer:    "EduChain achievement certificate",
	}
	data, err := s.pdf.RenderCertificate(cert)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}
	name := fmt.Sprintf("badge-%s.pdf", badge.ID)
	return data, name, nil
}

func (s *StatementService) ledgerTable(ctx context.Context, profileID string) (*export.Table, *models.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	entries, err := s.ledger.ListAllByProfile(ctx, profileID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ledger")
	}

	table := &export.Table{
		Columns: []string{"Date", "Type", "Amount", "Description"},
		Rows:    make([][]string, 0, len(entries)),
	}
	for _, entry := range entries {
		table.Rows = append(table.Rows, []string{
			entry.CreatedAt.Format("2006-01-02 15:04"),
			string(entry.Type),
			entry.Amount.String(),
			entry.Description,
		})
	}
	return table, profile, nil
}
