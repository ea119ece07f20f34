package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"orbtrap-lab/internal/domain/models"
)

// ReportRepository archives dispatched reports for audit. The live report
// path never depends on it; the archive is best-effort.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new report repository
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// EnsureSchema creates the reports table if it does not exist
func (r *ReportRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS honeypot_reports (
			id UUID PRIMARY KEY,
			session_id TEXT NOT NULL,
			scam_detected BOOLEAN NOT NULL,
			total_messages INT NOT NULL,
			bank_accounts TEXT[] NOT NULL DEFAULT '{}',
			upi_ids TEXT[] NOT NULL DEFAULT '{}',
			phishing_links TEXT[] NOT NULL DEFAULT '{}',
			phone_numbers TEXT[] NOT NULL DEFAULT '{}',
			suspicious_keywords TEXT[] NOT NULL DEFAULT '{}',
			agent_notes TEXT NOT NULL DEFAULT '',
			dispatched_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_honeypot_reports_session ON honeypot_reports (session_id)`

	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure reports schema: %w", err)
	}
	return nil
}

// Insert archives one dispatched report
func (r *ReportRepository) Insert(ctx context.Context, report *models.Report, dispatchedAt time.Time) error {
	query := `
		INSERT INTO honeypot_reports (
			id, session_id, scam_detected, total_messages,
			bank_accounts, upi_ids, phishing_links, phone_numbers, suspicious_keywords,
			agent_notes, dispatched_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	_, err := r.pool.Exec(ctx, query,
		uuid.New(), report.SessionID, report.ScamDetected, report.TotalMessagesExchanged,
		report.ExtractedIntelligence.BankAccounts, report.ExtractedIntelligence.UPIIDs,
		report.ExtractedIntelligence.PhishingLinks, report.ExtractedIntelligence.PhoneNumbers,
		report.ExtractedIntelligence.SuspiciousKeywords,
		report.AgentNotes, dispatchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// CountBySession returns how many archived reports exist for a session
func (r *ReportRepository) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM honeypot_reports WHERE session_id = $1`, sessionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return count, nil
}
