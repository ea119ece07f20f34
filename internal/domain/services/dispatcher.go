package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"orbtrap-lab/internal/config"
	"orbtrap-lab/internal/domain/models"
	"orbtrap-lab/internal/infrastructure/cache"
	"orbtrap-lab/internal/infrastructure/database/repository"
	"orbtrap-lab/internal/streaming"
	"orbtrap-lab/pkg/logger"
)

// reportArchiveTTL bounds how long dispatched report copies stay cached.
const reportArchiveTTL = 24 * time.Hour

// ReportDispatcher delivers the final session report to the external
// evaluation sink. Delivery is at-most-once per call and exactly-once per
// session overall: the reported flag flips only on a confirmed 2xx, so a
// failed delivery leaves the session eligible for the manual retry path.
type ReportDispatcher struct {
	url        string
	httpClient *http.Client
	cache      *cache.RedisCache            // optional archive
	reports    *repository.ReportRepository // optional archive
	events     *streaming.EventBus          // optional
	logger     *logger.Logger
}

// NewReportDispatcher creates a dispatcher for the configured sink. The
// cache, repository and event bus may each be nil; archiving and events
// are best-effort and never affect delivery outcome.
func NewReportDispatcher(cfg config.CallbackConfig, cacheClient *cache.RedisCache, reports *repository.ReportRepository, events *streaming.EventBus, log *logger.Logger) *ReportDispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ReportDispatcher{
		url: cfg.URL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		cache:   cacheClient,
		reports: reports,
		events:  events,
		logger:  log.WithComponent("report-dispatcher"),
	}
}

// Dispatch builds the session's report and POSTs it to the sink. Caller
// must hold the session lock. A session already reported is a no-op.
// There is no automatic retry: on failure the error is returned and the
// session stays unreported.
func (d *ReportDispatcher) Dispatch(ctx context.Context, sess *models.Session) error {
	if sess.Reported {
		return nil
	}

	report := models.BuildReport(sess)

	if err := d.deliver(ctx, report); err != nil {
		d.logger.Warn().
			Err(err).
			Str("session_id", sess.ID).
			Msg("report delivery failed")
		if d.events != nil {
			d.events.Publish(ctx, streaming.NewReportEvent(sess.ID, false, err))
		}
		return err
	}

	sess.MarkReported()
	d.logger.Info().
		Str("session_id", sess.ID).
		Int("messages", report.TotalMessagesExchanged).
		Bool("scam_detected", report.ScamDetected).
		Msg("report delivered")

	d.archive(ctx, report, sess.ReportedAt)
	if d.events != nil {
		d.events.Publish(ctx, streaming.NewReportEvent(sess.ID, true, nil))
	}
	if d.cache != nil {
		d.cache.IncrStat(ctx, cache.KeyStatReports)
	}

	return nil
}

// deliver POSTs the report and checks for a 2xx response.
func (d *ReportDispatcher) deliver(ctx context.Context, report *models.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "OrbTrap-Honeypot/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver report: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sink returned HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// archive stores a best-effort copy of the dispatched report.
func (d *ReportDispatcher) archive(ctx context.Context, report *models.Report, dispatchedAt time.Time) {
	if d.cache != nil {
		if err := d.cache.ArchiveReport(ctx, report.SessionID, report, reportArchiveTTL); err != nil {
			d.logger.Debug().Err(err).Str("session_id", report.SessionID).Msg("failed to cache report")
		}
	}
	if d.reports != nil {
		if err := d.reports.Insert(ctx, report, dispatchedAt); err != nil {
			d.logger.Warn().Err(err).Str("session_id", report.SessionID).Msg("failed to archive report")
		}
	}
}
