package services

import (
	"context"
	"fmt"

	"orbtrap-lab/internal/config"
	"orbtrap-lab/internal/domain/models"
	"orbtrap-lab/internal/infrastructure/cache"
	"orbtrap-lab/internal/streaming"
	"orbtrap-lab/pkg/logger"
)

// HoneypotEngine runs one full turn per inbound message: transcript
// update, intent scoring, intelligence extraction, dialogue advance, and
// final report dispatch once the conversation concludes. The whole turn
// executes under the session lock, so concurrent requests for one session
// serialize and each observes the previous turn's complete effects.
type HoneypotEngine struct {
	store      *SessionStore
	classifier *IntentClassifier
	extractor  *IntelligenceExtractor
	dialogue   *DialogueEngine
	dispatcher *ReportDispatcher
	cache      *cache.RedisCache   // optional stats
	events     *streaming.EventBus // optional
	cfg        config.DialogueConfig
	logger     *logger.Logger
}

// NewHoneypotEngine wires the turn pipeline together.
func NewHoneypotEngine(
	store *SessionStore,
	classifier *IntentClassifier,
	extractor *IntelligenceExtractor,
	dialogue *DialogueEngine,
	dispatcher *ReportDispatcher,
	cacheClient *cache.RedisCache,
	events *streaming.EventBus,
	cfg config.DialogueConfig,
	log *logger.Logger,
) *HoneypotEngine {
	return &HoneypotEngine{
		store:      store,
		classifier: classifier,
		extractor:  extractor,
		dialogue:   dialogue,
		dispatcher: dispatcher,
		cache:      cacheClient,
		events:     events,
		cfg:        cfg,
		logger:     log.WithComponent("engine"),
	}
}

// HandleMessage processes one inbound scammer message and returns the
// honeypot's reply. History is only consulted on first contact, to seed a
// session that began elsewhere; later turns trust the stored transcript.
func (e *HoneypotEngine) HandleMessage(ctx context.Context, sessionID string, inbound models.Message, history []models.Message) (string, error) {
	sess, created := e.store.GetOrCreate(sessionID)
	if created {
		e.logger.Info().Str("session_id", sessionID).Msg("new session")
		if e.cache != nil {
			e.cache.IncrStat(ctx, cache.KeyStatSessions)
		}
	}

	sess.Lock()
	defer sess.Unlock()

	sess.AppendMessage(inbound)
	if sess.MessageCount() == 1 && len(history) > 0 {
		for _, m := range history {
			sess.AppendMessage(m)
		}
	}

	result := e.classifier.Classify(inbound.Text, history)
	if result.IsScam && sess.RaiseDetection(result.Confidence) {
		sess.AddNote(fmt.Sprintf("Scam detected with %.2f confidence", result.Confidence))
		e.logger.Info().
			Str("session_id", sessionID).
			Float64("confidence", result.Confidence).
			Int("categories", len(result.Categories)).
			Msg("scam detected")
		if e.cache != nil {
			e.cache.IncrStat(ctx, cache.KeyStatScams)
		}
		if e.events != nil {
			e.events.Publish(ctx, streaming.NewSessionEvent(streaming.EventTypeScamDetected, sess))
		}
	}

	before := sess.Intelligence.IdentifierCount()
	sess.Intelligence.Merge(e.extractor.Extract(inbound.Text))
	if gained := sess.Intelligence.IdentifierCount() - before; gained > 0 && e.cache != nil {
		_, _ = e.cache.IncrBy(ctx, cache.KeyStatIntel, int64(gained))
	}

	// The transcript holds counterparty traffic only. Replies are returned,
	// never stored, so message-count arithmetic (reply selection, stage
	// caps, the report total) tracks scammer turns.
	reply := e.dialogue.Advance(sess, inbound.Text)

	if e.cache != nil {
		e.cache.IncrStat(ctx, cache.KeyStatMessages)
	}

	if sess.Concluded(e.cfg.ConversationCap) && sess.ScamDetected && !sess.Reported {
		if e.events != nil {
			e.events.Publish(ctx, streaming.NewSessionEvent(streaming.EventTypeSessionConcluded, sess))
		}
		// Delivery failure is not the caller's problem: the reply still
		// goes out, the session stays unreported, and the manual report
		// endpoint remains available as the retry path.
		if err := e.dispatcher.Dispatch(ctx, sess); err != nil {
			e.logger.Warn().Err(err).Str("session_id", sessionID).Msg("automatic report dispatch failed")
		}
	}

	return reply, nil
}

// TriggerReport dispatches the final report for a session on demand. This
// is the manual retry path: it delivers even when the conversation has not
// concluded, but never re-delivers an already reported session.
func (e *HoneypotEngine) TriggerReport(ctx context.Context, sessionID string) (*models.Report, error) {
	sess := e.store.Get(sessionID)
	if sess == nil {
		return nil, fmt.Errorf("session %q not found", sessionID)
	}

	sess.Lock()
	defer sess.Unlock()

	if sess.Reported {
		return models.BuildReport(sess), nil
	}
	if err := e.dispatcher.Dispatch(ctx, sess); err != nil {
		return nil, err
	}
	return models.BuildReport(sess), nil
}

// Store exposes the session store for the inspection endpoints.
func (e *HoneypotEngine) Store() *SessionStore {
	return e.store
}
