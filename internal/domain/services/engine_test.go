package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbtrap-lab/internal/config"
	"orbtrap-lab/internal/domain/models"
	"orbtrap-lab/pkg/logger"
)

func newTestEngine(sinkURL string) *HoneypotEngine {
	log := logger.NewDefault()
	patterns := NewPatternDB()
	dispatcher := NewReportDispatcher(config.CallbackConfig{URL: sinkURL, Timeout: 2 * time.Second}, nil, nil, nil, log)
	return NewHoneypotEngine(
		NewSessionStore(config.SessionsConfig{ShardCount: 8}, log),
		NewIntentClassifier(patterns, config.DefaultDetection(), log),
		NewIntelligenceExtractor(patterns),
		NewDialogueEngine(config.DefaultDialogue(), log),
		dispatcher,
		nil,
		nil,
		config.DefaultDialogue(),
		log,
	)
}

func scammerMsg(text string) models.Message {
	return models.NewMessage(models.SenderScammer, text, "")
}

func TestFirstTurnCreatesSessionAndEngages(t *testing.T) {
	engine := newTestEngine("http://127.0.0.1:1/unused")

	reply, err := engine.HandleMessage(context.Background(), "fresh",
		scammerMsg("Your bank account will be blocked, verify immediately"), nil)
	require.NoError(t, err)
	assert.Contains(t, initialReplies, reply)

	sess := engine.Store().Get("fresh")
	require.NotNil(t, sess)

	sess.Lock()
	defer sess.Unlock()
	assert.Equal(t, models.StageEngaged, sess.Stage)
	assert.True(t, sess.ScamDetected)
	assert.Equal(t, 1, sess.MessageCount()) // scammer traffic only
	assert.NotEmpty(t, sess.Notes)
}

func TestHistorySeedsOnlyFirstContact(t *testing.T) {
	engine := newTestEngine("http://127.0.0.1:1/unused")
	history := []models.Message{
		scammerMsg("hello"),
		models.NewMessage(models.SenderUser, "who is this?", ""),
	}

	_, err := engine.HandleMessage(context.Background(), "seeded", scammerMsg("verify your account"), history)
	require.NoError(t, err)

	sess := engine.Store().Get("seeded")
	sess.Lock()
	count := sess.MessageCount()
	sess.Unlock()
	// inbound + 2 seeded
	assert.Equal(t, 3, count)

	// Replaying history on a later turn must not duplicate it.
	_, err = engine.HandleMessage(context.Background(), "seeded", scammerMsg("still there?"), history)
	require.NoError(t, err)

	sess.Lock()
	count = sess.MessageCount()
	sess.Unlock()
	assert.Equal(t, 4, count)
}

// Replies must never enter the transcript: reply selection and the stage
// caps key off the count of scammer turns, so a session holds exactly as
// many messages as it has received.
func TestReplySelectionTracksScammerTurnCount(t *testing.T) {
	engine := newTestEngine("http://127.0.0.1:1/unused")
	ctx := context.Background()

	_, err := engine.HandleMessage(ctx, "bank",
		scammerMsg("Your bank account will be blocked, verify immediately"), nil)
	require.NoError(t, err)

	reply, err := engine.HandleMessage(ctx, "bank",
		scammerMsg("Share your OTP now so we can verify your account"), nil)
	require.NoError(t, err)
	assert.Equal(t, hesitationReplies[2], reply)

	sess := engine.Store().Get("bank")
	sess.Lock()
	defer sess.Unlock()
	assert.Equal(t, models.StageExtraction, sess.Stage)
	assert.Equal(t, 2, sess.MessageCount())
}

func TestIntelligenceAccumulatesAcrossTurns(t *testing.T) {
	engine := newTestEngine("http://127.0.0.1:1/unused")
	ctx := context.Background()

	_, err := engine.HandleMessage(ctx, "intel", scammerMsg("send money to fraud@paytm"), nil)
	require.NoError(t, err)
	_, err = engine.HandleMessage(ctx, "intel", scammerMsg("or call 9876543210, also fraud@paytm works"), nil)
	require.NoError(t, err)

	sess := engine.Store().Get("intel")
	sess.Lock()
	defer sess.Unlock()
	assert.Contains(t, sess.Intelligence.UPIIDs, "fraud@paytm")
	assert.Contains(t, sess.Intelligence.PhoneNumbers, "9876543210")
	assert.Len(t, sess.Intelligence.UPIIDs, 1)
}

func TestConcludedScamSessionReportsExactlyOnce(t *testing.T) {
	var calls atomic.Int64
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer sink.Close()

	engine := newTestEngine(sink.URL)
	ctx := context.Background()

	// Credential language moves the script into extraction on turn two,
	// then the extraction message cap forces closing on turn twelve
	// without any identifiers.
	for i := 0; i < 12; i++ {
		_, err := engine.HandleMessage(ctx, "concl", scammerMsg("urgent: verify your bank account otp now"), nil)
		require.NoError(t, err)
	}

	sess := engine.Store().Get("concl")
	sess.Lock()
	assert.Equal(t, models.StageClosing, sess.Stage)
	assert.True(t, sess.Reported)
	sess.Unlock()

	assert.EqualValues(t, 1, calls.Load())

	// Further turns after conclusion never re-dispatch.
	_, err := engine.HandleMessage(ctx, "concl", scammerMsg("hello? urgent!"), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestFailedDispatchLeavesRetryPathOpen(t *testing.T) {
	var calls atomic.Int64
	healthy := atomic.Bool{}
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !healthy.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer sink.Close()

	engine := newTestEngine(sink.URL)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := engine.HandleMessage(ctx, "retry", scammerMsg("urgent: verify your bank account otp now"), nil)
		require.NoError(t, err)
	}

	sess := engine.Store().Get("retry")
	sess.Lock()
	reported := sess.Reported
	sess.Unlock()
	assert.False(t, reported)

	// Manual trigger succeeds once the sink recovers.
	healthy.Store(true)
	report, err := engine.TriggerReport(ctx, "retry")
	require.NoError(t, err)
	assert.Equal(t, "retry", report.SessionID)

	sess.Lock()
	assert.True(t, sess.Reported)
	sess.Unlock()
}

func TestTriggerReportUnknownSession(t *testing.T) {
	engine := newTestEngine("http://127.0.0.1:1/unused")

	_, err := engine.TriggerReport(context.Background(), "ghost")
	assert.Error(t, err)
}
