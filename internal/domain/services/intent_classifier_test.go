package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbtrap-lab/internal/config"
	"orbtrap-lab/internal/domain/models"
	"orbtrap-lab/pkg/logger"
)

func newTestClassifier(t *testing.T) *IntentClassifier {
	t.Helper()
	return NewIntentClassifier(NewPatternDB(), config.DefaultDetection(), logger.NewDefault())
}

func TestClassifyHighRiskMessage(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify("Your bank account will be blocked in 2 hours, please verify immediately", nil)

	require.True(t, result.IsScam)
	assert.GreaterOrEqual(t, result.Confidence, 0.85)
	assert.Contains(t, result.Categories, CategoryUrgency)
	assert.Contains(t, result.Categories, CategoryThreats)
	assert.Contains(t, result.Categories, CategoryFinancial)
	assert.Contains(t, result.Categories, CategoryVerification)
}

func TestClassifyBenignMessage(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify("Hey, are we still meeting for lunch tomorrow?", nil)

	assert.False(t, result.IsScam)
	assert.Zero(t, result.Confidence)
	assert.Empty(t, result.Categories)
}

func TestClassifyBaseConfidenceTiers(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name string
		text string
		want float64
	}{
		{"one category", "there is a prize waiting", 0.50},
		{"two categories", "you won a lottery, act fast", 0.70},
		{"three categories", "hurry, you won a gift from the government", 0.85},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Classify(tt.text, nil)
			assert.InDelta(t, tt.want, result.Confidence, 1e-9)
		})
	}
}

func TestClassifyThreatFinancialBoost(t *testing.T) {
	c := newTestClassifier(t)

	// threats + financial only: base 0.70, boosted by 0.15
	result := c.Classify("pay the fine or face a refund reversal", nil)
	require.Contains(t, result.Categories, CategoryThreats)
	require.Contains(t, result.Categories, CategoryFinancial)
	assert.InDelta(t, 0.85, result.Confidence, 1e-9)
}

func TestClassifyUrgencyVerifyCapLowersBoostedScore(t *testing.T) {
	c := newTestClassifier(t)

	// Five categories with threats+financial pushes to 0.95; the
	// urgency+verification rule then clamps to its own 0.90 ceiling.
	result := c.Classify("Your bank account will be blocked in 2 hours, please verify immediately", nil)
	assert.InDelta(t, 0.90, result.Confidence, 1e-9)
}

func TestClassifyHistoryEscalation(t *testing.T) {
	c := newTestClassifier(t)

	history := []models.Message{
		{Sender: models.SenderScammer, Text: "Do it immediately or else"},
		{Sender: models.SenderUser, Text: "I'm not sure about this"},
	}

	without := c.Classify("there is a prize waiting", nil)
	with := c.Classify("there is a prize waiting", history)

	assert.InDelta(t, without.Confidence+0.05, with.Confidence, 1e-9)
}

func TestClassifyHistoryIgnoresHoneypotTurns(t *testing.T) {
	c := newTestClassifier(t)

	// Urgency tokens in the honeypot's own replies must not count.
	history := []models.Message{
		{Sender: models.SenderUser, Text: "What happens if I don't do this right away? Is it urgent?"},
	}

	with := c.Classify("there is a prize waiting", history)
	assert.InDelta(t, 0.50, with.Confidence, 1e-9)
}

func TestClassifyDeterministic(t *testing.T) {
	c := newTestClassifier(t)

	text := "urgent: verify your bank account now"
	first := c.Classify(text, nil)
	second := c.Classify(text, nil)

	assert.Equal(t, first.IsScam, second.IsScam)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Categories, second.Categories)
}
