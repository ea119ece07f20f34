package services

import (
	"regexp"
	"strings"

	"orbtrap-lab/internal/config"
	"orbtrap-lab/internal/domain/models"
	"orbtrap-lab/pkg/logger"
)

// escalationTokens flags urgency language in recent counterparty history.
// Scammers typically escalate pressure across turns.
var escalationTokens = regexp.MustCompile(`urgent|immediately|now`)

// IntentClassifier scores scam intent from free text using the fixed
// category pattern sets. It holds no per-conversation state: identical
// input always yields identical output.
type IntentClassifier struct {
	patterns *PatternDB
	scoring  config.DetectionConfig
	logger   *logger.Logger
}

// Classification is the result of scoring one message.
type Classification struct {
	IsScam     bool
	Confidence float64
	// Categories maps each matched category to the patterns that hit.
	Categories map[Category][]string
}

// NewIntentClassifier creates a classifier with the given scoring table.
func NewIntentClassifier(patterns *PatternDB, scoring config.DetectionConfig, log *logger.Logger) *IntentClassifier {
	return &IntentClassifier{
		patterns: patterns,
		scoring:  scoring,
		logger:   log.WithComponent("intent-classifier"),
	}
}

// Classify scores text against the pattern sets and recent history.
//
// Base confidence comes from the count of distinct matched categories; two
// fixed high-risk combinations add capped boosts, and urgency language in
// the counterparty's recent turns adds a small capped escalation boost.
func (c *IntentClassifier) Classify(text string, history []models.Message) Classification {
	hits := c.patterns.Match(text)

	categories := make(map[Category][]string, len(hits))
	for cat, catHits := range hits {
		for _, h := range catHits {
			categories[cat] = append(categories[cat], h.Pattern)
		}
	}

	confidence := c.baseConfidence(len(categories))

	_, threats := categories[CategoryThreats]
	_, financial := categories[CategoryFinancial]
	if threats && financial {
		confidence = boost(confidence, c.scoring.ThreatFinancialBoost, c.scoring.ThreatFinancialCap)
	}

	_, urgency := categories[CategoryUrgency]
	_, verification := categories[CategoryVerification]
	if urgency && verification {
		confidence = boost(confidence, c.scoring.UrgencyVerifyBoost, c.scoring.UrgencyVerifyCap)
	}

	if c.historyEscalates(history) {
		confidence = boost(confidence, c.scoring.HistoryUrgencyBoost, c.scoring.HistoryUrgencyCap)
	}

	return Classification{
		IsScam:     confidence >= c.scoring.ScamThreshold,
		Confidence: confidence,
		Categories: categories,
	}
}

// baseConfidence maps the distinct-category count to a base score.
func (c *IntentClassifier) baseConfidence(categoryCount int) float64 {
	switch {
	case categoryCount >= 3:
		return c.scoring.BaseThreeCategories
	case categoryCount == 2:
		return c.scoring.BaseTwoCategories
	case categoryCount == 1:
		return c.scoring.BaseOneCategory
	default:
		return 0.0
	}
}

// historyEscalates reports whether any of the counterparty's last few
// messages carries an urgency token.
func (c *IntentClassifier) historyEscalates(history []models.Message) bool {
	if len(history) == 0 {
		return false
	}
	window := c.scoring.HistoryWindow
	start := len(history) - window
	if start < 0 {
		start = 0
	}
	for _, msg := range history[start:] {
		if msg.Sender != models.SenderScammer {
			continue
		}
		if escalationTokens.MatchString(strings.ToLower(msg.Text)) {
			return true
		}
	}
	return false
}

// boost applies an additive bonus without exceeding its ceiling.
func boost(confidence, bonus, ceiling float64) float64 {
	boosted := confidence + bonus
	if boosted > ceiling {
		return ceiling
	}
	return boosted
}
