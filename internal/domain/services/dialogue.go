package services

import (
	"strings"

	"orbtrap-lab/internal/config"
	"orbtrap-lab/internal/domain/models"
	"orbtrap-lab/pkg/logger"
)

// Reply scripts per stage. Selection is deterministic (message count modulo
// list length) so a replayed conversation produces the same dialogue.
var (
	initialReplies = []string{
		"Why is my account being blocked? I haven't done anything wrong.",
		"What? I don't understand. What verification are you talking about?",
		"Is this real? How do I know you're from the bank?",
		"I'm worried. Can you explain what's happening?",
		"This seems urgent. What should I do?",
	}

	hesitationReplies = []string{
		"I want to help, but I'm not sure about sharing that. Is there another way?",
		"My account number? I have it somewhere... why do you need it exactly?",
		"I'm a bit nervous sharing this information. Can you verify you're really from the bank first?",
		"Should I share this over message? Isn't that unsafe?",
	}

	probingReplies = []string{
		"I'm trying to understand. Can you explain more?",
		"What happens if I don't do this right away?",
		"How long do I have to fix this?",
		"Is my money safe? I'm really worried.",
	}

	linkCautionReply   = "I see a link. Is this safe to click? I've heard about fake websites."
	disengagementReply = "Wait, I'm going to call my bank directly to confirm this. Let me call them."
	closingReply       = "Actually, I'm going to visit the bank branch in person. Thanks anyway."
)

// credentialTerms move an engaged session into extraction when the
// counterparty starts asking for financial credentials.
var credentialTerms = []string{"upi", "account", "card", "cvv", "otp", "pin"}

// DialogueEngine advances a session through the engagement script and
// selects the outbound reply. It mutates only the session it is handed;
// callers must hold the session lock.
type DialogueEngine struct {
	cfg    config.DialogueConfig
	logger *logger.Logger
}

// NewDialogueEngine creates the stage machine.
func NewDialogueEngine(cfg config.DialogueConfig, log *logger.Logger) *DialogueEngine {
	return &DialogueEngine{
		cfg:    cfg,
		logger: log.WithComponent("dialogue"),
	}
}

// Advance runs one turn of the script: inspects the inbound text, applies
// at most one forward stage transition, appends audit notes, and returns
// the reply.
func (d *DialogueEngine) Advance(sess *models.Session, inbound string) string {
	lower := strings.ToLower(inbound)

	switch sess.Stage {
	case models.StageInitial:
		return d.advanceInitial(sess, lower)
	case models.StageEngaged:
		return d.advanceEngaged(sess, lower)
	case models.StageExtraction:
		return d.advanceExtraction(sess, lower)
	default:
		// Closing is terminal; repeated calls keep disengaging.
		return closingReply
	}
}

// advanceInitial always shows concern and moves to engaged.
func (d *DialogueEngine) advanceInitial(sess *models.Session, lower string) string {
	sess.AdvanceStage(models.StageEngaged)
	sess.AddNote("Initial engagement - showing concern")

	switch {
	case strings.Contains(lower, "block") || strings.Contains(lower, "suspend"):
		return initialReplies[0]
	case strings.Contains(lower, "verify") || strings.Contains(lower, "confirm"):
		return initialReplies[1]
	default:
		return initialReplies[3]
	}
}

// advanceEngaged hesitates on credential requests (moving to extraction),
// flags links, and otherwise keeps probing.
func (d *DialogueEngine) advanceEngaged(sess *models.Session, lower string) string {
	if containsAnyTerm(lower, credentialTerms) {
		sess.AdvanceStage(models.StageExtraction)
		sess.AddNote("Scammer requesting sensitive info - showing hesitation")
		return SelectReply(hesitationReplies, sess.MessageCount())
	}

	if strings.Contains(lower, "http") || strings.Contains(lower, "link") || strings.Contains(lower, "click") {
		sess.AddNote("Phishing link detected")
		return linkCautionReply
	}

	return SelectReply(probingReplies, sess.MessageCount())
}

// advanceExtraction stalls with counter-questions until enough intelligence
// has accumulated, then disengages.
func (d *DialogueEngine) advanceExtraction(sess *models.Session, lower string) string {
	intelCount := sess.Intelligence.IdentifierCount()
	if intelCount >= d.cfg.IntelTarget || sess.MessageCount() >= d.cfg.ExtractionCap {
		sess.AdvanceStage(models.StageClosing)
		sess.AddNote("Sufficient intelligence gathered")
		d.logger.Debug().
			Str("session_id", sess.ID).
			Int("intel_count", intelCount).
			Int("messages", sess.MessageCount()).
			Msg("extraction complete, disengaging")
		return disengagementReply
	}

	switch {
	case strings.Contains(lower, "upi"):
		return "My UPI ID? Let me check... but can you tell me your employee ID first?"
	case strings.Contains(lower, "account"):
		return "I have multiple accounts. Which one are you talking about?"
	case strings.Contains(lower, "otp") || strings.Contains(lower, "code"):
		return "I haven't received any OTP yet. Where should I look for it?"
	default:
		return "Okay, I'm looking for that information. What will you do with it?"
	}
}

// SelectReply picks a reply deterministically: message count modulo the
// candidate list length. Pure, so tests can predict every turn.
func SelectReply(replies []string, messageCount int) string {
	return replies[messageCount%len(replies)]
}

func containsAnyTerm(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
