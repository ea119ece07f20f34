package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbtrap-lab/internal/config"
	"orbtrap-lab/internal/domain/models"
	"orbtrap-lab/pkg/logger"
)

func newTestDialogue() *DialogueEngine {
	return NewDialogueEngine(config.DefaultDialogue(), logger.NewDefault())
}

func sessionAtStage(id string, stage models.Stage, messageCount int) *models.Session {
	sess := models.NewSession(id)
	sess.Stage = stage
	for i := 0; i < messageCount; i++ {
		sess.AppendMessage(models.NewMessage(models.SenderScammer, "filler", ""))
	}
	return sess
}

func TestInitialAlwaysMovesToEngaged(t *testing.T) {
	d := newTestDialogue()

	tests := []struct {
		name  string
		text  string
		reply string
	}{
		{"blocking language", "your account will be blocked", initialReplies[0]},
		{"verification language", "please verify your identity", initialReplies[1]},
		{"anything else", "hello, this is customer care", initialReplies[3]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := sessionAtStage("s1", models.StageInitial, 1)
			reply := d.Advance(sess, tt.text)

			assert.Equal(t, models.StageEngaged, sess.Stage)
			assert.Equal(t, tt.reply, reply)
			assert.Contains(t, sess.Notes, "Initial engagement - showing concern")
		})
	}
}

func TestEngagedCredentialRequestMovesToExtraction(t *testing.T) {
	d := newTestDialogue()
	sess := sessionAtStage("s1", models.StageEngaged, 2)

	reply := d.Advance(sess, "share your OTP to continue")

	assert.Equal(t, models.StageExtraction, sess.Stage)
	assert.Equal(t, SelectReply(hesitationReplies, 2), reply)
	assert.Contains(t, sess.Notes, "Scammer requesting sensitive info - showing hesitation")
}

func TestEngagedLinkStaysEngaged(t *testing.T) {
	d := newTestDialogue()
	sess := sessionAtStage("s1", models.StageEngaged, 3)

	reply := d.Advance(sess, "go to http://fake.example and log in")

	assert.Equal(t, models.StageEngaged, sess.Stage)
	assert.Equal(t, linkCautionReply, reply)
	assert.Contains(t, sess.Notes, "Phishing link detected")
}

func TestEngagedProbingByDefault(t *testing.T) {
	d := newTestDialogue()
	sess := sessionAtStage("s1", models.StageEngaged, 5)

	reply := d.Advance(sess, "this is very serious, you must comply")

	assert.Equal(t, models.StageEngaged, sess.Stage)
	assert.Equal(t, probingReplies[5%len(probingReplies)], reply)
}

func TestExtractionClosesOnIntelTarget(t *testing.T) {
	d := newTestDialogue()
	sess := sessionAtStage("s1", models.StageExtraction, 6)
	sess.Intelligence.BankAccounts["1234-5678-9012"] = struct{}{}
	sess.Intelligence.UPIIDs["fraud@paytm"] = struct{}{}
	sess.Intelligence.PhoneNumbers["9876543210"] = struct{}{}

	reply := d.Advance(sess, "so what about that transfer")

	assert.Equal(t, models.StageClosing, sess.Stage)
	assert.Equal(t, disengagementReply, reply)
	assert.Contains(t, sess.Notes, "Sufficient intelligence gathered")
}

func TestExtractionClosesOnMessageCap(t *testing.T) {
	d := newTestDialogue()
	sess := sessionAtStage("s1", models.StageExtraction, 12)

	reply := d.Advance(sess, "are you still there")

	assert.Equal(t, models.StageClosing, sess.Stage)
	assert.Equal(t, disengagementReply, reply)
}

func TestExtractionStallsByKeyword(t *testing.T) {
	d := newTestDialogue()

	tests := []struct {
		name     string
		text     string
		fragment string
	}{
		{"upi", "give me your upi id", "employee ID"},
		{"account", "which account do you use", "multiple accounts"},
		{"otp", "read me the otp", "haven't received any OTP"},
		{"fallback", "just do what I say", "What will you do with it?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := sessionAtStage("s1", models.StageExtraction, 4)
			reply := d.Advance(sess, tt.text)

			assert.Equal(t, models.StageExtraction, sess.Stage)
			assert.Contains(t, reply, tt.fragment)
		})
	}
}

func TestClosingIsTerminal(t *testing.T) {
	d := newTestDialogue()
	sess := sessionAtStage("s1", models.StageClosing, 15)

	first := d.Advance(sess, "wait, come back")
	second := d.Advance(sess, "hello??")

	assert.Equal(t, models.StageClosing, sess.Stage)
	assert.Equal(t, closingReply, first)
	assert.Equal(t, closingReply, second)
}

func TestSelectReplyDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		want := probingReplies[i%len(probingReplies)]
		require.Equal(t, want, SelectReply(probingReplies, i))
	}
}
