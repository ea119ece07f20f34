package services

import (
	"regexp"
	"strings"

	"orbtrap-lab/internal/domain/models"
)

// upiProviders is the allow-list of payment-provider handle domains. An
// address-like token only counts as a UPI ID when its domain part contains
// one of these, which keeps ordinary e-mail addresses out of the results.
var upiProviders = []string{"upi", "paytm", "gpay", "phonepe", "ybl", "okaxis", "okhdfcbank"}

// IntelligenceExtractor pulls structured identifiers out of free text.
// Stateless; each call returns only what the given text contains.
type IntelligenceExtractor struct {
	bankGrouped *regexp.Regexp
	bankBare    *regexp.Regexp
	addressLike *regexp.Regexp
	url         *regexp.Regexp
	phoneIntl   *regexp.Regexp
	phoneBare   *regexp.Regexp
	patterns    *PatternDB
}

// NewIntelligenceExtractor compiles the extraction patterns.
func NewIntelligenceExtractor(patterns *PatternDB) *IntelligenceExtractor {
	return &IntelligenceExtractor{
		// Grouped account format (1234-5678-9012) or a bare long digit run.
		bankGrouped: regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4,6}\b`),
		bankBare:    regexp.MustCompile(`\b\d{10,18}\b`),
		addressLike: regexp.MustCompile(`\b[\w.-]+@[\w.-]+\b`),
		url:         regexp.MustCompile(`https?://[^\s]+`),
		phoneIntl:   regexp.MustCompile(`\+?\d{1,3}[-.\s]?\d{10}`),
		phoneBare:   regexp.MustCompile(`\b\d{10}\b`),
		patterns:    patterns,
	}
}

// Extract returns the identifiers found in text. Rules apply independently
// and non-exclusively: a 10-digit run lands in both bankAccounts and
// phoneNumbers. Results merge into a session accumulator by set union, so
// extracting the same text twice is a no-op.
func (e *IntelligenceExtractor) Extract(text string) *models.Intelligence {
	intel := models.NewIntelligence()

	for _, m := range e.bankGrouped.FindAllString(text, -1) {
		intel.BankAccounts[m] = struct{}{}
	}
	for _, m := range e.bankBare.FindAllString(text, -1) {
		intel.BankAccounts[m] = struct{}{}
	}

	for _, token := range e.addressLike.FindAllString(text, -1) {
		if isUPIHandle(token) {
			intel.UPIIDs[token] = struct{}{}
		}
	}

	for _, m := range e.url.FindAllString(text, -1) {
		intel.PhishingLinks[m] = struct{}{}
	}

	for _, m := range e.phoneIntl.FindAllString(text, -1) {
		intel.PhoneNumbers[m] = struct{}{}
	}
	for _, m := range e.phoneBare.FindAllString(text, -1) {
		intel.PhoneNumbers[m] = struct{}{}
	}

	// Record the verbatim substring matched by each detection pattern.
	for _, hits := range e.patterns.Match(text) {
		for _, h := range hits {
			intel.SuspiciousKeywords[h.Literal] = struct{}{}
		}
	}

	return intel
}

// isUPIHandle reports whether an address-like token uses a known payment
// provider handle.
func isUPIHandle(token string) bool {
	lower := strings.ToLower(token)
	at := strings.LastIndex(lower, "@")
	if at < 1 || at == len(lower)-1 {
		return false
	}
	domain := lower[at+1:]
	for _, provider := range upiProviders {
		if strings.Contains(domain, provider) {
			return true
		}
	}
	return false
}
