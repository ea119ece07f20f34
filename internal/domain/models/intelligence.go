package models

import "sort"

// Intelligence accumulates identifiers harvested from scammer messages.
// Each field has set semantics: duplicates collapse, members are never
// removed, and the sets only grow for the life of a session.
type Intelligence struct {
	BankAccounts       map[string]struct{}
	UPIIDs             map[string]struct{}
	PhishingLinks      map[string]struct{}
	PhoneNumbers       map[string]struct{}
	SuspiciousKeywords map[string]struct{}
}

// NewIntelligence returns an empty accumulator.
func NewIntelligence() *Intelligence {
	return &Intelligence{
		BankAccounts:       make(map[string]struct{}),
		UPIIDs:             make(map[string]struct{}),
		PhishingLinks:      make(map[string]struct{}),
		PhoneNumbers:       make(map[string]struct{}),
		SuspiciousKeywords: make(map[string]struct{}),
	}
}

// Merge unions other into i. Safe to call with partial results from a
// single message; repeated merges of the same values are no-ops.
func (i *Intelligence) Merge(other *Intelligence) {
	if other == nil {
		return
	}
	union(i.BankAccounts, other.BankAccounts)
	union(i.UPIIDs, other.UPIIDs)
	union(i.PhishingLinks, other.PhishingLinks)
	union(i.PhoneNumbers, other.PhoneNumbers)
	union(i.SuspiciousKeywords, other.SuspiciousKeywords)
}

// IdentifierCount returns the number of distinct actionable identifiers.
// Suspicious keywords are excluded: they mark tone, not targets, and would
// otherwise satisfy the extraction target on nearly every scam turn.
func (i *Intelligence) IdentifierCount() int {
	return len(i.BankAccounts) + len(i.UPIIDs) + len(i.PhishingLinks) + len(i.PhoneNumbers)
}

// IntelligenceSummary is the wire form: sets flattened to sorted lists.
type IntelligenceSummary struct {
	BankAccounts       []string `json:"bankAccounts"`
	UPIIDs             []string `json:"upiIds"`
	PhishingLinks      []string `json:"phishingLinks"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// Summary converts the accumulator into deduplicated sorted lists.
func (i *Intelligence) Summary() IntelligenceSummary {
	return IntelligenceSummary{
		BankAccounts:       sortedKeys(i.BankAccounts),
		UPIIDs:             sortedKeys(i.UPIIDs),
		PhishingLinks:      sortedKeys(i.PhishingLinks),
		PhoneNumbers:       sortedKeys(i.PhoneNumbers),
		SuspiciousKeywords: sortedKeys(i.SuspiciousKeywords),
	}
}

func union(dst, src map[string]struct{}) {
	for k := range src {
		dst[k] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
