package services

import (
	"regexp"
	"strings"
)

// Category is one of the six fixed scam-signal groups.
type Category string

const (
	CategoryUrgency       Category = "urgency"
	CategoryThreats       Category = "threats"
	CategoryFinancial     Category = "financial"
	CategoryVerification  Category = "verification"
	CategoryRewards       Category = "rewards"
	CategoryImpersonation Category = "impersonation"
)

// Categories lists the groups in a stable order.
var Categories = []Category{
	CategoryUrgency,
	CategoryThreats,
	CategoryFinancial,
	CategoryVerification,
	CategoryRewards,
	CategoryImpersonation,
}

// scamPatternSources is the detection pattern set, grouped by category.
// Overlapping matches within a category count once per category, so adding
// patterns widens recall without skewing the score.
var scamPatternSources = map[Category][]string{
	CategoryUrgency: {
		`urgent`, `immediately`, `right now`, `within \d+ (hour|minute)`,
		`expire`, `limited time`, `act fast`, `hurry`,
	},
	CategoryThreats: {
		`blocked`, `suspend`, `deactivate`, `freeze`, `lock`,
		`legal action`, `arrest`, `police`, `court`, `fine`,
	},
	CategoryFinancial: {
		`bank account`, `credit card`, `debit card`, `upi`, `paytm`,
		`gpay`, `phonepe`, `transaction`, `payment`, `refund`,
		`cvv`, `pin`, `otp`, `account number`, `ifsc`,
	},
	CategoryVerification: {
		`verify`, `confirm`, `validate`, `update.*detail`,
		`share.*detail`, `provide.*information`, `enter.*code`,
	},
	CategoryRewards: {
		`won`, `prize`, `lottery`, `reward`, `cashback`,
		`free`, `gift`, `bonus`, `offer`,
	},
	CategoryImpersonation: {
		`bank`, `government`, `tax department`, `police`,
		`customer care`, `support team`, `official`, `authorized`,
	},
}

// PatternHit records one pattern that matched, with the verbatim substring
// it matched (lower-cased input).
type PatternHit struct {
	Pattern string
	Literal string
}

// compiledPattern pairs a pattern source with its compiled form.
type compiledPattern struct {
	source string
	re     *regexp.Regexp
}

// PatternDB matches text against the fixed category pattern sets. Patterns
// are compiled once at construction and the DB is safe for concurrent use.
type PatternDB struct {
	categories map[Category][]compiledPattern
}

// NewPatternDB compiles the default detection patterns.
func NewPatternDB() *PatternDB {
	db := &PatternDB{categories: make(map[Category][]compiledPattern, len(scamPatternSources))}
	for cat, sources := range scamPatternSources {
		compiled := make([]compiledPattern, 0, len(sources))
		for _, src := range sources {
			compiled = append(compiled, compiledPattern{
				source: src,
				re:     regexp.MustCompile(src),
			})
		}
		db.categories[cat] = compiled
	}
	return db
}

// Match returns, per category, every pattern that matched the text along
// with the substring it matched. Matching is case-insensitive.
func (db *PatternDB) Match(text string) map[Category][]PatternHit {
	lower := strings.ToLower(text)
	hits := make(map[Category][]PatternHit)
	for cat, patterns := range db.categories {
		for _, p := range patterns {
			if m := p.re.FindString(lower); m != "" {
				hits[cat] = append(hits[cat], PatternHit{Pattern: p.source, Literal: m})
			}
		}
	}
	return hits
}

// Sources returns the raw pattern strings for a category, for the
// reference-data endpoint.
func (db *PatternDB) Sources(cat Category) []string {
	patterns := db.categories[cat]
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = p.source
	}
	return out
}
