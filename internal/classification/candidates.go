// Package classification discovers rule candidates from recurring
// unmatched transactions.
package classification

import (
	"sort"
	"strings"

	"github.com/mfaurel/comptamatch/internal/match"
	"github.com/mfaurel/comptamatch/internal/model"
	"github.com/shopspring/decimal"
)

// MinOccurrences is the default recurrence threshold: a label seen fewer
// times is noise, not a counterparty worth a rule.
const MinOccurrences = 3

// Candidate is a recurring normalized label with no matching rule,
// proposed as the primary pattern of a new one.
type Candidate struct {
	Pattern     string
	SampleLabel string
	RoleType    model.RoleType
	Count       int
	TotalAmount decimal.Decimal
}

// Detector finds rule candidates among unmatched transactions.
type Detector struct {
	minOccurrences int
}

// NewDetector creates a detector. A non-positive threshold falls back to
// MinOccurrences.
func NewDetector(minOccurrences int) *Detector {
	if minOccurrences <= 0 {
		minOccurrences = MinOccurrences
	}
	return &Detector{minOccurrences: minOccurrences}
}

// Discover groups unmatched transactions by normalized label, drops groups
// already covered by an enabled rule, and returns the recurring remainder
// ordered by occurrence count. The role type is a hint derived from the
// money direction: outgoing suggests a supplier, incoming a customer.
func (d *Detector) Discover(transactions []model.Transaction, rules []model.MatchingRule) []Candidate {
	type group struct {
		sample   string
		count    int
		total    decimal.Decimal
		incoming int
	}

	groups := make(map[string]*group)
	for i := range transactions {
		txn := &transactions[i]
		if txn.MatchingStatus != model.StatusUnmatched {
			continue
		}
		if _, ok := match.FirstMatch(txn.Label, rules); ok {
			// A rule already covers this label; applying it is the fix,
			// not a new rule.
			continue
		}

		key := txn.NormalizedLabel
		if key == "" {
			key = match.NormalizeLabel(txn.Label)
		}
		if key == "" {
			continue
		}

		g, ok := groups[key]
		if !ok {
			g = &group{sample: txn.Label}
			groups[key] = g
		}
		g.count++
		g.total = g.total.Add(txn.Amount.Abs())
		if txn.Amount.IsPositive() {
			g.incoming++
		}
	}

	candidates := make([]Candidate, 0, len(groups))
	for pattern, g := range groups {
		if g.count < d.minOccurrences {
			continue
		}

		role := model.RoleSupplier
		if g.incoming*2 > g.count {
			role = model.RoleCustomer
		}

		candidates = append(candidates, Candidate{
			Pattern:     pattern,
			SampleLabel: g.sample,
			RoleType:    role,
			Count:       g.count,
			TotalAmount: g.total,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Count != candidates[j].Count {
			return candidates[i].Count > candidates[j].Count
		}
		return strings.Compare(candidates[i].Pattern, candidates[j].Pattern) < 0
	})

	return candidates
}
