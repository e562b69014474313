// Package warehouse gives the backoffice read access to association rules
// precomputed by the analytical warehouse. The warehouse exposes no stable
// programmatic protocol, so the concrete source shells out to its bulk-copy
// CLI; everything above this package only sees the RuleSource interface.
package warehouse

import "context"

// AssociationRule is a precomputed "bought together" statistic. The
// consequent fields are comma-separated lists as stored by the warehouse.
type AssociationRule struct {
	RuleID          int64   `json:"rule_id"`
	ConsequentIDs   string  `json:"consequent_product_ids"`
	ConsequentNames string  `json:"consequent_names"`
	Support         float64 `json:"support"`
	Confidence      float64 `json:"confidence"`
	Lift            float64 `json:"lift"`
	ComputedAt      string  `json:"computed_at,omitempty"`
}

// Stats summarises the warehouse's current rule set.
type Stats struct {
	TotalRules     int64   `json:"total_rules"`
	AvgConfidence  float64 `json:"avg_confidence"`
	AvgLift        float64 `json:"avg_lift"`
	LastComputedAt string  `json:"last_computed_at,omitempty"`
}

// RuleSource answers association-rule queries. Product ids are warehouse
// ids, not catalog identities; callers resolve catalog tokens first.
type RuleSource interface {
	RulesForProduct(ctx context.Context, productID int64, topN int) ([]AssociationRule, error)
	RulesForCart(ctx context.Context, productIDs []int64, topN int) ([]AssociationRule, error)
	Stats(ctx context.Context) (*Stats, error)
}
