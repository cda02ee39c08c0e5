package billing

import (
	"fmt"
	"strings"
)

type Plan string

const (
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
)

func ParsePlan(s string) (Plan, error) {
	switch p := Plan(strings.ToLower(strings.TrimSpace(s))); p {
	case PlanMonthly, PlanYearly:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPlan, s)
	}
}

// Prices maps plans to provider price identifiers.
type Prices struct {
	Monthly string
	Yearly  string
}

func (p Prices) For(plan Plan) (string, error) {
	var id string
	switch plan {
	case PlanMonthly:
		id = p.Monthly
	case PlanYearly:
		id = p.Yearly
	}
	if id == "" {
		return "", fmt.Errorf("%w: no price configured for %q", ErrInvalidPlan, plan)
	}
	return id, nil
}
