// Package catalog holds the fixed list of plan offers. It has no rendering or
// storage concerns; callers get copies in declared order.
package catalog

import (
	"learning-portal/internal/domain"
	"learning-portal/internal/domain/model"
)

var offers = []model.PlanOffer{
	{
		ID:         "basic",
		Name:       "Basic Plan",
		PriceCents: 999,
		Features: []string{
			"Access to all basic activities",
			"Limited progress tracking",
			"Email support",
		},
	},
	{
		ID:         "premium",
		Name:       "Premium Plan",
		PriceCents: 1999,
		Features: []string{
			"Access to all activities",
			"Advanced progress tracking",
			"Priority support",
			"Downloadable resources",
		},
		Recommended: true,
	},
	{
		ID:         "family",
		Name:       "Family Plan",
		PriceCents: 2999,
		Features: []string{
			"Everything in Premium",
			"Up to 4 child profiles",
			"24/7 support",
			"Family progress dashboard",
		},
	},
}

var tiers = map[string]model.Tier{
	"basic":   model.TierBasic,
	"premium": model.TierPremium,
	"family":  model.TierFamily,
}

// Plans returns every offer in declared order.
func Plans() []model.PlanOffer {
	out := make([]model.PlanOffer, len(offers))
	for i, o := range offers {
		out[i] = clone(o)
	}
	return out
}

// Lookup finds an offer by id.
func Lookup(id string) (model.PlanOffer, error) {
	for _, o := range offers {
		if o.ID == id {
			return clone(o), nil
		}
	}
	return model.PlanOffer{}, domain.ErrUnknownPlan
}

// Recommended returns the first offer marked as recommended, if any.
func Recommended() (model.PlanOffer, bool) {
	for _, o := range offers {
		if o.Recommended {
			return clone(o), true
		}
	}
	return model.PlanOffer{}, false
}

// TierForPlan maps a plan id to the tier it grants. Unknown ids grant nothing.
func TierForPlan(id string) model.Tier {
	if t, ok := tiers[id]; ok {
		return t
	}
	return model.TierNone
}

func clone(o model.PlanOffer) model.PlanOffer {
	o.Features = append([]string(nil), o.Features...)
	return o
}
