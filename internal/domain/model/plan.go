package model

import "fmt"

// PlanOffer is a catalog entry. Offers are declared at compile time and
// never change at runtime.
type PlanOffer struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	PriceCents  int64    `json:"price_cents"`
	Features    []string `json:"features"`
	Recommended bool     `json:"recommended,omitempty"`
}

func (p *PlanOffer) IsZero() bool { return p == nil || p.ID == "" }

// PriceLabel renders the monthly price with a currency prefix and two
// decimals, e.g. "$19.99".
func (p PlanOffer) PriceLabel() string {
	return fmt.Sprintf("$%d.%02d", p.PriceCents/100, p.PriceCents%100)
}

// CTALabel is the text of the subscribe button.
func (p PlanOffer) CTALabel(loading bool) string {
	if loading {
		return "Processing..."
	}
	return "Subscribe to " + p.Name
}
