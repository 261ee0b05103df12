package model

import "strings"

// Tier is the subscription level attached to a subject.
type Tier string

const (
	TierNone    Tier = ""
	TierFree    Tier = "free"
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
	TierFamily  Tier = "family"
)

// ParseTier maps a stored value onto the closed tier set. Anything
// unrecognised is treated as no tier at all.
func ParseTier(s string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierFree:
		return TierFree
	case TierBasic:
		return TierBasic
	case TierPremium:
		return TierPremium
	case TierFamily:
		return TierFamily
	default:
		return TierNone
	}
}

// IsPaid reports whether the tier unlocks subscriber-only routes.
func (t Tier) IsPaid() bool { return t != TierNone && t != TierFree }

func (t Tier) String() string {
	if t == TierNone {
		return "none"
	}
	return string(t)
}

// Subject is the authenticated principal. It is owned by the auth provider
// and never mutated here.
type Subject struct {
	ID   string `json:"id"`
	Tier Tier   `json:"tier"`
}

func (s *Subject) IsZero() bool { return s == nil || s.ID == "" }
