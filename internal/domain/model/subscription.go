package model

import (
	"strings"
	"time"

	"learning-portal/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive  SubscriptionStatus = "active"
	SubscriptionStatusExpired SubscriptionStatus = "expired"
)

// PeriodDays is the length of one billing period in calendar days.
const PeriodDays = 30

// SubscriptionRecord is the persisted subscription of a subject. There is at
// most one record per user; a new commit overwrites it.
type SubscriptionRecord struct {
	ID               string             `json:"id"`
	UserID           string             `json:"user_id"`
	Plan             string             `json:"plan"`
	Status           SubscriptionStatus `json:"status"`
	CurrentPeriodEnd time.Time          `json:"current_period_end"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// PeriodEnd adds PeriodDays to the day-of-month of now (in UTC), letting the
// month and year roll over.
func PeriodEnd(now time.Time) time.Time {
	return now.UTC().AddDate(0, 0, PeriodDays)
}

// NewSubscriptionRecord builds the active record written by a commit.
func NewSubscriptionRecord(userID, planID string, now time.Time) (*SubscriptionRecord, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(planID) == "" || now.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	now = now.UTC()
	return &SubscriptionRecord{
		UserID:           userID,
		Plan:             planID,
		Status:           SubscriptionStatusActive,
		CurrentPeriodEnd: PeriodEnd(now),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// IsCurrent reports whether the record still grants its plan at now.
func (s *SubscriptionRecord) IsCurrent(now time.Time) bool {
	return s != nil && s.Status == SubscriptionStatusActive && now.Before(s.CurrentPeriodEnd)
}
