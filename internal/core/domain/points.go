package domain

import (
	"time"

	"github.com/google/uuid"
)

// PointsEvent defines a promotional reward, optionally time-boxed.
type PointsEvent struct {
	ID             uuid.UUID  `json:"id"`
	Code           string     `json:"code"`
	Name           string     `json:"name"`
	Points         string     `json:"points"` // decimal string, converted with ToMinorUnits at scale 0
	IsActive       bool       `json:"is_active"`
	OneTimePerUser bool       `json:"one_time_per_user"`
	StartsAt       *time.Time `json:"starts_at,omitempty"`
	EndsAt         *time.Time `json:"ends_at,omitempty"`
}

// Availability returns "" when the event can be earned at now, otherwise the
// reason it cannot: inactive, not_started or ended.
func (e *PointsEvent) Availability(now time.Time) string {
	switch {
	case !e.IsActive:
		return "inactive"
	case e.StartsAt != nil && now.Before(*e.StartsAt):
		return "not_started"
	case e.EndsAt != nil && now.After(*e.EndsAt):
		return "ended"
	}
	return ""
}

// PointsAccount holds a user's integral points balance.
type PointsAccount struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PointsTransaction records one points credit.
type PointsTransaction struct {
	ID             uuid.UUID         `json:"id"`
	AccountID      uuid.UUID         `json:"account_id"`
	UserID         uuid.UUID         `json:"user_id"`
	EventCode      string            `json:"event_code"`
	SourceRef      string            `json:"source_ref"`
	OneTime        bool              `json:"one_time"`
	Amount         int64             `json:"amount"`
	BalanceBefore  int64             `json:"balance_before"`
	BalanceAfter   int64             `json:"balance_after"`
	Status         TransactionStatus `json:"status"`
	IdempotencyKey string            `json:"idempotency_key"`
	Description    string            `json:"description,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// CreditPointsResult flags a safe retry that returned an earlier credit.
type CreditPointsResult struct {
	Transaction *PointsTransaction `json:"transaction"`
	IsDuplicate bool               `json:"is_duplicate"`
}
