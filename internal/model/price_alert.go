package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceAlert is a user's request to be notified once a product's price
// falls to or below TargetPrice.
//
// State machine: active && !notified is the only state from which a
// notification can fire. Notified flips false->true at most once and
// never reverts; Active flips true->false only through cancellation.
// TargetPrice and OriginalPrice are fixed at creation.
type PriceAlert struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	ProductID     uuid.UUID       `db:"product_id" json:"productId"`
	UserID        uuid.UUID       `db:"user_id" json:"userId"`
	TargetPrice   decimal.Decimal `db:"target_price" json:"targetPrice"`
	OriginalPrice decimal.Decimal `db:"original_price" json:"originalPrice"` // product price when the watch was created
	Active        bool            `db:"active" json:"active"`
	Notified      bool            `db:"notified" json:"notified"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	NotifiedAt    *time.Time      `db:"notified_at" json:"notifiedAt,omitempty"`
}

// Pending reports whether the alert is still eligible for notification.
func (a *PriceAlert) Pending() bool {
	return a.Active && !a.Notified
}

// TargetReached applies the inclusive boundary rule: equality counts.
func (a *PriceAlert) TargetReached(price decimal.Decimal) bool {
	return price.LessThanOrEqual(a.TargetPrice)
}

// PriceHistoryEntry is one observed price transition for a product.
// Rows are append-only and never mutated or deleted.
type PriceHistoryEntry struct {
	ID            uuid.UUID           `db:"id" json:"id"`
	ProductID     uuid.UUID           `db:"product_id" json:"productId"`
	OldPrice      decimal.Decimal     `db:"old_price" json:"oldPrice"`
	NewPrice      decimal.Decimal     `db:"new_price" json:"newPrice"`
	ChangePercent decimal.NullDecimal `db:"change_percent" json:"changePercent,omitempty"`
	ChangedAt     time.Time           `db:"changed_at" json:"changedAt"`
}

// IsDrop reports whether this transition lowered the price.
func (e *PriceHistoryEntry) IsDrop() bool {
	return e.NewPrice.LessThan(e.OldPrice)
}

// PriceDrop is a history entry joined with enough product data to
// identify what dropped, served by the recent-drops query.
type PriceDrop struct {
	PriceHistoryEntry
	ProductName string `db:"product_name" json:"productName"`
}

// AlertFire is the payload handed to the notification dispatch
// collaborator when an alert transitions to notified.
type AlertFire struct {
	AlertID         uuid.UUID       `json:"alertId"`
	UserID          uuid.UUID       `json:"userId"`
	ProductID       uuid.UUID       `json:"productId"`
	ProductName     string          `json:"productName"`
	TargetPrice     decimal.Decimal `json:"targetPrice"`
	TriggeringPrice decimal.Decimal `json:"triggeringPrice"`
}

// PushSubscription stores a Web Push endpoint registered by a user's
// browser or device.
type PushSubscription struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	P256dh    string    `db:"p256dh" json:"-"`
	Auth      string    `db:"auth" json:"-"`
	UserAgent *string   `db:"user_agent" json:"userAgent,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
