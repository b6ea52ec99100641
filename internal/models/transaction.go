package models

import (
	"time"
)

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

// Transaction is one purchase attempt. Rows are inserted as pending by the
// bot and flipped to paid by the webhook receiver; they are never deleted.
type Transaction struct {
	OrderID   string `gorm:"primaryKey;size:64"`
	UserID    int64  `gorm:"not null;index"`
	Amount    int    `gorm:"not null"`
	Status    string `gorm:"not null;default:'pending';size:16"`
	CreatedAt time.Time
}
