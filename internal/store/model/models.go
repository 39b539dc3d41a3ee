// Package model holds the persisted table schemas.
package model

import (
	"time"

	"gorm.io/datatypes"
)

// SignalModel is one emitted signal, kept for the operator surface and
// post-hoc review. Payload carries the full signal JSON so schema changes
// in the strategy layer do not require migrations.
type SignalModel struct {
	ID        uint           `gorm:"primaryKey"`
	SignalID  string         `gorm:"size:64;uniqueIndex"`
	Symbol    string         `gorm:"size:32;index"`
	Direction string         `gorm:"size:8"`
	Regime    string         `gorm:"size:16"`
	Strength  float64        `gorm:""`
	TPROI     float64        `gorm:"column:tp_roi"`
	SLROI     float64        `gorm:"column:sl_roi"`
	Payload   datatypes.JSON `gorm:""`
	CreatedAt time.Time      `gorm:"index"`
}

func (SignalModel) TableName() string { return "signals" }

// OrderModel records one order attempt, placed or failed.
type OrderModel struct {
	ID         uint      `gorm:"primaryKey"`
	SignalID   string    `gorm:"size:64;index"`
	Symbol     string    `gorm:"size:32;index"`
	Direction  string    `gorm:"size:8"`
	Status     string    `gorm:"size:16;index"` // placed | failed
	OrderID    int64     `gorm:""`
	Quantity   float64   `gorm:""`
	EntryPrice float64   `gorm:""`
	TakeProfit float64   `gorm:""`
	StopLoss   float64   `gorm:""`
	Error      string    `gorm:"size:512"`
	CreatedAt  time.Time `gorm:"index"`
}

func (OrderModel) TableName() string { return "orders" }

// DailyStatModel aggregates per-day activity for the stats endpoint.
type DailyStatModel struct {
	Day          string    `gorm:"size:10;primaryKey"` // YYYY-MM-DD
	Signals      int       `gorm:""`
	OrdersPlaced int       `gorm:""`
	OrdersFailed int       `gorm:""`
	UpdatedAt    time.Time `gorm:""`
}

func (DailyStatModel) TableName() string { return "daily_stats" }
