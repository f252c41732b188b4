package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DailyDebt is a dated line item (store products taken on credit during a
// session). Each one is either paid off and deleted, or swept into DebtHistory
// by the nightly cleanup.
type DailyDebt struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	ClientProfileID string    `gorm:"size:36;index;not null" json:"clientProfileId"`
	ProductType     string    `gorm:"size:32" json:"productType"`
	ProductName     string    `gorm:"size:128" json:"productName"`
	Amount          float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Quantity        int       `gorm:"default:1" json:"quantity"`
	CreatedBy       *string   `gorm:"size:36" json:"createdBy"`
	CreatedAt       time.Time `gorm:"not null;<-:create" json:"createdAt"`
}

func (DailyDebt) TableName() string {
	return "daily_debts"
}

func (d *DailyDebt) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// DebtHistory is the append-only archive of swept daily debts. CreatedAt keeps
// the original line item's creation time; DeletedAt is when the sweep archived
// it. Rows are never updated after insert.
type DebtHistory struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	ClientProfileID string    `gorm:"size:36;index;not null" json:"clientProfileId"`
	ProductType     string    `gorm:"size:32" json:"productType"`
	ProductName     string    `gorm:"size:128" json:"productName"`
	Amount          float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Quantity        int       `gorm:"default:1" json:"quantity"`
	DebtType        string    `gorm:"size:16;default:daily" json:"debtType"`
	CreatedBy       *string   `gorm:"size:36" json:"createdBy"`
	CreatedAt       time.Time `gorm:"index;not null" json:"createdAt"`
	DeletedAt       time.Time `gorm:"not null" json:"deletedAt"`
}

func (DebtHistory) TableName() string {
	return "debt_history"
}

func (h *DebtHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}
