package models

import "time"

type PackingStatus string

const (
	PackingPending    PackingStatus = "PENDING"
	PackingInProgress PackingStatus = "IN_PROGRESS"
	PackingPacked     PackingStatus = "PACKED"
	PackingShipped    PackingStatus = "SHIPPED"
)

// Packing is the fulfillment companion of an online sale. It never
// touches the ledger; the sale's stock is committed before shipping.
type Packing struct {
	ID           int64         `gorm:"primaryKey;autoIncrement"`
	SaleID       int64         `gorm:"uniqueIndex;not null"`
	Status       PackingStatus `gorm:"size:20;index;not null"`
	PackerID     *int64
	PackedDate   *time.Time
	ShippedDate  *time.Time
	TrackingInfo *string `gorm:"size:255"`
	Notes        *string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Sale *Sale `gorm:"foreignKey:SaleID"`
}
