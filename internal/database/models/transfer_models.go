package models

import "time"

type TransferStatus string

const (
	TransferPending   TransferStatus = "PENDING"
	TransferInTransit TransferStatus = "IN_TRANSIT"
	TransferCompleted TransferStatus = "COMPLETED"
	TransferCancelled TransferStatus = "CANCELLED"
)

type StockTransfer struct {
	ID              int64          `gorm:"primaryKey;autoIncrement"`
	TransferNumber  string         `gorm:"size:100;uniqueIndex;not null"`
	FromWarehouseID int64          `gorm:"index;not null"`
	ToWarehouseID   int64          `gorm:"index;not null"`
	RequestedBy     int64          `gorm:"not null"`
	ApprovedBy      *int64
	Status          TransferStatus `gorm:"size:20;index;not null"`
	TransferDate    time.Time      `gorm:"index;not null"`
	Notes           *string        `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items         []StockTransferItem `gorm:"foreignKey:TransferID"`
	FromWarehouse *Warehouse          `gorm:"foreignKey:FromWarehouseID"`
	ToWarehouse   *Warehouse          `gorm:"foreignKey:ToWarehouseID"`
}

// TransferredQuantity stays nil until fulfillment and may come in below
// RequestedQuantity when the shipment is short.
type StockTransferItem struct {
	ID                  int64  `gorm:"primaryKey;autoIncrement"`
	TransferID          int64  `gorm:"index;not null"`
	ProductID           int64  `gorm:"not null"`
	RequestedQuantity   int64  `gorm:"not null"`
	TransferredQuantity *int64
	CreatedAt           time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
