package models

import "time"

type SaleType string

const (
	SaleRetail    SaleType = "RETAIL"
	SaleWholesale SaleType = "WHOLESALE"
	SaleOnline    SaleType = "ONLINE"
)

type SaleStatus string

const (
	SalePending   SaleStatus = "PENDING"
	SaleCompleted SaleStatus = "COMPLETED"
	SaleCancelled SaleStatus = "CANCELLED"
	SaleRefunded  SaleStatus = "REFUNDED"
)

type Sale struct {
	ID            int64      `gorm:"primaryKey;autoIncrement"`
	SaleNumber    string     `gorm:"size:100;uniqueIndex;not null"`
	WarehouseID   int64      `gorm:"index;not null"`
	CashierID     *int64     `gorm:"index"`
	CustomerName  *string    `gorm:"size:255"`
	CustomerPhone *string    `gorm:"size:50"`
	SaleType      SaleType   `gorm:"size:20;not null"`
	Status        SaleStatus `gorm:"size:20;index;not null"`

	Subtotal         string  `gorm:"type:decimal(18,2);not null"`
	TaxAmount        string  `gorm:"type:decimal(18,2);not null"`
	DiscountAmount   string  `gorm:"type:decimal(18,2);not null"`
	TotalAmount      string  `gorm:"type:decimal(18,2);not null"`
	CommissionAmount *string `gorm:"type:decimal(18,2)"`

	SaleDate  time.Time `gorm:"index;not null"`
	Notes     *string   `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items     []SaleItem `gorm:"foreignKey:SaleID"`
	Warehouse *Warehouse `gorm:"foreignKey:WarehouseID"`
}

// SaleItem snapshots CostPrice at sale time so later catalog price edits
// never alter historical margin.
type SaleItem struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	SaleID         int64  `gorm:"index;not null"`
	ProductID      int64  `gorm:"not null"`
	Quantity       int64  `gorm:"not null"`
	UnitPrice      string `gorm:"type:decimal(18,2);not null"`
	DiscountAmount string `gorm:"type:decimal(18,2);not null"`
	LineTotal      string `gorm:"type:decimal(18,2);not null"`
	CostPrice      string `gorm:"type:decimal(18,2);not null"`
	CreatedAt      time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
