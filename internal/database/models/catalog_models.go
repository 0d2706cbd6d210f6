package models

import "time"

type WarehouseKind string

const (
	WarehousePhysical WarehouseKind = "PHYSICAL"
	WarehouseOnline   WarehouseKind = "ONLINE"
)

// Product is the catalog entry the engines read. Catalog maintenance is
// external; the core never writes these rows.
type Product struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	SKU            string `gorm:"size:100;uniqueIndex;not null"`
	ProductName    string `gorm:"size:255;not null"`
	UnitOfMeasure  string `gorm:"size:50"`
	CostPrice      string `gorm:"type:decimal(18,2);not null"`
	RetailPrice    string `gorm:"type:decimal(18,2);not null"`
	WholesalePrice string `gorm:"type:decimal(18,2);not null"`
	MinStockLevel  int64  `gorm:"not null;default:0"`
	IsActive       bool   `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Warehouse struct {
	ID            int64         `gorm:"primaryKey;autoIncrement"`
	WarehouseCode string        `gorm:"size:100;uniqueIndex;not null"`
	WarehouseName string        `gorm:"size:255;not null"`
	Kind          WarehouseKind `gorm:"size:20;not null"`
	IsActive      bool          `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// User is the cashier/requester record. Accounts and roles are managed
// elsewhere; the engines only validate and read the commission rate.
type User struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	Username       string `gorm:"uniqueIndex;not null"`
	Email          string `gorm:"uniqueIndex;not null"`
	Firstname      string `gorm:"not null"`
	Lastname       string `gorm:"not null"`
	Role           string `gorm:"size:50;not null"`
	CommissionRate string `gorm:"type:decimal(5,2);not null;default:0"`
	IsActive       bool   `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
