package models

import "time"

type MovementType string

const (
	MovementReserve     MovementType = "RESERVE"
	MovementRelease     MovementType = "RELEASE"
	MovementCommit      MovementType = "COMMIT"
	MovementAdjust      MovementType = "ADJUST"
	MovementTransferOut MovementType = "TRANSFER_OUT"
	MovementTransferIn  MovementType = "TRANSFER_IN"
	MovementReturn      MovementType = "RETURN"
)

// InventoryRecord is the ledger row for one (product, warehouse) pair.
// Invariant: 0 <= ReservedQuantity <= Quantity.
type InventoryRecord struct {
	ID               int64 `gorm:"primaryKey;autoIncrement"`
	ProductID        int64 `gorm:"not null;uniqueIndex:idx_inventory_product_warehouse"`
	WarehouseID      int64 `gorm:"not null;uniqueIndex:idx_inventory_product_warehouse"`
	Quantity         int64 `gorm:"not null;default:0"`
	ReservedQuantity int64 `gorm:"not null;default:0"`
	LastUpdated      time.Time
	CreatedAt        time.Time

	Product   *Product   `gorm:"foreignKey:ProductID"`
	Warehouse *Warehouse `gorm:"foreignKey:WarehouseID"`
}

// Available is the only quantity sellable or transferable out.
func (r *InventoryRecord) Available() int64 {
	return r.Quantity - r.ReservedQuantity
}

// StockMovement is the append-only audit trail of ledger mutations.
// Quantity is the signed on-hand delta for COMMIT/ADJUST/TRANSFER/RETURN
// rows and the size of the hold for RESERVE/RELEASE rows.
type StockMovement struct {
	ID           int64        `gorm:"primaryKey;autoIncrement"`
	ProductID    int64        `gorm:"index;not null"`
	WarehouseID  int64        `gorm:"index;not null"`
	MovementType MovementType `gorm:"size:20;not null"`
	Quantity     int64        `gorm:"not null"`
	Reference    string       `gorm:"size:100;index"`
	Notes        *string      `gorm:"size:255"`
	CreatedBy    int64
	CreatedAt    time.Time
}
