// Package store defines the persistence contract the fulfillment engines
// run against. Production uses the GORM implementation in
// internal/database; tests use the in-memory implementation in
// internal/store/memory.
package store

import (
	"context"
	"errors"

	"kerani-system/internal/database/models"
)

// ErrNotFound is returned by lookups when no row matches.
var ErrNotFound = errors.New("record not found")

// Tx is the set of row operations available inside one transaction.
// ForUpdate accessors lock the row for the duration of the transaction so
// two concurrent requests cannot both observe sufficient available stock.
type Tx interface {
	// Inventory ledger rows.
	InventoryForUpdate(productID, warehouseID int64) (*models.InventoryRecord, error)
	CreateInventory(rec *models.InventoryRecord) error
	SaveInventory(rec *models.InventoryRecord) error
	AddMovement(m *models.StockMovement) error

	// Sales.
	CreateSale(sale *models.Sale) error
	SaleForUpdate(id int64) (*models.Sale, error)
	SaveSale(sale *models.Sale) error
	SaleNumberTaken(number string) (bool, error)

	// Stock transfers. SaveTransfer writes the header row only; item
	// mutations go through SaveTransferItem.
	CreateTransfer(t *models.StockTransfer) error
	TransferForUpdate(id int64) (*models.StockTransfer, error)
	SaveTransfer(t *models.StockTransfer) error
	SaveTransferItem(item *models.StockTransferItem) error
	TransferNumberTaken(number string) (bool, error)

	// Packing.
	CreatePacking(p *models.Packing) error
	PackingForUpdate(id int64) (*models.Packing, error)
	SavePacking(p *models.Packing) error
}

// Store opens transactions and serves plain reads. WithinTx commits when
// fn returns nil and rolls back everything, reservations included, when
// it does not.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	Inventory(ctx context.Context, productID, warehouseID int64) (*models.InventoryRecord, error)
}

// ProductReader, WarehouseReader and UserReader are the read-only catalog
// collaborators. The engines never write through them.
type ProductReader interface {
	ProductByID(ctx context.Context, id int64) (*models.Product, error)
}

type WarehouseReader interface {
	WarehouseByID(ctx context.Context, id int64) (*models.Warehouse, error)
}

type UserReader interface {
	UserByID(ctx context.Context, id int64) (*models.User, error)
}
