package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kerani-system/internal/database/models"
	"kerani-system/internal/store"
)

// Store is the Postgres-backed implementation of store.Store and of the
// read-only catalog readers. Row-locked accessors issue
// SELECT ... FOR UPDATE so concurrent reservations serialize on the
// ledger row.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txStore{db: tx})
	})
}

func (s *Store) Inventory(ctx context.Context, productID, warehouseID int64) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&rec).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &rec, nil
}

// --- Catalog readers ---

func (s *Store) ProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

func (s *Store) WarehouseByID(ctx context.Context, id int64) (*models.Warehouse, error) {
	var w models.Warehouse
	if err := s.db.WithContext(ctx).First(&w, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &w, nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &u, nil
}

// --- Read side for the gateway ---

type SalesFilter struct {
	Status      *models.SaleStatus
	WarehouseID *int64
	StartDate   *time.Time
	EndDate     *time.Time
	Page        int
	PageSize    int
}

func (s *Store) SaleByID(ctx context.Context, id int64) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.WithContext(ctx).Preload("Items").First(&sale, id).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context, f SalesFilter) ([]models.Sale, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Sale{})

	if f.Status != nil {
		query = query.Where("status = ?", *f.Status)
	}
	if f.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *f.WarehouseID)
	}
	if f.StartDate != nil {
		query = query.Where("sale_date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		query = query.Where("sale_date < ?", *f.EndDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sales []models.Sale
	err := query.Preload("Items").
		Order("sale_date DESC").
		Offset(offsetFor(f.Page, f.PageSize)).Limit(limitFor(f.PageSize)).
		Find(&sales).Error
	return sales, total, err
}

type TransfersFilter struct {
	Status      *models.TransferStatus
	WarehouseID *int64
	Page        int
	PageSize    int
}

func (s *Store) TransferByID(ctx context.Context, id int64) (*models.StockTransfer, error) {
	var t models.StockTransfer
	err := s.db.WithContext(ctx).Preload("Items").First(&t, id).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &t, nil
}

func (s *Store) ListTransfers(ctx context.Context, f TransfersFilter) ([]models.StockTransfer, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.StockTransfer{})

	if f.Status != nil {
		query = query.Where("status = ?", *f.Status)
	}
	if f.WarehouseID != nil {
		query = query.Where("from_warehouse_id = ? OR to_warehouse_id = ?", *f.WarehouseID, *f.WarehouseID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var transfers []models.StockTransfer
	err := query.Preload("Items").
		Order("transfer_date DESC").
		Offset(offsetFor(f.Page, f.PageSize)).Limit(limitFor(f.PageSize)).
		Find(&transfers).Error
	return transfers, total, err
}

func (s *Store) PackingByID(ctx context.Context, id int64) (*models.Packing, error) {
	var p models.Packing
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

func (s *Store) PackingBySaleID(ctx context.Context, saleID int64) (*models.Packing, error) {
	var p models.Packing
	err := s.db.WithContext(ctx).Where("sale_id = ?", saleID).First(&p).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

func (s *Store) ListPackings(ctx context.Context, status *models.PackingStatus, page, pageSize int) ([]models.Packing, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Packing{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var packings []models.Packing
	err := query.Order("created_at DESC").
		Offset(offsetFor(page, pageSize)).Limit(limitFor(pageSize)).
		Find(&packings).Error
	return packings, total, err
}

type MovementsFilter struct {
	ProductID   *int64
	WarehouseID *int64
	Reference   *string
	Page        int
	PageSize    int
}

func (s *Store) ListMovements(ctx context.Context, f MovementsFilter) ([]models.StockMovement, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.StockMovement{})

	if f.ProductID != nil {
		query = query.Where("product_id = ?", *f.ProductID)
	}
	if f.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *f.WarehouseID)
	}
	if f.Reference != nil {
		query = query.Where("reference = ?", *f.Reference)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var movements []models.StockMovement
	err := query.Order("created_at DESC").
		Offset(offsetFor(f.Page, f.PageSize)).Limit(limitFor(f.PageSize)).
		Find(&movements).Error
	return movements, total, err
}

// LowStock lists ledger rows whose available quantity sits at or below the
// product's minimum stock level.
func (s *Store) LowStock(ctx context.Context, warehouseID *int64) ([]models.InventoryRecord, error) {
	query := s.db.WithContext(ctx).Model(&models.InventoryRecord{}).
		Joins("JOIN products ON products.id = inventory_records.product_id").
		Where("inventory_records.quantity - inventory_records.reserved_quantity <= products.min_stock_level").
		Preload("Product").Preload("Warehouse")

	if warehouseID != nil {
		query = query.Where("inventory_records.warehouse_id = ?", *warehouseID)
	}

	var records []models.InventoryRecord
	err := query.Find(&records).Error
	return records, err
}

// --- Transaction-scoped store ---

type txStore struct {
	db *gorm.DB
}

func (t *txStore) InventoryForUpdate(productID, warehouseID int64) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&rec).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &rec, nil
}

func (t *txStore) CreateInventory(rec *models.InventoryRecord) error {
	return t.db.Create(rec).Error
}

func (t *txStore) SaveInventory(rec *models.InventoryRecord) error {
	return t.db.Save(rec).Error
}

func (t *txStore) AddMovement(m *models.StockMovement) error {
	return t.db.Create(m).Error
}

func (t *txStore) CreateSale(sale *models.Sale) error {
	return t.db.Create(sale).Error
}

func (t *txStore) SaleForUpdate(id int64) (*models.Sale, error) {
	var sale models.Sale
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sale, id).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	if err := t.db.Where("sale_id = ?", id).Find(&sale.Items).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (t *txStore) SaveSale(sale *models.Sale) error {
	return t.db.Save(sale).Error
}

func (t *txStore) SaleNumberTaken(number string) (bool, error) {
	var count int64
	err := t.db.Model(&models.Sale{}).Where("sale_number = ?", number).Count(&count).Error
	return count > 0, err
}

func (t *txStore) CreateTransfer(transfer *models.StockTransfer) error {
	return t.db.Create(transfer).Error
}

func (t *txStore) TransferForUpdate(id int64) (*models.StockTransfer, error) {
	var transfer models.StockTransfer
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&transfer, id).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	if err := t.db.Where("transfer_id = ?", id).Find(&transfer.Items).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

// SaveTransfer writes the header row. gorm's Save upserts has-many
// associations on the foreign key column only, so item mutations would be
// lost here; SaveTransferItem writes them row by row.
func (t *txStore) SaveTransfer(transfer *models.StockTransfer) error {
	return t.db.Omit("Items").Save(transfer).Error
}

func (t *txStore) SaveTransferItem(item *models.StockTransferItem) error {
	return t.db.Save(item).Error
}

func (t *txStore) TransferNumberTaken(number string) (bool, error) {
	var count int64
	err := t.db.Model(&models.StockTransfer{}).Where("transfer_number = ?", number).Count(&count).Error
	return count > 0, err
}

func (t *txStore) CreatePacking(p *models.Packing) error {
	return t.db.Create(p).Error
}

func (t *txStore) PackingForUpdate(id int64) (*models.Packing, error) {
	var p models.Packing
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

func (t *txStore) SavePacking(p *models.Packing) error {
	return t.db.Save(p).Error
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

func offsetFor(page, pageSize int) int {
	if page <= 0 {
		page = 1
	}
	return (page - 1) * limitFor(pageSize)
}

func limitFor(pageSize int) int {
	if pageSize <= 0 {
		return 20
	}
	return pageSize
}
