// Package inventory implements the stock ledger: the authoritative record
// of on-hand and reserved quantity per (product, warehouse) row. Every
// mutation runs inside a caller-supplied transaction with the row locked,
// appends a StockMovement audit row, and enforces the invariant
// 0 <= reserved <= quantity.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"kerani-system/internal/core"
	"kerani-system/internal/database/models"
	"kerani-system/internal/store"
)

const (
	stockCachePrefix = "stock:available:"
	stockCacheTTL    = 5 * time.Minute
)

// RowRef names one ledger row for cache invalidation.
type RowRef struct {
	ProductID   int64
	WarehouseID int64
}

type Ledger struct {
	store store.Store
	redis *redis.Client
	log   *zap.Logger
}

// NewLedger builds a ledger over the given store. The redis client is
// optional; without it availability reads go straight to the store.
func NewLedger(st store.Store, redisClient *redis.Client, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{store: st, redis: redisClient, log: log}
}

// Available returns quantity minus reserved for the row, 0 when the row
// does not exist. Served from redis when a cached value is fresh.
func (l *Ledger) Available(ctx context.Context, productID, warehouseID int64) (int64, error) {
	key := cacheKey(productID, warehouseID)
	if l.redis != nil {
		if cached, err := l.redis.Get(ctx, key).Result(); err == nil {
			if v, perr := strconv.ParseInt(cached, 10, 64); perr == nil {
				return v, nil
			}
		}
	}

	rec, err := l.store.Inventory(ctx, productID, warehouseID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	available := rec.Available()
	if l.redis != nil {
		_ = l.redis.Set(ctx, key, strconv.FormatInt(available, 10), stockCacheTTL).Err()
	}
	return available, nil
}

// InvalidateAvailability drops cached availability for the given rows.
// Services call it after their transaction commits.
func (l *Ledger) InvalidateAvailability(ctx context.Context, rows ...RowRef) {
	if l.redis == nil {
		return
	}
	for _, r := range rows {
		_ = l.redis.Del(ctx, cacheKey(r.ProductID, r.WarehouseID)).Err()
	}
}

// AdjustStock runs a stock-take correction in its own transaction and
// drops the cached availability afterwards.
func (l *Ledger) AdjustStock(ctx context.Context, productID, warehouseID, newQuantity int64, reference string, actor int64) error {
	err := l.store.WithinTx(ctx, func(tx store.Tx) error {
		return l.Adjust(tx, productID, warehouseID, newQuantity, reference, actor)
	})
	if err != nil {
		return err
	}

	l.InvalidateAvailability(ctx, RowRef{ProductID: productID, WarehouseID: warehouseID})
	l.log.Info("stock adjusted",
		zap.Int64("product_id", productID),
		zap.Int64("warehouse_id", warehouseID),
		zap.Int64("new_quantity", newQuantity))
	return nil
}

// Reserve places a hold of qty against available stock. It never changes
// on-hand quantity.
func (l *Ledger) Reserve(tx store.Tx, productID, warehouseID, qty int64, reference string, actor int64) error {
	if qty <= 0 {
		return &core.ValidationError{Field: "quantity", Reason: "must be greater than 0"}
	}

	rec, err := tx.InventoryForUpdate(productID, warehouseID)
	if errors.Is(err, store.ErrNotFound) {
		return &core.InsufficientStockError{Shortages: []core.StockShortage{
			{ProductID: productID, WarehouseID: warehouseID, Requested: qty, Available: 0},
		}}
	}
	if err != nil {
		return err
	}

	if qty > rec.Available() {
		return &core.InsufficientStockError{Shortages: []core.StockShortage{
			{ProductID: productID, WarehouseID: warehouseID, Requested: qty, Available: rec.Available()},
		}}
	}

	rec.ReservedQuantity += qty
	rec.LastUpdated = time.Now()
	if err := tx.SaveInventory(rec); err != nil {
		return err
	}
	return tx.AddMovement(&models.StockMovement{
		ProductID:    productID,
		WarehouseID:  warehouseID,
		MovementType: models.MovementReserve,
		Quantity:     qty,
		Reference:    reference,
		CreatedBy:    actor,
		CreatedAt:    time.Now(),
	})
}

// Release gives back a hold, floored at zero. Releasing against a missing
// row is a no-op: there is nothing held.
func (l *Ledger) Release(tx store.Tx, productID, warehouseID, qty int64, reference string, actor int64) error {
	if qty <= 0 {
		return &core.ValidationError{Field: "quantity", Reason: "must be greater than 0"}
	}

	rec, err := tx.InventoryForUpdate(productID, warehouseID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	released := qty
	if released > rec.ReservedQuantity {
		released = rec.ReservedQuantity
	}
	if released == 0 {
		return nil
	}

	rec.ReservedQuantity -= released
	rec.LastUpdated = time.Now()
	if err := tx.SaveInventory(rec); err != nil {
		return err
	}
	return tx.AddMovement(&models.StockMovement{
		ProductID:    productID,
		WarehouseID:  warehouseID,
		MovementType: models.MovementRelease,
		Quantity:     released,
		Reference:    reference,
		CreatedBy:    actor,
		CreatedAt:    time.Now(),
	})
}

// Commit converts a hold into a permanent deduction: both quantity and
// reserved drop by qty. A commit that would push either below zero is a
// bug or a race and surfaces as an invariant violation.
func (l *Ledger) Commit(tx store.Tx, productID, warehouseID, qty int64, reference string, actor int64) error {
	if qty <= 0 {
		return &core.ValidationError{Field: "quantity", Reason: "must be greater than 0"}
	}

	rec, err := tx.InventoryForUpdate(productID, warehouseID)
	if errors.Is(err, store.ErrNotFound) {
		return &core.InvariantViolationError{ProductID: productID, WarehouseID: warehouseID,
			Detail: "commit against missing ledger row"}
	}
	if err != nil {
		return err
	}

	if qty > rec.ReservedQuantity {
		return &core.InvariantViolationError{ProductID: productID, WarehouseID: warehouseID,
			Detail: fmt.Sprintf("commit of %d exceeds reserved %d", qty, rec.ReservedQuantity)}
	}
	if qty > rec.Quantity {
		return &core.InvariantViolationError{ProductID: productID, WarehouseID: warehouseID,
			Detail: fmt.Sprintf("commit of %d exceeds on-hand %d", qty, rec.Quantity)}
	}

	rec.Quantity -= qty
	rec.ReservedQuantity -= qty
	rec.LastUpdated = time.Now()
	if err := tx.SaveInventory(rec); err != nil {
		return err
	}
	return tx.AddMovement(&models.StockMovement{
		ProductID:    productID,
		WarehouseID:  warehouseID,
		MovementType: models.MovementCommit,
		Quantity:     -qty,
		Reference:    reference,
		CreatedBy:    actor,
		CreatedAt:    time.Now(),
	})
}

// Adjust sets on-hand quantity to the stock-take count. The row is
// created lazily on first reference. Corrections below the reserved
// quantity are rejected to protect in-flight reservations.
func (l *Ledger) Adjust(tx store.Tx, productID, warehouseID, newQuantity int64, reference string, actor int64) error {
	if newQuantity < 0 {
		return &core.ValidationError{Field: "quantity", Reason: "must not be negative"}
	}

	rec, err := tx.InventoryForUpdate(productID, warehouseID)
	if errors.Is(err, store.ErrNotFound) {
		rec = &models.InventoryRecord{
			ProductID:   productID,
			WarehouseID: warehouseID,
			CreatedAt:   time.Now(),
		}
		if err := tx.CreateInventory(rec); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if newQuantity < rec.ReservedQuantity {
		return &core.BelowReservedError{
			ProductID:   productID,
			WarehouseID: warehouseID,
			NewQuantity: newQuantity,
			Reserved:    rec.ReservedQuantity,
		}
	}

	delta := newQuantity - rec.Quantity
	rec.Quantity = newQuantity
	rec.LastUpdated = time.Now()
	if err := tx.SaveInventory(rec); err != nil {
		return err
	}
	return tx.AddMovement(&models.StockMovement{
		ProductID:    productID,
		WarehouseID:  warehouseID,
		MovementType: models.MovementAdjust,
		Quantity:     delta,
		Reference:    reference,
		CreatedBy:    actor,
		CreatedAt:    time.Now(),
	})
}

// Return puts qty back on hand, creating the row lazily. Used when a
// completed sale is refunded.
func (l *Ledger) Return(tx store.Tx, productID, warehouseID, qty int64, reference string, actor int64) error {
	if qty <= 0 {
		return &core.ValidationError{Field: "quantity", Reason: "must be greater than 0"}
	}

	rec, err := tx.InventoryForUpdate(productID, warehouseID)
	if errors.Is(err, store.ErrNotFound) {
		rec = &models.InventoryRecord{
			ProductID:   productID,
			WarehouseID: warehouseID,
			CreatedAt:   time.Now(),
		}
		if err := tx.CreateInventory(rec); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	rec.Quantity += qty
	rec.LastUpdated = time.Now()
	if err := tx.SaveInventory(rec); err != nil {
		return err
	}
	return tx.AddMovement(&models.StockMovement{
		ProductID:    productID,
		WarehouseID:  warehouseID,
		MovementType: models.MovementReturn,
		Quantity:     qty,
		Reference:    reference,
		CreatedBy:    actor,
		CreatedAt:    time.Now(),
	})
}

// Transfer moves a committed reservation of qty from the source row to the
// destination row in one unit: the source drops quantity and reserved by
// qty, the destination gains qty on hand. Rows are locked in ascending
// warehouse order so two transfers moving stock in opposite directions
// cannot deadlock.
func (l *Ledger) Transfer(tx store.Tx, productID, fromWarehouseID, toWarehouseID, qty int64, reference string, actor int64) error {
	if qty <= 0 {
		return &core.ValidationError{Field: "quantity", Reason: "must be greater than 0"}
	}
	if fromWarehouseID == toWarehouseID {
		return &core.SameWarehouseError{WarehouseID: fromWarehouseID}
	}

	var src, dst *models.InventoryRecord
	lockOrder := []int64{fromWarehouseID, toWarehouseID}
	if toWarehouseID < fromWarehouseID {
		lockOrder = []int64{toWarehouseID, fromWarehouseID}
	}

	for _, warehouseID := range lockOrder {
		rec, err := tx.InventoryForUpdate(productID, warehouseID)
		if errors.Is(err, store.ErrNotFound) {
			if warehouseID == fromWarehouseID {
				return &core.InvariantViolationError{ProductID: productID, WarehouseID: warehouseID,
					Detail: "transfer out of missing ledger row"}
			}
			rec = &models.InventoryRecord{
				ProductID:   productID,
				WarehouseID: warehouseID,
				CreatedAt:   time.Now(),
			}
			if err := tx.CreateInventory(rec); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		if warehouseID == fromWarehouseID {
			src = rec
		} else {
			dst = rec
		}
	}

	if qty > src.ReservedQuantity || qty > src.Quantity {
		return &core.InvariantViolationError{ProductID: productID, WarehouseID: fromWarehouseID,
			Detail: fmt.Sprintf("transfer of %d exceeds reserved %d or on-hand %d", qty, src.ReservedQuantity, src.Quantity)}
	}

	now := time.Now()
	src.Quantity -= qty
	src.ReservedQuantity -= qty
	src.LastUpdated = now
	dst.Quantity += qty
	dst.LastUpdated = now

	if err := tx.SaveInventory(src); err != nil {
		return err
	}
	if err := tx.SaveInventory(dst); err != nil {
		return err
	}

	out := &models.StockMovement{
		ProductID:    productID,
		WarehouseID:  fromWarehouseID,
		MovementType: models.MovementTransferOut,
		Quantity:     -qty,
		Reference:    reference,
		CreatedBy:    actor,
		CreatedAt:    now,
	}
	in := &models.StockMovement{
		ProductID:    productID,
		WarehouseID:  toWarehouseID,
		MovementType: models.MovementTransferIn,
		Quantity:     qty,
		Reference:    reference,
		CreatedBy:    actor,
		CreatedAt:    now,
	}
	if err := tx.AddMovement(out); err != nil {
		return err
	}
	return tx.AddMovement(in)
}

func cacheKey(productID, warehouseID int64) string {
	return fmt.Sprintf("%s%d:%d", stockCachePrefix, productID, warehouseID)
}
