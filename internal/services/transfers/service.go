// Package transfers moves committed stock between warehouses through the
// request/approve/complete lifecycle:
//
//	PENDING -> IN_TRANSIT -> COMPLETED
//
// with CANCELLED reachable from PENDING or IN_TRANSIT only. A transfer
// request reserves stock at the source; completion commits the source
// reservation and increments the destination in one atomic unit.
package transfers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kerani-system/internal/core"
	"kerani-system/internal/database/models"
	"kerani-system/internal/services/inventory"
	"kerani-system/internal/store"
)

type ItemInput struct {
	ProductID int64
	Quantity  int64
}

type TransferInput struct {
	FromWarehouseID int64
	ToWarehouseID   int64
	Notes           *string
	Items           []ItemInput
}

// FulfilledItem overrides the transferred quantity of one item on
// completion; items not named default to their requested quantity.
type FulfilledItem struct {
	ItemID              int64
	TransferredQuantity int64
}

type Service struct {
	store      store.Store
	ledger     *inventory.Ledger
	products   store.ProductReader
	warehouses store.WarehouseReader
	log        *zap.Logger
}

func NewService(st store.Store, ledger *inventory.Ledger, products store.ProductReader,
	warehouses store.WarehouseReader, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: st, ledger: ledger, products: products, warehouses: warehouses, log: log}
}

// CreateStockTransfer validates both warehouses, reserves every requested
// quantity at the source and persists the transfer in one transaction.
// Insufficient lines are aggregated, not short-circuited.
func (s *Service) CreateStockTransfer(ctx context.Context, input TransferInput, requestedBy int64) (*models.StockTransfer, error) {
	if input.FromWarehouseID == input.ToWarehouseID {
		return nil, &core.SameWarehouseError{WarehouseID: input.FromWarehouseID}
	}
	if len(input.Items) == 0 {
		return nil, &core.ValidationError{Field: "items", Reason: "transfer must have at least one item"}
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, &core.ValidationError{Field: "quantity", Reason: "must be greater than 0"}
		}
	}

	for _, id := range []int64{input.FromWarehouseID, input.ToWarehouseID} {
		warehouse, err := s.warehouses.WarehouseByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, &core.NotFoundError{Entity: "warehouse", ID: id}
		}
		if err != nil {
			return nil, err
		}
		if !warehouse.IsActive {
			return nil, &core.NotFoundError{Entity: "warehouse", ID: id}
		}
	}

	for _, item := range input.Items {
		product, err := s.products.ProductByID(ctx, item.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, &core.NotFoundError{Entity: "product", ID: item.ProductID}
		}
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, &core.NotFoundError{Entity: "product", ID: item.ProductID}
		}
	}

	now := time.Now()
	transfer := &models.StockTransfer{
		FromWarehouseID: input.FromWarehouseID,
		ToWarehouseID:   input.ToWarehouseID,
		RequestedBy:     requestedBy,
		Status:          models.TransferPending,
		TransferDate:    now,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, item := range input.Items {
		transfer.Items = append(transfer.Items, models.StockTransferItem{
			ProductID:         item.ProductID,
			RequestedQuantity: item.Quantity,
			CreatedAt:         now,
		})
	}

	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		number, nerr := core.NextDocumentNumber("TR", tx.TransferNumberTaken)
		if nerr != nil {
			return nerr
		}
		transfer.TransferNumber = number

		var shortages []core.StockShortage
		for _, item := range transfer.Items {
			rerr := s.ledger.Reserve(tx, item.ProductID, transfer.FromWarehouseID, item.RequestedQuantity, number, requestedBy)
			var insufficient *core.InsufficientStockError
			if errors.As(rerr, &insufficient) {
				shortages = append(shortages, insufficient.Shortages...)
				continue
			}
			if rerr != nil {
				return rerr
			}
		}
		if len(shortages) > 0 {
			return &core.InsufficientStockError{Shortages: shortages}
		}

		return tx.CreateTransfer(transfer)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateRows(ctx, transfer)
	s.log.Info("stock transfer created",
		zap.String("transfer_number", transfer.TransferNumber),
		zap.Int64("from_warehouse_id", transfer.FromWarehouseID),
		zap.Int64("to_warehouse_id", transfer.ToWarehouseID))
	return transfer, nil
}

// AdvanceTransfer moves the transfer one step forward. PENDING ->
// IN_TRANSIT has no ledger effect; stock stays reserved at the source.
// IN_TRANSIT -> COMPLETED commits each item's transferred quantity at the
// source, releases any short-shipped remainder, and increments the
// destination, all in the same transaction. The advancing user is
// recorded as approver on pickup.
func (s *Service) AdvanceTransfer(ctx context.Context, transferID int64, next models.TransferStatus, fulfilled []FulfilledItem, actor int64) (*models.StockTransfer, error) {
	var transfer *models.StockTransfer
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		transfer, err = tx.TransferForUpdate(transferID)
		if errors.Is(err, store.ErrNotFound) {
			return &core.NotFoundError{Entity: "transfer", ID: transferID}
		}
		if err != nil {
			return err
		}

		switch {
		case transfer.Status == models.TransferPending && next == models.TransferInTransit:
			transfer.Status = models.TransferInTransit
			transfer.ApprovedBy = &actor

		case transfer.Status == models.TransferInTransit && next == models.TransferCompleted:
			if cerr := s.completeItems(tx, transfer, fulfilled, actor); cerr != nil {
				return cerr
			}
			transfer.Status = models.TransferCompleted

		default:
			return &core.InvalidStateTransitionError{Entity: "transfer", From: string(transfer.Status), To: string(next)}
		}

		transfer.UpdatedAt = time.Now()
		return tx.SaveTransfer(transfer)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateRows(ctx, transfer)
	s.log.Info("stock transfer advanced",
		zap.String("transfer_number", transfer.TransferNumber),
		zap.String("status", string(transfer.Status)))
	return transfer, nil
}

// CancelTransfer releases every reservation at the source and marks the
// transfer CANCELLED. Valid from PENDING or IN_TRANSIT only; cancelled
// transfers are kept as an audit record.
func (s *Service) CancelTransfer(ctx context.Context, transferID, actor int64) (*models.StockTransfer, error) {
	var transfer *models.StockTransfer
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		transfer, err = tx.TransferForUpdate(transferID)
		if errors.Is(err, store.ErrNotFound) {
			return &core.NotFoundError{Entity: "transfer", ID: transferID}
		}
		if err != nil {
			return err
		}
		if transfer.Status != models.TransferPending && transfer.Status != models.TransferInTransit {
			return &core.InvalidStateTransitionError{Entity: "transfer", From: string(transfer.Status), To: string(models.TransferCancelled)}
		}

		for _, item := range transfer.Items {
			if rerr := s.ledger.Release(tx, item.ProductID, transfer.FromWarehouseID, item.RequestedQuantity, transfer.TransferNumber, actor); rerr != nil {
				return rerr
			}
		}
		transfer.Status = models.TransferCancelled
		transfer.UpdatedAt = time.Now()
		return tx.SaveTransfer(transfer)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateRows(ctx, transfer)
	s.log.Info("stock transfer cancelled", zap.String("transfer_number", transfer.TransferNumber))
	return transfer, nil
}

func (s *Service) completeItems(tx store.Tx, transfer *models.StockTransfer, fulfilled []FulfilledItem, actor int64) error {
	overrides := make(map[int64]int64, len(fulfilled))
	for _, f := range fulfilled {
		overrides[f.ItemID] = f.TransferredQuantity
	}

	for i := range transfer.Items {
		item := &transfer.Items[i]

		transferred := item.RequestedQuantity
		if override, ok := overrides[item.ID]; ok {
			if override < 0 || override > item.RequestedQuantity {
				return &core.ValidationError{Field: "transferred_quantity",
					Reason: "must be between 0 and the requested quantity"}
			}
			transferred = override
			delete(overrides, item.ID)
		}

		if transferred > 0 {
			if err := s.ledger.Transfer(tx, item.ProductID, transfer.FromWarehouseID, transfer.ToWarehouseID,
				transferred, transfer.TransferNumber, actor); err != nil {
				return err
			}
		}
		if remainder := item.RequestedQuantity - transferred; remainder > 0 {
			if err := s.ledger.Release(tx, item.ProductID, transfer.FromWarehouseID, remainder,
				transfer.TransferNumber, actor); err != nil {
				return err
			}
		}

		item.TransferredQuantity = &transferred
		if err := tx.SaveTransferItem(item); err != nil {
			return err
		}
	}

	for itemID := range overrides {
		return &core.ValidationError{Field: "item_id",
			Reason: fmt.Sprintf("item %d does not belong to this transfer", itemID)}
	}
	return nil
}

func (s *Service) invalidateRows(ctx context.Context, transfer *models.StockTransfer) {
	rows := make([]inventory.RowRef, 0, 2*len(transfer.Items))
	for _, item := range transfer.Items {
		rows = append(rows,
			inventory.RowRef{ProductID: item.ProductID, WarehouseID: transfer.FromWarehouseID},
			inventory.RowRef{ProductID: item.ProductID, WarehouseID: transfer.ToWarehouseID})
	}
	s.ledger.InvalidateAvailability(ctx, rows...)
}
