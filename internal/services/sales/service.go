// Package sales builds sale documents: it validates the warehouse and
// cashier, reserves ledger stock for every line, computes totals and
// commission in decimal arithmetic, and owns the sale's state machine
// (PENDING -> COMPLETED | CANCELLED, COMPLETED -> REFUNDED).
package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kerani-system/internal/core"
	"kerani-system/internal/database/models"
	"kerani-system/internal/services/inventory"
	"kerani-system/internal/store"
)

type ItemInput struct {
	ProductID      int64
	Quantity       int64
	UnitPrice      *string
	DiscountAmount *string
}

type SaleInput struct {
	WarehouseID    int64
	SaleType       models.SaleType
	CustomerName   *string
	CustomerPhone  *string
	DiscountAmount *string
	TaxAmount      *string
	Notes          *string
	Items          []ItemInput
}

type Service struct {
	store      store.Store
	ledger     *inventory.Ledger
	products   store.ProductReader
	warehouses store.WarehouseReader
	users      store.UserReader
	log        *zap.Logger
}

func NewService(st store.Store, ledger *inventory.Ledger, products store.ProductReader,
	warehouses store.WarehouseReader, users store.UserReader, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:      st,
		ledger:     ledger,
		products:   products,
		warehouses: warehouses,
		users:      users,
		log:        log,
	}
}

// CreateSale reserves stock for every line and persists the sale with its
// items in one transaction. A failure on any line rolls back every
// reservation already taken; insufficient lines are aggregated so the
// caller sees all of them.
func (s *Service) CreateSale(ctx context.Context, input SaleInput, cashierID *int64) (*models.Sale, error) {
	if len(input.Items) == 0 {
		return nil, &core.ValidationError{Field: "items", Reason: "sale must have at least one item"}
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, &core.ValidationError{Field: "quantity", Reason: "must be greater than 0"}
		}
	}

	warehouse, err := s.warehouses.WarehouseByID(ctx, input.WarehouseID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &core.NotFoundError{Entity: "warehouse", ID: input.WarehouseID}
	}
	if err != nil {
		return nil, err
	}
	if !warehouse.IsActive {
		return nil, &core.NotFoundError{Entity: "warehouse", ID: input.WarehouseID}
	}
	if err := saleTypePermitted(input.SaleType, warehouse); err != nil {
		return nil, err
	}

	products := make(map[int64]*models.Product, len(input.Items))
	for _, item := range input.Items {
		if _, ok := products[item.ProductID]; ok {
			continue
		}
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
		products[item.ProductID] = product
	}

	var cashier *models.User
	if cashierID != nil {
		cashier, err = s.users.UserByID(ctx, *cashierID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, &core.NotFoundError{Entity: "cashier", ID: *cashierID}
		}
		if err != nil {
			return nil, err
		}
		if !cashier.IsActive {
			return nil, &core.NotFoundError{Entity: "cashier", ID: *cashierID}
		}
	}

	now := time.Now()
	items, subtotal, err := buildItems(input, products)
	if err != nil {
		return nil, err
	}

	headerDiscount, err := parseAmount(input.DiscountAmount, "discount_amount")
	if err != nil {
		return nil, err
	}
	tax, err := parseAmount(input.TaxAmount, "tax_amount")
	if err != nil {
		return nil, err
	}

	total := subtotal.Sub(headerDiscount).Add(tax)
	if total.IsNegative() {
		return nil, &core.ValidationError{Field: "total", Reason: "discount exceeds sale total"}
	}

	var commission *string
	if input.SaleType == models.SaleWholesale && cashier != nil {
		rate, rerr := decimal.NewFromString(cashier.CommissionRate)
		if rerr == nil && rate.IsPositive() {
			c := total.Mul(rate).Div(decimal.NewFromInt(100)).StringFixed(2)
			commission = &c
		}
	}

	actor := int64(0)
	if cashierID != nil {
		actor = *cashierID
	}

	sale := &models.Sale{
		WarehouseID:      input.WarehouseID,
		CashierID:        cashierID,
		CustomerName:     input.CustomerName,
		CustomerPhone:    input.CustomerPhone,
		SaleType:         input.SaleType,
		Status:           models.SalePending,
		Subtotal:         subtotal.StringFixed(2),
		TaxAmount:        tax.StringFixed(2),
		DiscountAmount:   headerDiscount.StringFixed(2),
		TotalAmount:      total.StringFixed(2),
		CommissionAmount: commission,
		SaleDate:         now,
		Notes:            input.Notes,
		Items:            items,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.store.WithinTx(ctx, func(tx store.Tx) error {
		number, nerr := core.NextDocumentNumber("SO", tx.SaleNumberTaken)
		if nerr != nil {
			return nerr
		}
		sale.SaleNumber = number

		var shortages []core.StockShortage
		for _, item := range sale.Items {
			rerr := s.ledger.Reserve(tx, item.ProductID, sale.WarehouseID, item.Quantity, number, actor)
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

		if cerr := tx.CreateSale(sale); cerr != nil {
			return cerr
		}

		if warehouse.Kind == models.WarehouseOnline {
			return tx.CreatePacking(&models.Packing{
				SaleID:    sale.ID,
				Status:    models.PackingPending,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateRows(ctx, sale)
	s.log.Info("sale created",
		zap.String("sale_number", sale.SaleNumber),
		zap.Int64("warehouse_id", sale.WarehouseID),
		zap.String("sale_type", string(sale.SaleType)),
		zap.String("total", sale.TotalAmount))
	return sale, nil
}

// CompleteSale converts every reservation of a pending sale into a
// permanent deduction.
func (s *Service) CompleteSale(ctx context.Context, saleID, actor int64) (*models.Sale, error) {
	var sale *models.Sale
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		sale, err = s.pendingSale(tx, saleID, models.SaleCompleted)
		if err != nil {
			return err
		}
		for _, item := range sale.Items {
			if cerr := s.ledger.Commit(tx, item.ProductID, sale.WarehouseID, item.Quantity, sale.SaleNumber, actor); cerr != nil {
				return cerr
			}
		}
		sale.Status = models.SaleCompleted
		sale.UpdatedAt = time.Now()
		return tx.SaveSale(sale)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateRows(ctx, sale)
	s.log.Info("sale completed", zap.String("sale_number", sale.SaleNumber))
	return sale, nil
}

// CancelSale releases every reservation of a pending sale. Cancelling an
// already terminal sale is an InvalidStateTransition, never a second
// release.
func (s *Service) CancelSale(ctx context.Context, saleID, actor int64) (*models.Sale, error) {
	var sale *models.Sale
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		sale, err = s.pendingSale(tx, saleID, models.SaleCancelled)
		if err != nil {
			return err
		}
		for _, item := range sale.Items {
			if rerr := s.ledger.Release(tx, item.ProductID, sale.WarehouseID, item.Quantity, sale.SaleNumber, actor); rerr != nil {
				return rerr
			}
		}
		sale.Status = models.SaleCancelled
		sale.UpdatedAt = time.Now()
		return tx.SaveSale(sale)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateRows(ctx, sale)
	s.log.Info("sale cancelled", zap.String("sale_number", sale.SaleNumber))
	return sale, nil
}

// RefundSale returns a completed sale's stock to the warehouse and marks
// the sale REFUNDED, which is terminal.
func (s *Service) RefundSale(ctx context.Context, saleID, actor int64) (*models.Sale, error) {
	var sale *models.Sale
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		sale, err = tx.SaleForUpdate(saleID)
		if errors.Is(err, store.ErrNotFound) {
			return &core.NotFoundError{Entity: "sale", ID: saleID}
		}
		if err != nil {
			return err
		}
		if sale.Status != models.SaleCompleted {
			return &core.InvalidStateTransitionError{Entity: "sale", From: string(sale.Status), To: string(models.SaleRefunded)}
		}
		for _, item := range sale.Items {
			if rerr := s.ledger.Return(tx, item.ProductID, sale.WarehouseID, item.Quantity, sale.SaleNumber, actor); rerr != nil {
				return rerr
			}
		}
		sale.Status = models.SaleRefunded
		sale.UpdatedAt = time.Now()
		return tx.SaveSale(sale)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateRows(ctx, sale)
	s.log.Info("sale refunded", zap.String("sale_number", sale.SaleNumber))
	return sale, nil
}

func (s *Service) pendingSale(tx store.Tx, saleID int64, next models.SaleStatus) (*models.Sale, error) {
	sale, err := tx.SaleForUpdate(saleID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &core.NotFoundError{Entity: "sale", ID: saleID}
	}
	if err != nil {
		return nil, err
	}
	if sale.Status != models.SalePending {
		return nil, &core.InvalidStateTransitionError{Entity: "sale", From: string(sale.Status), To: string(next)}
	}
	return sale, nil
}

func (s *Service) invalidateRows(ctx context.Context, sale *models.Sale) {
	rows := make([]inventory.RowRef, 0, len(sale.Items))
	for _, item := range sale.Items {
		rows = append(rows, inventory.RowRef{ProductID: item.ProductID, WarehouseID: sale.WarehouseID})
	}
	s.ledger.InvalidateAvailability(ctx, rows...)
}

func saleTypePermitted(saleType models.SaleType, warehouse *models.Warehouse) error {
	switch saleType {
	case models.SaleRetail, models.SaleWholesale:
		if warehouse.Kind != models.WarehousePhysical {
			return &core.InvalidWarehouseForSaleTypeError{
				WarehouseID:   warehouse.ID,
				WarehouseKind: string(warehouse.Kind),
				SaleType:      string(saleType),
			}
		}
	case models.SaleOnline:
		if warehouse.Kind != models.WarehouseOnline {
			return &core.InvalidWarehouseForSaleTypeError{
				WarehouseID:   warehouse.ID,
				WarehouseKind: string(warehouse.Kind),
				SaleType:      string(saleType),
			}
		}
	default:
		return &core.ValidationError{Field: "sale_type", Reason: fmt.Sprintf("unknown sale type %q", saleType)}
	}
	return nil
}

// buildItems prices each line, snapshotting cost price from the product at
// this instant, and returns the items with the decimal subtotal.
func buildItems(input SaleInput, products map[int64]*models.Product) ([]models.SaleItem, decimal.Decimal, error) {
	items := make([]models.SaleItem, 0, len(input.Items))
	subtotal := decimal.Zero
	now := time.Now()

	for _, in := range input.Items {
		product := products[in.ProductID]

		unitPrice, err := resolveUnitPrice(in, product, input.SaleType)
		if err != nil {
			return nil, decimal.Zero, err
		}
		discount, err := parseAmount(in.DiscountAmount, "item discount_amount")
		if err != nil {
			return nil, decimal.Zero, err
		}

		lineTotal := unitPrice.Mul(decimal.NewFromInt(in.Quantity)).Sub(discount)
		if lineTotal.IsNegative() {
			return nil, decimal.Zero, &core.ValidationError{Field: "item discount_amount", Reason: "exceeds line amount"}
		}
		subtotal = subtotal.Add(lineTotal)

		items = append(items, models.SaleItem{
			ProductID:      in.ProductID,
			Quantity:       in.Quantity,
			UnitPrice:      unitPrice.StringFixed(2),
			DiscountAmount: discount.StringFixed(2),
			LineTotal:      lineTotal.StringFixed(2),
			CostPrice:      product.CostPrice,
			CreatedAt:      now,
		})
	}
	return items, subtotal, nil
}

// resolveUnitPrice takes the explicit price when the caller supplies one,
// otherwise the product's price for the sale type.
func resolveUnitPrice(in ItemInput, product *models.Product, saleType models.SaleType) (decimal.Decimal, error) {
	if in.UnitPrice != nil {
		price, err := decimal.NewFromString(*in.UnitPrice)
		if err != nil || price.IsNegative() {
			return decimal.Zero, &core.ValidationError{Field: "unit_price", Reason: "must be a non-negative decimal"}
		}
		return price, nil
	}

	raw := product.RetailPrice
	if saleType == models.SaleWholesale {
		raw = product.WholesalePrice
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &core.InvariantViolationError{ProductID: product.ID,
			Detail: fmt.Sprintf("unparseable catalog price %q", raw)}
	}
	return price, nil
}

func parseAmount(raw *string, field string) (decimal.Decimal, error) {
	if raw == nil || *raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(*raw)
	if err != nil || amount.IsNegative() {
		return decimal.Zero, &core.ValidationError{Field: field, Reason: "must be a non-negative decimal"}
	}
	return amount, nil
}
