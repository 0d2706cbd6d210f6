package sales

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kerani-system/internal/core"
	"kerani-system/internal/database/models"
	"kerani-system/internal/services/inventory"
	"kerani-system/internal/store/memory"
)

func newTestService() (*Service, *memory.Memory) {
	mem := memory.New()
	mem.AddWarehouse(models.Warehouse{ID: 1, WarehouseCode: "WH-MAIN", WarehouseName: "Main", Kind: models.WarehousePhysical, IsActive: true})
	mem.AddWarehouse(models.Warehouse{ID: 2, WarehouseCode: "WH-WEB", WarehouseName: "Webshop", Kind: models.WarehouseOnline, IsActive: true})
	mem.AddProduct(models.Product{ID: 1, SKU: "SKU-1", ProductName: "Widget", CostPrice: "4.00", RetailPrice: "10.00", WholesalePrice: "8.00", IsActive: true})
	mem.AddProduct(models.Product{ID: 2, SKU: "SKU-2", ProductName: "Gadget", CostPrice: "9.50", RetailPrice: "25.00", WholesalePrice: "20.00", IsActive: true})
	mem.AddUser(models.User{ID: 7, Username: "ayu", Role: "CASHIER", CommissionRate: "2.50", IsActive: true})

	ledger := inventory.NewLedger(mem, nil, nil)
	return NewService(mem, ledger, mem, mem, mem, nil), mem
}

func ptr[T any](v T) *T { return &v }

func TestCreateSaleReservesStock(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 10, 0)

	sale, err := svc.CreateSale(context.Background(), SaleInput{
		WarehouseID: 1,
		SaleType:    models.SaleRetail,
		Items:       []ItemInput{{ProductID: 1, Quantity: 10}},
	}, ptr(int64(7)))
	require.NoError(t, err)

	assert.Equal(t, models.SalePending, sale.Status)
	assert.Regexp(t, `^SO-\d{8}-[0-9A-F]{8}$`, sale.SaleNumber)
	assert.Equal(t, "100.00", sale.Subtotal)
	assert.Equal(t, "100.00", sale.TotalAmount)

	persisted, ok := mem.SaleSnapshot(sale.ID)
	require.True(t, ok)
	assert.Equal(t, sale.SaleNumber, persisted.SaleNumber)
	require.Len(t, persisted.Items, 1)

	rec, _ := mem.InventorySnapshot(1, 1)
	assert.Equal(t, int64(10), rec.Quantity)
	assert.Equal(t, int64(10), rec.ReservedQuantity)
	assert.Equal(t, int64(0), rec.Available())

	// The full stock is on hold; a second sale for the same row must fail.
	_, err = svc.CreateSale(context.Background(), SaleInput{
		WarehouseID: 1,
		SaleType:    models.SaleRetail,
		Items:       []ItemInput{{ProductID: 1, Quantity: 1}},
	}, ptr(int64(7)))
	var insufficient *core.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(0), insufficient.Shortages[0].Available)
}

func TestCreateSaleRollsBackOnPartialShortage(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 10, 0)
	mem.SeedInventory(2, 1, 1, 0)

	_, err := svc.CreateSale(context.Background(), SaleInput{
		WarehouseID: 1,
		SaleType:    models.SaleRetail,
		Items: []ItemInput{
			{ProductID: 1, Quantity: 5},
			{ProductID: 2, Quantity: 3},
		},
	}, ptr(int64(7)))

	var insufficient *core.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Shortages, 1)
	assert.Equal(t, int64(2), insufficient.Shortages[0].ProductID)

	first, _ := mem.InventorySnapshot(1, 1)
	second, _ := mem.InventorySnapshot(2, 1)
	assert.Equal(t, int64(0), first.ReservedQuantity)
	assert.Equal(t, int64(0), second.ReservedQuantity)
	assert.Empty(t, mem.Movements())
}

func TestCreateSaleRejectsWrongWarehouseKind(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 2, 10, 0)

	_, err := svc.CreateSale(context.Background(), SaleInput{
		WarehouseID: 2,
		SaleType:    models.SaleRetail,
		Items:       []ItemInput{{ProductID: 1, Quantity: 1}},
	}, ptr(int64(7)))

	var mismatch *core.InvalidWarehouseForSaleTypeError
	require.ErrorAs(t, err, &mismatch)

	_, err = svc.CreateSale(context.Background(), SaleInput{
		WarehouseID: 1,
		SaleType:    models.SaleOnline,
		Items:       []ItemInput{{ProductID: 1, Quantity: 1}},
	}, ptr(int64(7)))
	require.ErrorAs(t, err, &mismatch)
}

func TestCreateSaleComputesDecimalTotals(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 100, 0)
	mem.SeedInventory(2, 1, 100, 0)

	sale, err := svc.CreateSale(context.Background(), SaleInput{
		WarehouseID:    1,
		SaleType:       models.SaleRetail,
		DiscountAmount: ptr("5.00"),
		TaxAmount:      ptr("11.55"),
		Items: []ItemInput{
			{ProductID: 1, Quantity: 3, DiscountAmount: ptr("1.50")},
			{ProductID: 2, Quantity: 2, UnitPrice: ptr("24.99")},
		},
	}, ptr(int64(7)))
	require.NoError(t, err)

	// 3*10.00 - 1.50 = 28.50, 2*24.99 = 49.98
	assert.Equal(t, "78.48", sale.Subtotal)
	assert.Equal(t, "85.03", sale.TotalAmount)
	assert.Equal(t, "4.00", sale.Items[0].CostPrice)
	assert.Equal(t, "28.50", sale.Items[0].LineTotal)
	assert.Nil(t, sale.CommissionAmount)
}

func TestCreateSaleWholesaleCommission(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 100, 0)

	sale, err := svc.CreateSale(context.Background(), SaleInput{
		WarehouseID: 1,
		SaleType:    models.SaleWholesale,
		Items:       []ItemInput{{ProductID: 1, Quantity: 10}},
	}, ptr(int64(7)))
	require.NoError(t, err)

	// Wholesale price 8.00 * 10 = 80.00, commission 2.5% = 2.00.
	assert.Equal(t, "80.00", sale.TotalAmount)
	require.NotNil(t, sale.CommissionAmount)
	assert.Equal(t, "2.00", *sale.CommissionAmount)
}

func TestCreateOnlineSaleOpensPacking(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 2, 10, 0)

	sale, err := svc.CreateSale(context.Background(), SaleInput{
		WarehouseID: 2,
		SaleType:    models.SaleOnline,
		Items:       []ItemInput{{ProductID: 1, Quantity: 2}},
	}, nil)
	require.NoError(t, err)

	packing, ok := mem.PackingForSale(sale.ID)
	require.True(t, ok)
	assert.Equal(t, models.PackingPending, packing.Status)
}

func TestCreateRetailSaleSkipsPacking(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 10, 0)

	sale, err := svc.CreateSale(context.Background(), SaleInput{
		WarehouseID: 1,
		SaleType:    models.SaleRetail,
		Items:       []ItemInput{{ProductID: 1, Quantity: 2}},
	}, ptr(int64(7)))
	require.NoError(t, err)

	_, ok := mem.PackingForSale(sale.ID)
	assert.False(t, ok)
}

func TestCompleteSaleDeductsStock(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 10, 0)

	sale, err := svc.CreateSale(context.Background(), SaleInput{
		WarehouseID: 1,
		SaleType:    models.SaleRetail,
		Items:       []ItemInput{{ProductID: 1, Quantity: 4}},
	}, ptr(int64(7)))
	require.NoError(t, err)

	completed, err := svc.CompleteSale(context.Background(), sale.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, models.SaleCompleted, completed.Status)

	rec, _ := mem.InventorySnapshot(1, 1)
	assert.Equal(t, int64(6), rec.Quantity)
	assert.Equal(t, int64(0), rec.ReservedQuantity)
}

func TestCancelSaleReleasesReservation(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 10, 0)

	sale, err := svc.CreateSale(context.Background(), SaleInput{
		WarehouseID: 1,
		SaleType:    models.SaleRetail,
		Items:       []ItemInput{{ProductID: 1, Quantity: 4}},
	}, ptr(int64(7)))
	require.NoError(t, err)

	cancelled, err := svc.CancelSale(context.Background(), sale.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, models.SaleCancelled, cancelled.Status)

	rec, _ := mem.InventorySnapshot(1, 1)
	assert.Equal(t, int64(10), rec.Quantity)
	assert.Equal(t, int64(0), rec.ReservedQuantity)

	// Cancelling again must not release a second time.
	_, err = svc.CancelSale(context.Background(), sale.ID, 7)
	var transition *core.InvalidStateTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, string(models.SaleCancelled), transition.From)
	assert.Equal(t, string(models.SaleCancelled), transition.To)
}

func TestCompleteNonPendingSaleFails(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 10, 0)

	sale, err := svc.CreateSale(context.Background(), SaleInput{
		WarehouseID: 1,
		SaleType:    models.SaleRetail,
		Items:       []ItemInput{{ProductID: 1, Quantity: 4}},
	}, ptr(int64(7)))
	require.NoError(t, err)

	_, err = svc.CompleteSale(context.Background(), sale.ID, 7)
	require.NoError(t, err)

	_, err = svc.CompleteSale(context.Background(), sale.ID, 7)
	var transition *core.InvalidStateTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, string(models.SaleCompleted), transition.From)
	assert.Equal(t, string(models.SaleCompleted), transition.To)
}

func TestRefundCompletedSale(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 10, 0)

	sale, err := svc.CreateSale(context.Background(), SaleInput{
		WarehouseID: 1,
		SaleType:    models.SaleRetail,
		Items:       []ItemInput{{ProductID: 1, Quantity: 4}},
	}, ptr(int64(7)))
	require.NoError(t, err)

	_, err = svc.CompleteSale(context.Background(), sale.ID, 7)
	require.NoError(t, err)

	refunded, err := svc.RefundSale(context.Background(), sale.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, models.SaleRefunded, refunded.Status)

	rec, _ := mem.InventorySnapshot(1, 1)
	assert.Equal(t, int64(10), rec.Quantity)

	_, err = svc.RefundSale(context.Background(), sale.ID, 7)
	var transition *core.InvalidStateTransitionError
	require.ErrorAs(t, err, &transition)
}

func TestRefundPendingSaleFails(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 10, 0)

	sale, err := svc.CreateSale(context.Background(), SaleInput{
		WarehouseID: 1,
		SaleType:    models.SaleRetail,
		Items:       []ItemInput{{ProductID: 1, Quantity: 4}},
	}, ptr(int64(7)))
	require.NoError(t, err)

	_, err = svc.RefundSale(context.Background(), sale.ID, 7)
	var transition *core.InvalidStateTransitionError
	require.ErrorAs(t, err, &transition)
}

func TestCreateSaleValidatesInput(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateSale(context.Background(), SaleInput{
		WarehouseID: 1,
		SaleType:    models.SaleRetail,
	}, ptr(int64(7)))
	var invalid *core.ValidationError
	require.ErrorAs(t, err, &invalid)

	_, err = svc.CreateSale(context.Background(), SaleInput{
		WarehouseID: 1,
		SaleType:    models.SaleRetail,
		Items:       []ItemInput{{ProductID: 1, Quantity: 0}},
	}, ptr(int64(7)))
	require.ErrorAs(t, err, &invalid)

	_, err = svc.CreateSale(context.Background(), SaleInput{
		WarehouseID: 1,
		SaleType:    models.SaleRetail,
		Items:       []ItemInput{{ProductID: 99, Quantity: 1}},
	}, ptr(int64(7)))
	var notFound *core.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "product", notFound.Entity)
}

func TestCreateSaleRejectsExcessDiscount(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 10, 0)

	_, err := svc.CreateSale(context.Background(), SaleInput{
		WarehouseID:    1,
		SaleType:       models.SaleRetail,
		DiscountAmount: ptr("999.00"),
		Items:          []ItemInput{{ProductID: 1, Quantity: 1}},
	}, ptr(int64(7)))

	var invalid *core.ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "total", invalid.Field)
}
