package transfers

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
	mem.AddWarehouse(models.Warehouse{ID: 1, WarehouseCode: "WH-A", WarehouseName: "Alpha", Kind: models.WarehousePhysical, IsActive: true})
	mem.AddWarehouse(models.Warehouse{ID: 2, WarehouseCode: "WH-B", WarehouseName: "Bravo", Kind: models.WarehousePhysical, IsActive: true})
	mem.AddProduct(models.Product{ID: 1, SKU: "SKU-1", ProductName: "Widget", CostPrice: "4.00", RetailPrice: "10.00", WholesalePrice: "8.00", IsActive: true})

	ledger := inventory.NewLedger(mem, nil, nil)
	return NewService(mem, ledger, mem, mem, nil), mem
}

func createTransfer(t *testing.T, svc *Service, qty int64) *models.StockTransfer {
	t.Helper()
	transfer, err := svc.CreateStockTransfer(context.Background(), TransferInput{
		FromWarehouseID: 1,
		ToWarehouseID:   2,
		Items:           []ItemInput{{ProductID: 1, Quantity: qty}},
	}, 7)
	require.NoError(t, err)
	return transfer
}

func TestCreateTransferReservesAtSource(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 20, 0)

	transfer := createTransfer(t, svc, 5)

	assert.Equal(t, models.TransferPending, transfer.Status)
	assert.Regexp(t, `^TR-\d{8}-[0-9A-F]{8}$`, transfer.TransferNumber)
	assert.Equal(t, int64(7), transfer.RequestedBy)

	src, _ := mem.InventorySnapshot(1, 1)
	assert.Equal(t, int64(20), src.Quantity)
	assert.Equal(t, int64(5), src.ReservedQuantity)
}

func TestCreateTransferRejectsSameWarehouse(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateStockTransfer(context.Background(), TransferInput{
		FromWarehouseID: 1,
		ToWarehouseID:   1,
		Items:           []ItemInput{{ProductID: 1, Quantity: 1}},
	}, 7)

	var same *core.SameWarehouseError
	require.ErrorAs(t, err, &same)
}

func TestCreateTransferInsufficientStock(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 3, 0)

	_, err := svc.CreateStockTransfer(context.Background(), TransferInput{
		FromWarehouseID: 1,
		ToWarehouseID:   2,
		Items:           []ItemInput{{ProductID: 1, Quantity: 5}},
	}, 7)

	var insufficient *core.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(3), insufficient.Shortages[0].Available)

	src, _ := mem.InventorySnapshot(1, 1)
	assert.Equal(t, int64(0), src.ReservedQuantity)
}

func TestCompleteTransferMovesStock(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 20, 0)
	transfer := createTransfer(t, svc, 5)

	_, err := svc.AdvanceTransfer(context.Background(), transfer.ID, models.TransferInTransit, nil, 8)
	require.NoError(t, err)

	completed, err := svc.AdvanceTransfer(context.Background(), transfer.ID, models.TransferCompleted, nil, 8)
	require.NoError(t, err)
	assert.Equal(t, models.TransferCompleted, completed.Status)
	require.NotNil(t, completed.ApprovedBy)
	assert.Equal(t, int64(8), *completed.ApprovedBy)
	require.NotNil(t, completed.Items[0].TransferredQuantity)
	assert.Equal(t, int64(5), *completed.Items[0].TransferredQuantity)

	src, _ := mem.InventorySnapshot(1, 1)
	dst, _ := mem.InventorySnapshot(1, 2)
	assert.Equal(t, int64(15), src.Quantity)
	assert.Equal(t, int64(0), src.ReservedQuantity)
	assert.Equal(t, int64(5), dst.Quantity)
	assert.Equal(t, int64(0), dst.ReservedQuantity)
}

func TestCompleteTransferShortShipment(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 20, 0)
	transfer := createTransfer(t, svc, 5)

	_, err := svc.AdvanceTransfer(context.Background(), transfer.ID, models.TransferInTransit, nil, 8)
	require.NoError(t, err)

	completed, err := svc.AdvanceTransfer(context.Background(), transfer.ID, models.TransferCompleted,
		[]FulfilledItem{{ItemID: transfer.Items[0].ID, TransferredQuantity: 3}}, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(3), *completed.Items[0].TransferredQuantity)

	// 3 moved, the short-shipped 2 released back to source availability.
	src, _ := mem.InventorySnapshot(1, 1)
	dst, _ := mem.InventorySnapshot(1, 2)
	assert.Equal(t, int64(17), src.Quantity)
	assert.Equal(t, int64(0), src.ReservedQuantity)
	assert.Equal(t, int64(3), dst.Quantity)
	assert.Equal(t, int64(20), src.Quantity+dst.Quantity)
}

func TestTransferredQuantitySurvivesReload(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 20, 0)
	transfer := createTransfer(t, svc, 5)

	_, err := svc.AdvanceTransfer(context.Background(), transfer.ID, models.TransferInTransit, nil, 8)
	require.NoError(t, err)
	_, err = svc.AdvanceTransfer(context.Background(), transfer.ID, models.TransferCompleted,
		[]FulfilledItem{{ItemID: transfer.Items[0].ID, TransferredQuantity: 3}}, 8)
	require.NoError(t, err)

	// Reload from the store, not from the returned struct: the item write
	// must have gone through the transaction, not just mutated memory.
	snap, ok := mem.TransferSnapshot(transfer.ID)
	require.True(t, ok)
	assert.Equal(t, models.TransferCompleted, snap.Status)
	require.Len(t, snap.Items, 1)
	require.NotNil(t, snap.Items[0].TransferredQuantity)
	assert.Equal(t, int64(3), *snap.Items[0].TransferredQuantity)
}

func TestCompleteTransferRejectsUnknownItem(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 20, 0)
	transfer := createTransfer(t, svc, 5)

	_, err := svc.AdvanceTransfer(context.Background(), transfer.ID, models.TransferInTransit, nil, 8)
	require.NoError(t, err)

	_, err = svc.AdvanceTransfer(context.Background(), transfer.ID, models.TransferCompleted,
		[]FulfilledItem{{ItemID: 9999, TransferredQuantity: 3}}, 8)
	var invalid *core.ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "item_id", invalid.Field)

	// Nothing moved: the transfer stays in transit with its reservation.
	snap, _ := mem.TransferSnapshot(transfer.ID)
	assert.Equal(t, models.TransferInTransit, snap.Status)
	src, _ := mem.InventorySnapshot(1, 1)
	assert.Equal(t, int64(20), src.Quantity)
	assert.Equal(t, int64(5), src.ReservedQuantity)
}

func TestCompleteTransferRejectsOverfulfillment(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 20, 0)
	transfer := createTransfer(t, svc, 5)

	_, err := svc.AdvanceTransfer(context.Background(), transfer.ID, models.TransferInTransit, nil, 8)
	require.NoError(t, err)

	_, err = svc.AdvanceTransfer(context.Background(), transfer.ID, models.TransferCompleted,
		[]FulfilledItem{{ItemID: transfer.Items[0].ID, TransferredQuantity: 9}}, 8)
	var invalid *core.ValidationError
	require.ErrorAs(t, err, &invalid)

	snap, _ := mem.TransferSnapshot(transfer.ID)
	assert.Equal(t, models.TransferInTransit, snap.Status)
}

func TestAdvanceTransferSkipsNoSteps(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 20, 0)
	transfer := createTransfer(t, svc, 5)

	_, err := svc.AdvanceTransfer(context.Background(), transfer.ID, models.TransferCompleted, nil, 8)
	var transition *core.InvalidStateTransitionError
	require.ErrorAs(t, err, &transition)

	src, _ := mem.InventorySnapshot(1, 1)
	assert.Equal(t, int64(5), src.ReservedQuantity)
}

func TestCancelPendingTransferRestoresAvailability(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 20, 0)
	transfer := createTransfer(t, svc, 5)

	cancelled, err := svc.CancelTransfer(context.Background(), transfer.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, models.TransferCancelled, cancelled.Status)

	src, _ := mem.InventorySnapshot(1, 1)
	assert.Equal(t, int64(20), src.Quantity)
	assert.Equal(t, int64(0), src.ReservedQuantity)

	// The record stays for auditing; a second cancellation is invalid.
	_, err = svc.CancelTransfer(context.Background(), transfer.ID, 7)
	var transition *core.InvalidStateTransitionError
	require.ErrorAs(t, err, &transition)
}

func TestCancelInTransitTransfer(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 20, 0)
	transfer := createTransfer(t, svc, 5)

	_, err := svc.AdvanceTransfer(context.Background(), transfer.ID, models.TransferInTransit, nil, 8)
	require.NoError(t, err)

	_, err = svc.CancelTransfer(context.Background(), transfer.ID, 8)
	require.NoError(t, err)

	src, _ := mem.InventorySnapshot(1, 1)
	assert.Equal(t, int64(0), src.ReservedQuantity)
}

func TestCancelCompletedTransferFails(t *testing.T) {
	svc, mem := newTestService()
	mem.SeedInventory(1, 1, 20, 0)
	transfer := createTransfer(t, svc, 5)

	_, err := svc.AdvanceTransfer(context.Background(), transfer.ID, models.TransferInTransit, nil, 8)
	require.NoError(t, err)
	_, err = svc.AdvanceTransfer(context.Background(), transfer.ID, models.TransferCompleted, nil, 8)
	require.NoError(t, err)

	_, err = svc.CancelTransfer(context.Background(), transfer.ID, 8)
	var transition *core.InvalidStateTransitionError
	require.ErrorAs(t, err, &transition)
}
