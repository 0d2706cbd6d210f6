package packing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kerani-system/internal/core"
	"kerani-system/internal/database/models"
	"kerani-system/internal/store/memory"
)

func newTestService() (*Service, *memory.Memory) {
	mem := memory.New()
	mem.SeedPacking(models.Packing{ID: 1, SaleID: 100, Status: models.PackingPending})
	return NewService(mem, nil), mem
}

func ptr[T any](v T) *T { return &v }

func TestAdvanceThroughFullWorkflow(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	started, err := svc.AdvancePacking(ctx, 1, models.PackingInProgress, AdvanceInput{}, 7)
	require.NoError(t, err)
	assert.Equal(t, models.PackingInProgress, started.Status)
	require.NotNil(t, started.PackerID)
	assert.Equal(t, int64(7), *started.PackerID)
	assert.Nil(t, started.PackedDate)

	packed, err := svc.AdvancePacking(ctx, 1, models.PackingPacked, AdvanceInput{}, 7)
	require.NoError(t, err)
	assert.Equal(t, models.PackingPacked, packed.Status)
	require.NotNil(t, packed.PackedDate)
	assert.Nil(t, packed.ShippedDate)

	shipped, err := svc.AdvancePacking(ctx, 1, models.PackingShipped,
		AdvanceInput{TrackingInfo: ptr("JNE-123456")}, 7)
	require.NoError(t, err)
	assert.Equal(t, models.PackingShipped, shipped.Status)
	require.NotNil(t, shipped.ShippedDate)
	require.NotNil(t, shipped.TrackingInfo)
	assert.Equal(t, "JNE-123456", *shipped.TrackingInfo)
}

func TestAdvanceRejectsSkippedStep(t *testing.T) {
	svc, mem := newTestService()

	_, err := svc.AdvancePacking(context.Background(), 1, models.PackingShipped, AdvanceInput{}, 7)

	var transition *core.InvalidStateTransitionError
	require.ErrorAs(t, err, &transition)

	snap, _ := mem.PackingSnapshot(1)
	assert.Equal(t, models.PackingPending, snap.Status)
}

func TestAdvanceRejectsBackwardsStep(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AdvancePacking(ctx, 1, models.PackingInProgress, AdvanceInput{}, 7)
	require.NoError(t, err)

	_, err = svc.AdvancePacking(ctx, 1, models.PackingPending, AdvanceInput{}, 7)
	var transition *core.InvalidStateTransitionError
	require.ErrorAs(t, err, &transition)
}

func TestAdvanceRejectsTerminalRecord(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, next := range []models.PackingStatus{models.PackingInProgress, models.PackingPacked, models.PackingShipped} {
		_, err := svc.AdvancePacking(ctx, 1, next, AdvanceInput{}, 7)
		require.NoError(t, err)
	}

	_, err := svc.AdvancePacking(ctx, 1, models.PackingShipped, AdvanceInput{}, 7)
	var transition *core.InvalidStateTransitionError
	require.ErrorAs(t, err, &transition)
}

func TestAdvanceMissingPacking(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.AdvancePacking(context.Background(), 99, models.PackingInProgress, AdvanceInput{}, 7)

	var notFound *core.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "packing", notFound.Entity)
}

func TestAdvanceCarriesNotes(t *testing.T) {
	svc, mem := newTestService()

	_, err := svc.AdvancePacking(context.Background(), 1, models.PackingInProgress,
		AdvanceInput{Notes: ptr("fragile, double box")}, 7)
	require.NoError(t, err)

	snap, _ := mem.PackingSnapshot(1)
	require.NotNil(t, snap.Notes)
	assert.Equal(t, "fragile, double box", *snap.Notes)
}
