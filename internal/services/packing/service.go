// Package packing drives the fulfillment workflow for online sales:
//
//	PENDING -> IN_PROGRESS -> PACKED -> SHIPPED
//
// Transitions are strictly forward, one step at a time. Skipping a step
// or moving backwards is rejected. The workflow never touches the
// inventory ledger; stock is settled by the owning sale.
package packing

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"kerani-system/internal/core"
	"kerani-system/internal/database/models"
	"kerani-system/internal/store"
)

// AdvanceInput carries the step metadata. TrackingInfo is only consumed
// on the PACKED -> SHIPPED step; Notes may be set on any step.
type AdvanceInput struct {
	TrackingInfo *string
	Notes        *string
}

type Service struct {
	store store.Store
	log   *zap.Logger
}

func NewService(st store.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: st, log: log}
}

// AdvancePacking moves the record to the next status in the workflow.
// The advancing user is recorded as packer when work starts; packed and
// shipped timestamps are stamped on their respective steps.
func (s *Service) AdvancePacking(ctx context.Context, packingID int64, next models.PackingStatus, input AdvanceInput, actor int64) (*models.Packing, error) {
	var packing *models.Packing
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		packing, err = tx.PackingForUpdate(packingID)
		if errors.Is(err, store.ErrNotFound) {
			return &core.NotFoundError{Entity: "packing", ID: packingID}
		}
		if err != nil {
			return err
		}

		now := time.Now()
		switch {
		case packing.Status == models.PackingPending && next == models.PackingInProgress:
			packing.Status = models.PackingInProgress
			packing.PackerID = &actor

		case packing.Status == models.PackingInProgress && next == models.PackingPacked:
			packing.Status = models.PackingPacked
			packing.PackedDate = &now

		case packing.Status == models.PackingPacked && next == models.PackingShipped:
			packing.Status = models.PackingShipped
			packing.ShippedDate = &now
			if input.TrackingInfo != nil {
				packing.TrackingInfo = input.TrackingInfo
			}

		default:
			return &core.InvalidStateTransitionError{Entity: "packing", From: string(packing.Status), To: string(next)}
		}

		if input.Notes != nil {
			packing.Notes = input.Notes
		}
		packing.UpdatedAt = now
		return tx.SavePacking(packing)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("packing advanced",
		zap.Int64("packing_id", packing.ID),
		zap.Int64("sale_id", packing.SaleID),
		zap.String("status", string(packing.Status)))
	return packing, nil
}
