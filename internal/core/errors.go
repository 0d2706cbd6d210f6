// Package core holds the typed errors shared by the fulfillment engines.
// Handlers translate these to HTTP responses; the engines themselves never
// swallow an error that changed state.
package core

import (
	"fmt"
	"strings"
)

// NotFoundError covers referential failures: a product, warehouse, user,
// sale, transfer or packing record that does not exist or is inactive
// where an active one is required.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ValidationError rejects bad input shape before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StockShortage describes one line item that could not be reserved.
type StockShortage struct {
	ProductID   int64 `json:"product_id"`
	WarehouseID int64 `json:"warehouse_id"`
	Requested   int64 `json:"requested"`
	Available   int64 `json:"available"`
}

// InsufficientStockError aggregates every failing line of a multi-item
// request so the caller sees all shortages, not just the first.
type InsufficientStockError struct {
	Shortages []StockShortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("product %d: requested %d, available %d", s.ProductID, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// InvalidWarehouseForSaleTypeError flags a sale type the warehouse kind
// does not permit.
type InvalidWarehouseForSaleTypeError struct {
	WarehouseID   int64
	WarehouseKind string
	SaleType      string
}

func (e *InvalidWarehouseForSaleTypeError) Error() string {
	return fmt.Sprintf("sale type %s not permitted for %s warehouse %d", e.SaleType, e.WarehouseKind, e.WarehouseID)
}

// SameWarehouseError rejects a transfer whose source and destination match.
type SameWarehouseError struct {
	WarehouseID int64
}

func (e *SameWarehouseError) Error() string {
	return fmt.Sprintf("cannot transfer stock from warehouse %d to itself", e.WarehouseID)
}

// InvalidStateTransitionError rejects a transition from a terminal or
// incompatible state. Calling cancel twice lands here, not in a second
// release.
type InvalidStateTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Entity, e.From, e.To)
}

// BelowReservedError protects in-flight reservations from stock-take
// corrections that would undercut them.
type BelowReservedError struct {
	ProductID   int64
	WarehouseID int64
	NewQuantity int64
	Reserved    int64
}

func (e *BelowReservedError) Error() string {
	return fmt.Sprintf("adjustment to %d is below reserved quantity %d for product %d in warehouse %d",
		e.NewQuantity, e.Reserved, e.ProductID, e.WarehouseID)
}

// InvariantViolationError indicates a bug or a race: a ledger mutation
// that would drive quantity or reserved below zero. Always surfaced,
// never clamped.
type InvariantViolationError struct {
	ProductID   int64
	WarehouseID int64
	Detail      string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("ledger invariant violated for product %d in warehouse %d: %s", e.ProductID, e.WarehouseID, e.Detail)
}
