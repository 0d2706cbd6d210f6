// Package memory implements store.Store and the catalog readers on plain
// maps. The engines' tests run against it; WithinTx snapshots the state
// and discards the snapshot on error, matching the rollback semantics of
// the Postgres store.
package memory

import (
	"context"
	"sync"
	"time"

	"kerani-system/internal/database/models"
	"kerani-system/internal/store"
)

type invKey struct {
	productID   int64
	warehouseID int64
}

type state struct {
	inventory map[invKey]models.InventoryRecord
	movements []models.StockMovement
	sales     map[int64]models.Sale
	transfers map[int64]models.StockTransfer
	packings  map[int64]models.Packing
	nextID    int64
}

type Memory struct {
	mu    sync.Mutex
	state state

	products   map[int64]models.Product
	warehouses map[int64]models.Warehouse
	users      map[int64]models.User
}

func New() *Memory {
	return &Memory{
		state: state{
			inventory: make(map[invKey]models.InventoryRecord),
			sales:     make(map[int64]models.Sale),
			transfers: make(map[int64]models.StockTransfer),
			packings:  make(map[int64]models.Packing),
			nextID:    1,
		},
		products:   make(map[int64]models.Product),
		warehouses: make(map[int64]models.Warehouse),
		users:      make(map[int64]models.User),
	}
}

// --- Seeding and inspection helpers ---

func (m *Memory) AddProduct(p models.Product) {
	m.products[p.ID] = p
}

func (m *Memory) AddWarehouse(w models.Warehouse) {
	m.warehouses[w.ID] = w
}

func (m *Memory) AddUser(u models.User) {
	m.users[u.ID] = u
}

func (m *Memory) SeedInventory(productID, warehouseID, quantity, reserved int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.state.nextID
	m.state.nextID++
	m.state.inventory[invKey{productID, warehouseID}] = models.InventoryRecord{
		ID:               id,
		ProductID:        productID,
		WarehouseID:      warehouseID,
		Quantity:         quantity,
		ReservedQuantity: reserved,
		LastUpdated:      time.Now(),
	}
}

func (m *Memory) InventorySnapshot(productID, warehouseID int64) (models.InventoryRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.state.inventory[invKey{productID, warehouseID}]
	return rec, ok
}

func (m *Memory) Movements() []models.StockMovement {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.StockMovement, len(m.state.movements))
	copy(out, m.state.movements)
	return out
}

func (m *Memory) SaleSnapshot(id int64) (models.Sale, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sale, ok := m.state.sales[id]
	if ok {
		sale.Items = append([]models.SaleItem(nil), sale.Items...)
	}
	return sale, ok
}

func (m *Memory) TransferSnapshot(id int64) (models.StockTransfer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.state.transfers[id]
	if ok {
		t.Items = append([]models.StockTransferItem(nil), t.Items...)
	}
	return t, ok
}

func (m *Memory) PackingSnapshot(id int64) (models.Packing, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.state.packings[id]
	return p, ok
}

func (m *Memory) PackingForSale(saleID int64) (models.Packing, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.state.packings {
		if p.SaleID == saleID {
			return p, true
		}
	}
	return models.Packing{}, false
}

func (m *Memory) SeedPacking(p models.Packing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.state.nextID
		m.state.nextID++
	}
	m.state.packings[p.ID] = p
}

func (m *Memory) SeedSale(sale models.Sale) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sale.ID == 0 {
		sale.ID = m.state.nextID
		m.state.nextID++
	}
	m.state.sales[sale.ID] = sale
}

// --- Catalog readers ---

func (m *Memory) ProductByID(_ context.Context, id int64) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) WarehouseByID(_ context.Context, id int64) (*models.Warehouse, error) {
	w, ok := m.warehouses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &w, nil
}

func (m *Memory) UserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

// --- store.Store ---

func (m *Memory) Inventory(_ context.Context, productID, warehouseID int64) (*models.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.state.inventory[invKey{productID, warehouseID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &rec, nil
}

func (m *Memory) WithinTx(_ context.Context, fn func(tx store.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := cloneState(m.state)
	if err := fn(&tx{state: &work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func cloneState(s state) state {
	out := state{
		inventory: make(map[invKey]models.InventoryRecord, len(s.inventory)),
		movements: append([]models.StockMovement(nil), s.movements...),
		sales:     make(map[int64]models.Sale, len(s.sales)),
		transfers: make(map[int64]models.StockTransfer, len(s.transfers)),
		packings:  make(map[int64]models.Packing, len(s.packings)),
		nextID:    s.nextID,
	}
	for k, v := range s.inventory {
		out.inventory[k] = v
	}
	for k, v := range s.sales {
		v.Items = append([]models.SaleItem(nil), v.Items...)
		out.sales[k] = v
	}
	for k, v := range s.transfers {
		v.Items = append([]models.StockTransferItem(nil), v.Items...)
		out.transfers[k] = v
	}
	for k, v := range s.packings {
		out.packings[k] = v
	}
	return out
}

// --- Transaction view ---

type tx struct {
	state *state
}

func (t *tx) allocID() int64 {
	id := t.state.nextID
	t.state.nextID++
	return id
}

func (t *tx) InventoryForUpdate(productID, warehouseID int64) (*models.InventoryRecord, error) {
	rec, ok := t.state.inventory[invKey{productID, warehouseID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &rec, nil
}

func (t *tx) CreateInventory(rec *models.InventoryRecord) error {
	if rec.ID == 0 {
		rec.ID = t.allocID()
	}
	t.state.inventory[invKey{rec.ProductID, rec.WarehouseID}] = *rec
	return nil
}

func (t *tx) SaveInventory(rec *models.InventoryRecord) error {
	t.state.inventory[invKey{rec.ProductID, rec.WarehouseID}] = *rec
	return nil
}

func (t *tx) AddMovement(m *models.StockMovement) error {
	if m.ID == 0 {
		m.ID = t.allocID()
	}
	t.state.movements = append(t.state.movements, *m)
	return nil
}

func (t *tx) CreateSale(sale *models.Sale) error {
	if sale.ID == 0 {
		sale.ID = t.allocID()
	}
	for i := range sale.Items {
		if sale.Items[i].ID == 0 {
			sale.Items[i].ID = t.allocID()
		}
		sale.Items[i].SaleID = sale.ID
	}
	stored := *sale
	stored.Items = append([]models.SaleItem(nil), sale.Items...)
	t.state.sales[sale.ID] = stored
	return nil
}

func (t *tx) SaleForUpdate(id int64) (*models.Sale, error) {
	sale, ok := t.state.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	sale.Items = append([]models.SaleItem(nil), sale.Items...)
	return &sale, nil
}

func (t *tx) SaveSale(sale *models.Sale) error {
	stored := *sale
	stored.Items = append([]models.SaleItem(nil), sale.Items...)
	t.state.sales[sale.ID] = stored
	return nil
}

func (t *tx) SaleNumberTaken(number string) (bool, error) {
	for _, s := range t.state.sales {
		if s.SaleNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) CreateTransfer(transfer *models.StockTransfer) error {
	if transfer.ID == 0 {
		transfer.ID = t.allocID()
	}
	for i := range transfer.Items {
		if transfer.Items[i].ID == 0 {
			transfer.Items[i].ID = t.allocID()
		}
		transfer.Items[i].TransferID = transfer.ID
	}
	stored := *transfer
	stored.Items = append([]models.StockTransferItem(nil), transfer.Items...)
	t.state.transfers[transfer.ID] = stored
	return nil
}

func (t *tx) TransferForUpdate(id int64) (*models.StockTransfer, error) {
	transfer, ok := t.state.transfers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	transfer.Items = append([]models.StockTransferItem(nil), transfer.Items...)
	return &transfer, nil
}

// SaveTransfer updates the header only, matching the gorm store: item
// mutations on the passed struct are not persisted here.
func (t *tx) SaveTransfer(transfer *models.StockTransfer) error {
	stored := *transfer
	if existing, ok := t.state.transfers[transfer.ID]; ok {
		stored.Items = append([]models.StockTransferItem(nil), existing.Items...)
	} else {
		stored.Items = append([]models.StockTransferItem(nil), transfer.Items...)
	}
	t.state.transfers[transfer.ID] = stored
	return nil
}

func (t *tx) SaveTransferItem(item *models.StockTransferItem) error {
	transfer, ok := t.state.transfers[item.TransferID]
	if !ok {
		return store.ErrNotFound
	}
	items := append([]models.StockTransferItem(nil), transfer.Items...)
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = *item
			transfer.Items = items
			t.state.transfers[item.TransferID] = transfer
			return nil
		}
	}
	return store.ErrNotFound
}

func (t *tx) TransferNumberTaken(number string) (bool, error) {
	for _, tr := range t.state.transfers {
		if tr.TransferNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) CreatePacking(p *models.Packing) error {
	if p.ID == 0 {
		p.ID = t.allocID()
	}
	t.state.packings[p.ID] = *p
	return nil
}

func (t *tx) PackingForUpdate(id int64) (*models.Packing, error) {
	p, ok := t.state.packings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (t *tx) SavePacking(p *models.Packing) error {
	t.state.packings[p.ID] = *p
	return nil
}
