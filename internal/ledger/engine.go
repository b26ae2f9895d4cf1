// Package ledger implements the daily rollover and aggregation engine: the
// inventory ledger, the sales journal, the history archive, startup catch-up
// and the midnight rollover scheduler.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mrxohit/Collection-Site/internal/domain"
	"github.com/mrxohit/Collection-Site/internal/store"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Engine owns the inventory ledger, the sales journal and the history
// archive. A single mutex covers every operation, so rollover's
// snapshot-then-clear is indivisible with respect to sale recording — the
// one interleaving that would silently drop sales from a day's total.
type Engine struct {
	mu    sync.Mutex
	store store.DocumentStore
	clock Clock
	loc   *time.Location
	seq   sequence

	inventory inventoryLedger
	journal   salesJournal
	archive   historyArchive
}

type Options struct {
	// Clock defaults to the system clock.
	Clock Clock
	// Location is the timezone observation days are computed in. Defaults
	// to UTC.
	Location *time.Location
	// Seed populates a starter catalog when no products document exists.
	Seed bool
}

// New loads the three persisted documents and builds the engine. A missing
// or corrupt document degrades to an empty default with a logged warning;
// startup never fails on bad stored state.
func New(ctx context.Context, docs store.DocumentStore, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	e := &Engine{
		store: docs,
		clock: opts.Clock,
		loc:   opts.Location,
	}

	e.inventory.products = loadDoc[domain.Product](ctx, docs, store.KeyProducts)
	e.journal.entries = loadDoc[domain.SaleEvent](ctx, docs, store.KeySales)
	e.archive.records = loadDoc[domain.HistoryRecord](ctx, docs, store.KeyHistory)

	if e.inventory.products == nil && opts.Seed {
		e.inventory.products = seedProducts()
	}

	for _, p := range e.inventory.products {
		e.seq.observe(p.ID)
	}
	for _, s := range e.journal.entries {
		e.seq.observe(s.ID)
	}

	return e
}

// seedProducts is the starter catalog for a fresh install.
func seedProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Atta (5kg)", PriceCents: 30000, Stock: 20},
		{ID: 2, Name: "Sugar (1kg)", PriceCents: 4500, Stock: 50},
		{ID: 3, Name: "Tea (250g)", PriceCents: 12000, Stock: 30},
		{ID: 4, Name: "Oil (1L)", PriceCents: 18000, Stock: 12},
	}
}

func loadDoc[T any](ctx context.Context, docs store.DocumentStore, key string) []T {
	blob, ok, err := docs.Load(ctx, key)
	if err != nil {
		log.Printf("[ledger] WARN: failed to load %s, starting empty: %v", key, err)
		return nil
	}
	if !ok {
		return nil
	}

	var out []T
	if err := json.Unmarshal(blob, &out); err != nil {
		log.Printf("[ledger] WARN: corrupt %s document, starting empty: %v", key, err)
		return nil
	}
	return out
}

// today returns the current observation day. Must be read at operation time,
// never cached across operations.
func (e *Engine) today() string {
	return e.clock.Now().In(e.loc).Format(dateLayout)
}

// RecordSale validates and applies a sale against the inventory, appends it
// to the journal and persists both documents. Validation failures leave all
// state untouched.
func (e *Engine) RecordSale(ctx context.Context, productID int64, qty int) (domain.SaleEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now().In(e.loc)
	sale, err := e.inventory.applySale(productID, qty, e.seq.next(now), now.Format(dateLayout), now.Format(timeLayout))
	if err != nil {
		return domain.SaleEvent{}, err
	}

	if err := e.journal.record(sale); err != nil {
		// Monotonic id generation makes this unreachable; undo the stock
		// decrement so the failed operation has no effect.
		e.inventory.reverseSale(sale)
		log.Printf("[ledger] WARN: journal rejected sale: %v", err)
		return domain.SaleEvent{}, err
	}

	e.persist(ctx, store.KeyProducts, store.KeySales)
	return sale, nil
}

// ReverseSales removes the matching journal entries and restores their
// quantities to the referenced products. A sale whose product was deleted
// is still removed; the lost restock is logged, not fatal. Archived sales
// cannot be reversed — history is immutable.
func (e *Engine) ReverseSales(ctx context.Context, ids []int64) []domain.SaleEvent {
	if len(ids) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	idSet := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}

	removed := e.journal.remove(idSet)
	for _, sale := range removed {
		if !e.inventory.reverseSale(sale) {
			log.Printf("[ledger] WARN: product %d deleted, dropping restock of %d from reversed sale %d", sale.ProductID, sale.Qty, sale.ID)
		}
	}

	if len(removed) > 0 {
		e.persist(ctx, store.KeyProducts, store.KeySales)
	}
	return removed
}

// CurrentDaySales returns the journal entries attributed to today.
func (e *Engine) CurrentDaySales() []domain.SaleEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.journal.entriesForDate(e.today())
}

// JournalEntries returns every not-yet-archived sale, newest-first.
func (e *Engine) JournalEntries() []domain.SaleEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.journal.list()
}

// TodayTotalCents sums today's journal entries.
func (e *Engine) TodayTotalCents() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	var total int64
	for _, sale := range e.journal.entriesForDate(e.today()) {
		total += sale.TotalCents
	}
	return total
}

// Today returns the current observation day as an ISO date.
func (e *Engine) Today() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.today()
}

// HistoryRecords returns the archive newest-first.
func (e *Engine) HistoryRecords() []domain.HistoryRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.archive.list()
}

// CatchUp folds any journal entries left over from previous days into the
// history archive, one record per missed day, then truncates the journal to
// today's entries. It runs once at startup, before the scheduler arms, and
// is idempotent: dates already archived (a crash between archiving and
// truncating on a previous run) are skipped without error.
func (e *Engine) CatchUp(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	today := e.today()
	dateSet := e.journal.distinctDates()
	delete(dateSet, today)
	if len(dateSet) == 0 {
		return
	}

	pastDates := make([]string, 0, len(dateSet))
	for date := range dateSet {
		pastDates = append(pastDates, date)
	}
	// Oldest first, so multiple missed days land in chronological order.
	sort.Strings(pastDates)

	for _, date := range pastDates {
		if e.archive.hasRecord(date) {
			log.Printf("[ledger] catch-up: %s already archived, skipping", date)
			continue
		}
		record, err := e.archive.append(date, e.journal.entriesForDate(date))
		if err != nil {
			log.Printf("[ledger] WARN: catch-up append for %s: %v", date, err)
			continue
		}
		log.Printf("[ledger] catch-up: archived %s (%d sales, total %d)", date, len(record.Sales), record.TotalCents)
	}

	e.journal.retainDate(today)
	e.persist(ctx, store.KeySales, store.KeyHistory)
}

// Rollover seals today's sales into one history record and clears the
// journal. A day with zero sales still writes a zero-total record. Stock is
// not restored — sold goods remain sold. A duplicate date (clock skew, or a
// record catch-up already wrote) is logged and skipped, and the journal is
// still cleared so nothing is counted twice.
func (e *Engine) Rollover(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	today := e.today()
	record, err := e.archive.append(today, e.journal.entriesForDate(today))
	if err != nil {
		log.Printf("[ledger] WARN: rollover for %s skipped: %v", today, err)
	} else {
		log.Printf("[ledger] rollover: archived %s (%d sales, total %d)", today, len(record.Sales), record.TotalCents)
	}

	e.journal.clear()
	e.persist(ctx, store.KeySales, store.KeyHistory)
}

// Products returns the catalog in insertion order.
func (e *Engine) Products() []domain.Product {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inventory.list()
}

func (e *Engine) AddProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if req.Name == "" {
		return domain.Product{}, fmt.Errorf("%w: name required", ErrInvalidProduct)
	}
	if req.PriceCents < 0 || req.Stock < 0 {
		return domain.Product{}, fmt.Errorf("%w: price and stock must be non-negative", ErrInvalidProduct)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	product := domain.Product{
		ID:         e.seq.next(e.clock.Now()),
		Name:       req.Name,
		PriceCents: req.PriceCents,
		Stock:      req.Stock,
		Image:      req.Image,
	}
	e.inventory.add(product)
	e.persist(ctx, store.KeyProducts)
	return product, nil
}

func (e *Engine) UpdateProduct(ctx context.Context, productID int64, req domain.ProductUpdateRequest) (domain.Product, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.inventory.index(productID)
	if i < 0 {
		return domain.Product{}, fmt.Errorf("%w: id=%d", ErrUnknownProduct, productID)
	}

	updated := e.inventory.products[i]
	if req.Name != nil {
		if *req.Name == "" {
			return domain.Product{}, fmt.Errorf("%w: name required", ErrInvalidProduct)
		}
		updated.Name = *req.Name
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			return domain.Product{}, fmt.Errorf("%w: price must be non-negative", ErrInvalidProduct)
		}
		updated.PriceCents = *req.PriceCents
	}
	if req.Image != nil {
		updated.Image = *req.Image
	}

	e.inventory.products[i] = updated
	e.persist(ctx, store.KeyProducts)
	return updated, nil
}

// DeleteProduct removes a catalog entry. Journal entries referencing it keep
// their captured price and name; reversing them later drops the restock.
func (e *Engine) DeleteProduct(ctx context.Context, productID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.inventory.remove(productID) {
		return fmt.Errorf("%w: id=%d", ErrUnknownProduct, productID)
	}
	e.persist(ctx, store.KeyProducts)
	return nil
}

func (e *Engine) Restock(ctx context.Context, productID int64, qty int) (domain.Product, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.inventory.restock(productID, qty); err != nil {
		return domain.Product{}, err
	}
	product, _ := e.inventory.get(productID)
	e.persist(ctx, store.KeyProducts)
	return product, nil
}

// Flush persists all three documents. Called once at shutdown.
func (e *Engine) Flush(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.persist(ctx, store.KeyProducts, store.KeySales, store.KeyHistory)
}

// persist saves the named documents, logging failures instead of returning
// them: in-memory state stays authoritative for the running process.
// Callers hold e.mu.
func (e *Engine) persist(ctx context.Context, keys ...string) {
	for _, key := range keys {
		var payload any
		switch key {
		case store.KeyProducts:
			payload = e.inventory.products
		case store.KeySales:
			payload = e.journal.entries
		case store.KeyHistory:
			payload = e.archive.records
		default:
			continue
		}

		blob, err := json.Marshal(payload)
		if err != nil {
			log.Printf("[ledger] WARN: failed to encode %s: %v", key, err)
			continue
		}
		if err := e.store.Save(ctx, key, blob); err != nil {
			log.Printf("[ledger] WARN: failed to save %s: %v", key, err)
		}
	}
}

// ExportRows renders sales as (date, time, name, qty, price, total) rows for
// the CSV serializer. Pure formatting, no engine state involved.
func ExportRows(sales []domain.SaleEvent) [][]string {
	rows := make([][]string, 0, len(sales))
	for _, sale := range sales {
		rows = append(rows, []string{
			sale.Date,
			sale.Time,
			sale.Name,
			strconv.Itoa(sale.Qty),
			formatCents(sale.PriceCents),
			formatCents(sale.TotalCents),
		})
	}
	return rows
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
