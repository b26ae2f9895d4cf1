package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mrxohit/Collection-Site/internal/domain"
	"github.com/mrxohit/Collection-Site/internal/store/memory"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) set(t time.Time) { c.now = t }

func newTestEngine(t *testing.T) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)}
	engine := New(context.Background(), memory.New(), Options{
		Clock: clock,
		Seed:  true,
	})
	return engine, clock
}

func TestRecordSaleDecrementsStock(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	sale, err := engine.RecordSale(ctx, 1, 5)
	if err != nil {
		t.Fatalf("record sale failed: %v", err)
	}
	if sale.Qty != 5 || sale.TotalCents != 5*30000 {
		t.Fatalf("unexpected sale: qty=%d total=%d", sale.Qty, sale.TotalCents)
	}

	products := engine.Products()
	if products[0].Stock != 15 {
		t.Fatalf("expected stock 15, got %d", products[0].Stock)
	}
}

func TestRecordSaleRejectsInvalidQuantity(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	for _, qty := range []int{0, -3} {
		_, err := engine.RecordSale(ctx, 1, qty)
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("qty %d: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}

	if engine.Products()[0].Stock != 20 {
		t.Fatalf("stock must be untouched after rejected sales")
	}
	if len(engine.JournalEntries()) != 0 {
		t.Fatalf("journal must be empty after rejected sales")
	}
}

func TestRecordSaleRejectsOverselling(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.RecordSale(context.Background(), 1, 21)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if engine.Products()[0].Stock != 20 {
		t.Fatalf("stock must be untouched after rejected sale")
	}
}

func TestRecordSaleUnknownProduct(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.RecordSale(context.Background(), 999, 1)
	if !errors.Is(err, ErrUnknownProduct) {
		t.Fatalf("expected ErrUnknownProduct, got %v", err)
	}
}

func TestSequentialSalesSeeImmediateStock(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := engine.RecordSale(ctx, 1, 5); err != nil {
		t.Fatalf("first sale failed: %v", err)
	}
	if _, err := engine.RecordSale(ctx, 1, 5); err != nil {
		t.Fatalf("second sale failed: %v", err)
	}
	if stock := engine.Products()[0].Stock; stock != 10 {
		t.Fatalf("expected stock 10 after two sales, got %d", stock)
	}

	// 11 more must fail: only 10 remain.
	if _, err := engine.RecordSale(ctx, 1, 11); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestReverseSalesRestoresStock(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	first, err := engine.RecordSale(ctx, 1, 5)
	if err != nil {
		t.Fatalf("first sale failed: %v", err)
	}
	if _, err := engine.RecordSale(ctx, 1, 5); err != nil {
		t.Fatalf("second sale failed: %v", err)
	}

	removed := engine.ReverseSales(ctx, []int64{first.ID})
	if len(removed) != 1 || removed[0].ID != first.ID {
		t.Fatalf("expected exactly the first sale removed, got %v", removed)
	}
	if stock := engine.Products()[0].Stock; stock != 15 {
		t.Fatalf("expected stock 15 after reversal, got %d", stock)
	}
	if remaining := engine.JournalEntries(); len(remaining) != 1 {
		t.Fatalf("expected one journal entry left, got %d", len(remaining))
	}
}

func TestReverseSalesUnknownIDsAreIgnored(t *testing.T) {
	engine, _ := newTestEngine(t)

	removed := engine.ReverseSales(context.Background(), []int64{12345})
	if len(removed) != 0 {
		t.Fatalf("expected nothing removed, got %v", removed)
	}
}

func TestReverseSaleOfDeletedProductDropsRestock(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	sale, err := engine.RecordSale(ctx, 4, 2)
	if err != nil {
		t.Fatalf("sale failed: %v", err)
	}
	if err := engine.DeleteProduct(ctx, 4); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	removed := engine.ReverseSales(ctx, []int64{sale.ID})
	if len(removed) != 1 {
		t.Fatalf("sale must still be removed when its product is gone")
	}
	for _, p := range engine.Products() {
		if p.ID == 4 {
			t.Fatalf("deleted product must not reappear")
		}
	}
}

func TestRolloverSealsDayAndClearsJournal(t *testing.T) {
	engine, clock := newTestEngine(t)
	ctx := context.Background()

	if _, err := engine.RecordSale(ctx, 2, 10); err != nil {
		t.Fatalf("sale failed: %v", err)
	}
	engine.Rollover(ctx)

	history := engine.HistoryRecords()
	if len(history) != 1 {
		t.Fatalf("expected one history record, got %d", len(history))
	}
	if history[0].Date != "2024-01-03" || history[0].TotalCents != 45000 {
		t.Fatalf("unexpected record: %+v", history[0])
	}
	if len(engine.JournalEntries()) != 0 {
		t.Fatalf("journal must be empty after rollover")
	}

	// Stock stays sold.
	if stock := engine.Products()[1].Stock; stock != 40 {
		t.Fatalf("expected stock 40 after rollover, got %d", stock)
	}

	// A second rollover on the same date must not duplicate the record or
	// lose the next day's sales.
	engine.Rollover(ctx)
	if len(engine.HistoryRecords()) != 1 {
		t.Fatalf("duplicate date must not produce a second record")
	}

	clock.set(time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC))
	if _, err := engine.RecordSale(ctx, 2, 1); err != nil {
		t.Fatalf("next-day sale failed: %v", err)
	}
	if got := engine.TodayTotalCents(); got != 4500 {
		t.Fatalf("expected new day total 4500, got %d", got)
	}
}

func TestRolloverOnEmptyDayWritesZeroRecord(t *testing.T) {
	engine, _ := newTestEngine(t)

	engine.Rollover(context.Background())

	history := engine.HistoryRecords()
	if len(history) != 1 {
		t.Fatalf("expected one record, got %d", len(history))
	}
	if history[0].TotalCents != 0 || len(history[0].Sales) != 0 {
		t.Fatalf("expected zero-total empty record, got %+v", history[0])
	}
}

func TestCatchUpArchivesMissedDays(t *testing.T) {
	docs := memory.New()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	engine := New(context.Background(), docs, Options{Clock: clock, Seed: true})
	ctx := context.Background()

	if _, err := engine.RecordSale(ctx, 1, 2); err != nil {
		t.Fatalf("day-one sale failed: %v", err)
	}
	clock.set(time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC))
	if _, err := engine.RecordSale(ctx, 2, 4); err != nil {
		t.Fatalf("day-two sale failed: %v", err)
	}
	clock.set(time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))
	if _, err := engine.RecordSale(ctx, 3, 1); err != nil {
		t.Fatalf("day-three sale failed: %v", err)
	}

	// Simulate a restart on day three: reload from the same store.
	restarted := New(ctx, docs, Options{Clock: clock})
	restarted.CatchUp(ctx)

	history := restarted.HistoryRecords()
	if len(history) != 2 {
		t.Fatalf("expected two archived days, got %d", len(history))
	}
	// Newest-first.
	if history[0].Date != "2024-01-02" || history[0].TotalCents != 4*4500 {
		t.Fatalf("unexpected first record: %+v", history[0])
	}
	if history[1].Date != "2024-01-01" || history[1].TotalCents != 2*30000 {
		t.Fatalf("unexpected second record: %+v", history[1])
	}

	journal := restarted.JournalEntries()
	if len(journal) != 1 || journal[0].Date != "2024-01-03" {
		t.Fatalf("journal must hold only today's entries, got %v", journal)
	}
}

func TestCatchUpIsIdempotentAcrossRestarts(t *testing.T) {
	docs := memory.New()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	engine := New(context.Background(), docs, Options{Clock: clock, Seed: true})
	ctx := context.Background()

	if _, err := engine.RecordSale(ctx, 1, 2); err != nil {
		t.Fatalf("sale failed: %v", err)
	}
	clock.set(time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC))

	for i := 0; i < 2; i++ {
		restarted := New(ctx, docs, Options{Clock: clock})
		restarted.CatchUp(ctx)
		if got := len(restarted.HistoryRecords()); got != 1 {
			t.Fatalf("restart %d: expected one record, got %d", i, got)
		}
	}
}

func TestCatchUpWithEmptyJournalDoesNothing(t *testing.T) {
	engine, _ := newTestEngine(t)

	engine.CatchUp(context.Background())
	if len(engine.HistoryRecords()) != 0 {
		t.Fatalf("catch-up on empty journal must not invent records")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	docs := memory.New()
	clock := &fakeClock{now: time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)}
	ctx := context.Background()

	engine := New(ctx, docs, Options{Clock: clock, Seed: true})
	sale, err := engine.RecordSale(ctx, 1, 3)
	if err != nil {
		t.Fatalf("sale failed: %v", err)
	}
	engine.Rollover(ctx)

	reloaded := New(ctx, docs, Options{Clock: clock})
	if len(reloaded.Products()) != 4 {
		t.Fatalf("expected four products after reload, got %d", len(reloaded.Products()))
	}
	history := reloaded.HistoryRecords()
	if len(history) != 1 || history[0].Sales[0].ID != sale.ID {
		t.Fatalf("expected archived sale to survive reload, got %+v", history)
	}
}

func TestProductLifecycle(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	created, err := engine.AddProduct(ctx, domain.ProductCreateRequest{
		Name:       "Salt (1kg)",
		PriceCents: 2500,
		Stock:      40,
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected generated id")
	}

	name := "Rock Salt (1kg)"
	price := int64(2800)
	updated, err := engine.UpdateProduct(ctx, created.ID, domain.ProductUpdateRequest{
		Name:       &name,
		PriceCents: &price,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != name || updated.PriceCents != price || updated.Stock != 40 {
		t.Fatalf("unexpected updated product: %+v", updated)
	}

	restocked, err := engine.Restock(ctx, created.ID, 10)
	if err != nil {
		t.Fatalf("restock failed: %v", err)
	}
	if restocked.Stock != 50 {
		t.Fatalf("expected stock 50, got %d", restocked.Stock)
	}

	if err := engine.DeleteProduct(ctx, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := engine.DeleteProduct(ctx, created.ID); !errors.Is(err, ErrUnknownProduct) {
		t.Fatalf("expected ErrUnknownProduct on second delete, got %v", err)
	}
}

func TestAddProductValidation(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := engine.AddProduct(ctx, domain.ProductCreateRequest{Name: ""}); !errors.Is(err, ErrInvalidProduct) {
		t.Fatalf("expected ErrInvalidProduct for empty name, got %v", err)
	}
	if _, err := engine.AddProduct(ctx, domain.ProductCreateRequest{Name: "x", PriceCents: -1}); !errors.Is(err, ErrInvalidProduct) {
		t.Fatalf("expected ErrInvalidProduct for negative price, got %v", err)
	}
}

func TestJournalListIsNewestFirst(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	first, err := engine.RecordSale(ctx, 1, 1)
	if err != nil {
		t.Fatalf("first sale failed: %v", err)
	}
	second, err := engine.RecordSale(ctx, 2, 1)
	if err != nil {
		t.Fatalf("second sale failed: %v", err)
	}

	entries := engine.JournalEntries()
	if len(entries) != 2 || entries[0].ID != second.ID || entries[1].ID != first.ID {
		t.Fatalf("expected newest-first ordering, got %v", entries)
	}
}

func TestSequenceIDsAreStrictlyIncreasing(t *testing.T) {
	var seq sequence
	pinned := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	prev := seq.next(pinned)
	for i := 0; i < 1000; i++ {
		id := seq.next(pinned)
		if id <= prev {
			t.Fatalf("id %d not greater than previous %d", id, prev)
		}
		prev = id
	}
}

func TestSaleIDsFollowEngineClock(t *testing.T) {
	engine, clock := newTestEngine(t)
	ctx := context.Background()

	first, err := engine.RecordSale(ctx, 1, 1)
	if err != nil {
		t.Fatalf("first sale failed: %v", err)
	}
	if want := clock.now.UnixMilli(); first.ID != want {
		t.Fatalf("expected id %d from the pinned clock, got %d", want, first.ID)
	}

	// Same pinned instant: the collision resolves to the next integer.
	second, err := engine.RecordSale(ctx, 1, 1)
	if err != nil {
		t.Fatalf("second sale failed: %v", err)
	}
	if second.ID != first.ID+1 {
		t.Fatalf("expected id %d, got %d", first.ID+1, second.ID)
	}
}

func TestExportRowsFormatsCents(t *testing.T) {
	rows := ExportRows([]domain.SaleEvent{
		{Date: "2024-01-03", Time: "10:15:00", Name: "Sugar (1kg)", Qty: 2, PriceCents: 4500, TotalCents: 9000},
	})
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	want := []string{"2024-01-03", "10:15:00", "Sugar (1kg)", "2", "45.00", "90.00"}
	for i, cell := range want {
		if rows[0][i] != cell {
			t.Fatalf("cell %d: expected %q, got %q", i, cell, rows[0][i])
		}
	}
}
