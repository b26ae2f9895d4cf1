package ledger

import (
	"fmt"
	"sort"

	"github.com/mrxohit/Collection-Site/internal/domain"
)

// historyArchive holds one immutable record per archived day. Records are
// created exactly once per date and never mutated or deleted here.
type historyArchive struct {
	records []domain.HistoryRecord
}

func (a *historyArchive) hasRecord(date string) bool {
	for i := range a.records {
		if a.records[i].Date == date {
			return true
		}
	}
	return false
}

// append seals the given sales under date. A day with no sales still gets a
// zero-total record: downstream reporting must be able to tell "zero sales"
// from "day missing". Fails with ErrDuplicateDate if the date was already
// archived; callers check hasRecord first.
func (a *historyArchive) append(date string, sales []domain.SaleEvent) (domain.HistoryRecord, error) {
	if a.hasRecord(date) {
		return domain.HistoryRecord{}, fmt.Errorf("%w: %s", ErrDuplicateDate, date)
	}

	var total int64
	archived := make([]domain.SaleEvent, len(sales))
	copy(archived, sales)
	for _, sale := range archived {
		total += sale.TotalCents
	}

	record := domain.HistoryRecord{
		Date:       date,
		TotalCents: total,
		Sales:      archived,
	}
	a.records = append(a.records, record)
	return record, nil
}

// list returns the records newest-first. Display ordering is a convention,
// not an archive invariant; backends may persist records in any order.
func (a *historyArchive) list() []domain.HistoryRecord {
	out := make([]domain.HistoryRecord, len(a.records))
	copy(out, a.records)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}
