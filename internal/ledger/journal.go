package ledger

import (
	"fmt"

	"github.com/mrxohit/Collection-Site/internal/domain"
)

// salesJournal is the working set of not-yet-archived sales. Insertion order
// is newest-first for presentation; logically it is a set keyed by sale id.
// In steady state it holds only the current observation day's entries.
type salesJournal struct {
	entries []domain.SaleEvent
}

func (j *salesJournal) record(sale domain.SaleEvent) error {
	for i := range j.entries {
		if j.entries[i].ID == sale.ID {
			return fmt.Errorf("%w: id=%d", ErrDuplicateID, sale.ID)
		}
	}
	j.entries = append([]domain.SaleEvent{sale}, j.entries...)
	return nil
}

func (j *salesJournal) list() []domain.SaleEvent {
	out := make([]domain.SaleEvent, len(j.entries))
	copy(out, j.entries)
	return out
}

func (j *salesJournal) entriesForDate(date string) []domain.SaleEvent {
	matched := make([]domain.SaleEvent, 0, len(j.entries))
	for _, sale := range j.entries {
		if sale.Date == date {
			matched = append(matched, sale)
		}
	}
	return matched
}

func (j *salesJournal) distinctDates() map[string]struct{} {
	dates := make(map[string]struct{}, 2)
	for _, sale := range j.entries {
		dates[sale.Date] = struct{}{}
	}
	return dates
}

// remove deletes and returns the entries matching ids. Callers own any
// compensating stock restoration.
func (j *salesJournal) remove(ids map[int64]struct{}) []domain.SaleEvent {
	removed := make([]domain.SaleEvent, 0, len(ids))
	kept := j.entries[:0]
	for _, sale := range j.entries {
		if _, hit := ids[sale.ID]; hit {
			removed = append(removed, sale)
			continue
		}
		kept = append(kept, sale)
	}
	j.entries = kept
	return removed
}

// retainDate drops every entry whose observation day differs from date.
func (j *salesJournal) retainDate(date string) {
	kept := j.entries[:0]
	for _, sale := range j.entries {
		if sale.Date == date {
			kept = append(kept, sale)
		}
	}
	j.entries = kept
}

func (j *salesJournal) clear() {
	j.entries = nil
}
