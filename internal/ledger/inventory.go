package ledger

import (
	"fmt"

	"github.com/mrxohit/Collection-Site/internal/domain"
)

// inventoryLedger owns the product records. It is not safe for concurrent
// use on its own; the engine's mutex covers every call.
type inventoryLedger struct {
	products []domain.Product
}

func (l *inventoryLedger) index(productID int64) int {
	for i := range l.products {
		if l.products[i].ID == productID {
			return i
		}
	}
	return -1
}

func (l *inventoryLedger) get(productID int64) (domain.Product, bool) {
	i := l.index(productID)
	if i < 0 {
		return domain.Product{}, false
	}
	return l.products[i], true
}

func (l *inventoryLedger) list() []domain.Product {
	out := make([]domain.Product, len(l.products))
	copy(out, l.products)
	return out
}

// applySale validates the quantity against current stock and, on success,
// decrements stock and returns a SaleEvent snapshot capturing the current
// price. The mutation is visible to the next call immediately.
func (l *inventoryLedger) applySale(productID int64, qty int, saleID int64, date string, timeOfDay string) (domain.SaleEvent, error) {
	if qty <= 0 {
		return domain.SaleEvent{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	i := l.index(productID)
	if i < 0 {
		return domain.SaleEvent{}, fmt.Errorf("%w: id=%d", ErrUnknownProduct, productID)
	}
	if qty > l.products[i].Stock {
		return domain.SaleEvent{}, fmt.Errorf("%w: want %d, have %d", ErrInsufficientStock, qty, l.products[i].Stock)
	}

	l.products[i].Stock -= qty
	product := l.products[i]

	return domain.SaleEvent{
		ID:         saleID,
		ProductID:  product.ID,
		Name:       product.Name,
		Qty:        qty,
		PriceCents: product.PriceCents,
		TotalCents: int64(qty) * product.PriceCents,
		Date:       date,
		Time:       timeOfDay,
	}, nil
}

// reverseSale restores the sale's quantity to the referenced product.
// Returns false when the product no longer exists; the lost restock is the
// caller's to log, not an error.
func (l *inventoryLedger) reverseSale(sale domain.SaleEvent) bool {
	i := l.index(sale.ProductID)
	if i < 0 {
		return false
	}
	l.products[i].Stock += sale.Qty
	return true
}

func (l *inventoryLedger) add(product domain.Product) {
	l.products = append(l.products, product)
}

func (l *inventoryLedger) remove(productID int64) bool {
	i := l.index(productID)
	if i < 0 {
		return false
	}
	l.products = append(l.products[:i], l.products[i+1:]...)
	return true
}

func (l *inventoryLedger) restock(productID int64, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	i := l.index(productID)
	if i < 0 {
		return fmt.Errorf("%w: id=%d", ErrUnknownProduct, productID)
	}
	l.products[i].Stock += qty
	return nil
}
