package storefront

import (
	"slices"
	"sync"
)

// Cart is the catalog currently on screen together with the quantity the
// user intends to buy of each entry.
type Cart struct {
	mu        sync.Mutex
	products  []Product
	listeners []func([]Product)
}

func NewCart() *Cart { return &Cart{} }

// Subscribe registers fn to run with a snapshot after every change.
func (c *Cart) Subscribe(fn func([]Product)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Replace installs a freshly fetched catalog with every quantity reset to 1.
func (c *Cart) Replace(products []Product) {
	fresh := make([]Product, len(products))
	for i, p := range products {
		p.Quantity = 1
		fresh[i] = p
	}
	c.mu.Lock()
	c.products = fresh
	c.mu.Unlock()
	c.notify()
}

func (c *Cart) Products() []Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Product(nil), c.products...)
}

func (c *Cart) Product(id string) (Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.products)
}

// Increment raises the quantity of id by one, stopping at availableQuantity.
// It reports whether anything changed.
func (c *Cart) Increment(id string) bool {
	return c.adjust(id, func(p *Product) bool {
		if p.Quantity >= p.AvailableQuantity {
			return false
		}
		p.Quantity++
		return true
	})
}

// Decrement lowers the quantity of id by one, stopping at 1.
func (c *Cart) Decrement(id string) bool {
	return c.adjust(id, func(p *Product) bool {
		if p.Quantity <= 1 {
			return false
		}
		p.Quantity--
		return true
	})
}

func (c *Cart) adjust(id string, fn func(*Product) bool) bool {
	c.mu.Lock()
	changed := false
	for i := range c.products {
		if c.products[i].ID == id {
			changed = fn(&c.products[i])
			break
		}
	}
	c.mu.Unlock()
	if changed {
		c.notify()
	}
	return changed
}

func (c *Cart) notify() {
	c.mu.Lock()
	snapshot := append([]Product(nil), c.products...)
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(snapshot)
	}
}
