package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

var ErrNoCategories = errors.New("no categories available")

type CatalogAPI interface {
	ProductsByPreference(ctx context.Context, name, userID string) ([]Product, error)
	ProductsBySeller(ctx context.Context, sellerID string) ([]Product, error)
	ProductChips(ctx context.Context, categoryID string) ([]Chip, error)
	SearchProducts(ctx context.Context, ids []string) ([]Product, error)
}

// Fetcher loads catalogs into a Cart. Every load hits the API; on failure the
// cart keeps whatever it showed before.
type Fetcher struct {
	api  CatalogAPI
	cart *Cart
	log  *slog.Logger

	// MaxInFlight bounds concurrent preference requests.
	MaxInFlight int

	mu     sync.Mutex
	last   func(context.Context) error
	active string
	chips  []Chip
}

func NewFetcher(api CatalogAPI, cart *Cart, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{api: api, cart: cart, log: log, MaxInFlight: 4}
}

func (f *Fetcher) remember(load func(context.Context) error) {
	f.mu.Lock()
	f.last = load
	f.mu.Unlock()
}

// Refresh repeats the most recent successful load. With no prior load it
// does nothing.
func (f *Fetcher) Refresh(ctx context.Context) error {
	f.mu.Lock()
	last := f.last
	f.mu.Unlock()
	if last == nil {
		return nil
	}
	return last(ctx)
}

// LoadPreferences fetches one product list per preference term concurrently
// and shows their concatenation in term order. Terms that fail are logged and
// skipped; only when every term fails is the previous catalog kept.
func (f *Fetcher) LoadPreferences(ctx context.Context, prefs []string, userID string) error {
	results := make([][]Product, len(prefs))
	errs := make([]error, len(prefs))

	var g errgroup.Group
	if f.MaxInFlight > 0 {
		g.SetLimit(f.MaxInFlight)
	}
	for i, term := range prefs {
		g.Go(func() error {
			products, err := f.api.ProductsByPreference(ctx, term, userID)
			if err != nil {
				f.log.Warn("preference fetch failed", "term", term, "err", err)
				errs[i] = fmt.Errorf("%s: %w", term, err)
				return nil
			}
			results[i] = products
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if len(prefs) > 0 && failed == len(prefs) {
		return fmt.Errorf("load preferences: %w", errors.Join(errs...))
	}

	seen := make(map[string]bool)
	catalog := []Product{}
	for _, products := range results {
		for _, p := range products {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			catalog = append(catalog, p)
		}
	}

	f.cart.Replace(catalog)
	f.remember(func(ctx context.Context) error { return f.LoadPreferences(ctx, prefs, userID) })
	if failed > 0 {
		f.log.Info("catalog loaded with partial results", "terms", len(prefs), "failed", failed, "products", len(catalog))
	}
	return nil
}

// LoadProducts shows the given products, looked up in one request. An empty
// list shows an empty catalog without contacting the API.
func (f *Fetcher) LoadProducts(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		f.cart.Replace(nil)
		f.remember(func(ctx context.Context) error { return f.LoadProducts(ctx, nil) })
		return nil
	}
	products, err := f.api.SearchProducts(ctx, ids)
	if err != nil {
		f.log.Error("product lookup failed", "ids", len(ids), "err", err)
		return fmt.Errorf("load products: %w", err)
	}
	f.cart.Replace(products)
	f.remember(func(ctx context.Context) error { return f.LoadProducts(ctx, ids) })
	return nil
}

// LoadSeller shows a seller's own products.
func (f *Fetcher) LoadSeller(ctx context.Context, sellerID string) error {
	products, err := f.api.ProductsBySeller(ctx, sellerID)
	if err != nil {
		f.log.Error("seller catalog fetch failed", "seller_id", sellerID, "err", err)
		return fmt.Errorf("load seller catalog: %w", err)
	}
	f.cart.Replace(products)
	f.remember(func(ctx context.Context) error { return f.LoadSeller(ctx, sellerID) })
	return nil
}

// SelectChip loads the category chips and shows the products of categoryID.
// When categoryID is empty or not among the results, the first chip returned
// becomes active. It returns the active chip.
func (f *Fetcher) SelectChip(ctx context.Context, categoryID string) (Chip, error) {
	return f.selectChip(ctx, categoryID, categoryID)
}

func (f *Fetcher) selectChip(ctx context.Context, query, want string) (Chip, error) {
	chips, err := f.api.ProductChips(ctx, query)
	if err != nil {
		f.log.Error("category fetch failed", "category_id", query, "err", err)
		return Chip{}, fmt.Errorf("load category: %w", err)
	}
	if len(chips) == 0 {
		return Chip{}, ErrNoCategories
	}

	active := chips[0]
	for _, c := range chips {
		if c.ID == want {
			active = c
			break
		}
	}

	f.mu.Lock()
	f.active = active.ID
	f.chips = mergeChips(f.chips, chips, query)
	f.mu.Unlock()

	f.cart.Replace(active.Products)
	f.remember(func(ctx context.Context) error {
		_, err := f.selectChip(ctx, query, active.ID)
		return err
	})
	return active, nil
}

// mergeChips keeps the full chip bar when a single category was fetched,
// swapping in the fresh entries.
func mergeChips(prev, fetched []Chip, query string) []Chip {
	if query == "" || len(prev) == 0 {
		return fetched
	}
	out := append([]Chip(nil), prev...)
	for _, c := range fetched {
		i := slices.IndexFunc(out, func(p Chip) bool { return p.ID == c.ID })
		if i < 0 {
			out = append(out, c)
			continue
		}
		out[i] = c
	}
	return out
}

// ActiveChip is the id of the selected category, empty before SelectChip.
func (f *Fetcher) ActiveChip() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *Fetcher) Chips() []Chip {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Chip(nil), f.chips...)
}
