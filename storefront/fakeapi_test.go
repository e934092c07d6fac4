package storefront_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"foodmarket/storefront"
)

// fakeAPI is an in-memory stand-in for the marketplace API. Like the real
// server it checks stock on order but never decrements it.
type fakeAPI struct {
	mu       sync.Mutex
	products map[string]*storefront.Product
	order    []string
	chips    []storefront.Chip

	failTerms   map[string]bool
	orderStatus int
	orderMsg    string
	failStock   bool

	// holdOrders, when set, parks each POST /orders after its stock check
	// until every expected order has arrived.
	holdOrders *sync.WaitGroup

	searchCalls  int
	termCalls    []string
	orders       []storefront.OrderRequest
	stockUpdates []int
	authHeaders  []string
	loggedOut    bool
	canceled     map[string]bool
	productEdits []map[string]any
}

func newFakeAPI(t *testing.T, products ...storefront.Product) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{products: map[string]*storefront.Product{}, failTerms: map[string]bool{}, canceled: map[string]bool{}}
	for _, p := range products {
		f.products[p.ID] = &p
		f.order = append(f.order, p.ID)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", f.login)
	mux.HandleFunc("POST /logout", f.logout)
	mux.HandleFunc("GET /products", f.list)
	mux.HandleFunc("GET /product-search", f.search)
	mux.HandleFunc("GET /product-chips", f.productChips)
	mux.HandleFunc("PATCH /products/update/{id}", f.updateStock)
	mux.HandleFunc("POST /orders", f.placeOrder)
	mux.HandleFunc("PUT /orders/{id}/cancel", f.cancelOrder)
	mux.HandleFunc("PUT /products/{id}", f.updateProduct)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) snapshot(ids []string) []storefront.Product {
	out := []storefront.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out
}

func (f *fakeAPI) available(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].AvailableQuantity
}

func (f *fakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var in struct{ Email, Password string }
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in.Password != "secret" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   "tok-" + in.Email,
		"user":    storefront.User{ID: "buyer-1", Email: in.Email, Role: "buyer", Preferences: []string{"croissant"}},
	})
}

func (f *fakeAPI) logout(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.loggedOut = r.Header.Get("Authorization") != ""
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (f *fakeAPI) list(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := r.URL.Query()
	var ids []string
	if seller := q.Get("sellerId"); seller != "" {
		for _, id := range f.order {
			if f.products[id].SellerID == seller {
				ids = append(ids, id)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Fetch success", "data": f.snapshot(ids)})
		return
	}

	name := q.Get("name")
	f.termCalls = append(f.termCalls, name)
	if f.failTerms[name] {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to fetch products"})
		return
	}
	for _, id := range f.order {
		p := f.products[id]
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) && p.SellerID != q.Get("userId") {
			ids = append(ids, id)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Fetch success", "data": f.snapshot(ids)})
}

func (f *fakeAPI) search(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	ids := strings.Split(r.URL.Query().Get("productIds"), ",")
	writeJSON(w, http.StatusOK, map[string]any{"message": "Fetch success", "data": f.snapshot(ids)})
}

func (f *fakeAPI) productChips(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := r.URL.Query().Get("categoryId")
	if id == "" {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Fetch success", "data": f.chips})
		return
	}
	for _, c := range f.chips {
		if c.ID == id {
			writeJSON(w, http.StatusOK, map[string]any{"message": "Fetch success", "data": []storefront.Chip{c}})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Category not found"})
}

func (f *fakeAPI) updateStock(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AvailableQuantity int `json:"availableQuantity"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.stockUpdates = append(f.stockUpdates, in.AvailableQuantity)
	if f.failStock {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to update product"})
		return
	}
	p, ok := f.products[r.PathValue("id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found"})
		return
	}
	p.AvailableQuantity = in.AvailableQuantity
	writeJSON(w, http.StatusOK, map[string]any{"message": "Product updated", "data": *p})
}

func (f *fakeAPI) placeOrder(w http.ResponseWriter, r *http.Request) {
	var in storefront.OrderRequest
	_ = json.NewDecoder(r.Body).Decode(&in)

	f.mu.Lock()
	f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
	if f.orderStatus != 0 {
		status, msg := f.orderStatus, f.orderMsg
		f.mu.Unlock()
		if msg == "" {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, status, map[string]string{"message": msg})
		return
	}
	p, ok := f.products[in.ProductID]
	if !ok || p.AvailableQuantity < in.Quantity {
		f.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]string{"message": "Out of stock"})
		return
	}
	f.orders = append(f.orders, in)
	id := "order-" + strconv.Itoa(len(f.orders))
	hold := f.holdOrders
	f.mu.Unlock()

	if hold != nil {
		hold.Done()
		hold.Wait()
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Order placed successfully",
		"data": storefront.Order{
			ID: id, BookedByID: in.BookedByID, ProductID: in.ProductID,
			Quantity: in.Quantity, Price: in.Price, PaymentMethod: in.PaymentMethod, Status: "placed",
		},
	})
}

func (f *fakeAPI) cancelOrder(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := r.PathValue("id")
	if f.canceled[id] || !strings.HasPrefix(id, "order-") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Order not found or cannot be canceled"})
		return
	}
	f.canceled[id] = true
	writeJSON(w, http.StatusOK, map[string]any{"message": "Order canceled", "data": storefront.Order{ID: id, Status: "canceled"}})
}

func (f *fakeAPI) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in map[string]any
	_ = json.NewDecoder(r.Body).Decode(&in)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.productEdits = append(f.productEdits, in)
	p, ok := f.products[r.PathValue("id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found"})
		return
	}
	if name, ok := in["name"].(string); ok {
		p.Name = name
	}
	if qty, ok := in["availableQuantity"].(float64); ok {
		p.AvailableQuantity = int(qty)
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Product updated", "data": *p})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func buyerSession() *storefront.Session {
	return &storefront.Session{Token: "tok-buyer", User: storefront.User{ID: "buyer-1", Role: "buyer"}}
}

func product(id, name string, price float64, available int) storefront.Product {
	return storefront.Product{
		ID:                 id,
		Name:               name,
		OriginalPrice:      price * 2,
		DiscountedPrice:    price,
		DiscountPercentage: 50,
		AvailableQuantity:  available,
		SellerID:           "seller-1",
		Category:           &storefront.CategoryRef{ID: "cat-1", Name: "Bakery", Emoji: "🥐"},
		Seller: &storefront.Seller{
			ID: "seller-1", Name: "Corner Bakery",
			Location: &storefront.Location{Lat: 52.52, Lng: 13.40},
		},
	}
}
