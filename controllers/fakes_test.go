package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"foodmarket/controllers"
	"foodmarket/database"
	"foodmarket/events"
	"foodmarket/middleware"
	"foodmarket/models"
	"foodmarket/routes"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return database.ErrDuplicate
		}
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, database.ErrNotFound
}

func (f *fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.User{}, database.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) AddPreferences(_ context.Context, id primitive.ObjectID, prefs []string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.User{}, database.ErrNotFound
	}
	seen := map[string]bool{}
	for _, p := range u.Preferences {
		seen[p] = true
	}
	for _, p := range prefs {
		if !seen[p] {
			u.Preferences = append(u.Preferences, p)
			seen[p] = true
		}
	}
	f.users[id] = u
	return u, nil
}

type fakeProducts struct {
	mu       sync.Mutex
	products []models.Product
	listErr  error
}

func (f *fakeProducts) List(_ context.Context, flt database.ProductFilter) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []models.Product{}
	for _, p := range f.products {
		if flt.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(flt.Name)) {
			continue
		}
		if !flt.SellerID.IsZero() && p.SellerID != flt.SellerID {
			continue
		}
		if !flt.ExcludeSeller.IsZero() && p.SellerID == flt.ExcludeSeller {
			continue
		}
		if flt.InStockOnly && p.AvailableQuantity <= 0 {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProducts) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return database.OrderByIDs(f.products, ids), nil
}

func (f *fakeProducts) FindByID(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, database.ErrNotFound
}

func (f *fakeProducts) Create(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products = append(f.products, *p)
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id, sellerID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.products {
		if p.ID == id && p.SellerID == sellerID {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

func (f *fakeProducts) SetAvailableQuantity(_ context.Context, id primitive.ObjectID, qty int) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.products {
		if p.ID == id {
			f.products[i].AvailableQuantity = qty
			return f.products[i], nil
		}
	}
	return models.Product{}, database.ErrNotFound
}

func (f *fakeProducts) Update(_ context.Context, id, sellerID primitive.ObjectID, u database.ProductUpdate) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.products {
		if p.ID != id || p.SellerID != sellerID {
			continue
		}
		if u.Name != nil {
			p.Name = *u.Name
		}
		if u.OriginalPrice != nil {
			p.OriginalPrice = *u.OriginalPrice
		}
		if u.DiscountedPrice != nil {
			p.DiscountedPrice = *u.DiscountedPrice
		}
		if u.DiscountPercentage != nil {
			p.DiscountPercentage = *u.DiscountPercentage
		}
		if u.AvailableQuantity != nil {
			p.AvailableQuantity = *u.AvailableQuantity
		}
		f.products[i] = p
		return p, nil
	}
	return models.Product{}, database.ErrNotFound
}

type fakeCategories struct {
	mu         sync.Mutex
	categories []models.Category
	products   *fakeProducts
}

func (f *fakeCategories) List(context.Context) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Category{}, f.categories...), nil
}

func (f *fakeCategories) Chips(ctx context.Context, id primitive.ObjectID) ([]models.Chip, error) {
	f.mu.Lock()
	cats := append([]models.Category{}, f.categories...)
	f.mu.Unlock()

	chips := []models.Chip{}
	for _, c := range cats {
		if !id.IsZero() && c.ID != id {
			continue
		}
		products, _ := f.products.FindByIDs(ctx, c.Products)
		chips = append(chips, models.Chip{ID: c.ID, Name: c.Name, Emoji: c.Emoji, Products: products})
	}
	if !id.IsZero() && len(chips) == 0 {
		return nil, database.ErrNotFound
	}
	return chips, nil
}

func (f *fakeCategories) AddProduct(_ context.Context, categoryID, productID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.categories {
		if c.ID == categoryID {
			f.categories[i].Products = append(f.categories[i].Products, productID)
			return nil
		}
	}
	return database.ErrNotFound
}

func (f *fakeCategories) RemoveProduct(_ context.Context, productID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.categories {
		kept := c.Products[:0]
		for _, id := range c.Products {
			if id != productID {
				kept = append(kept, id)
			}
		}
		f.categories[i].Products = kept
	}
	return nil
}

type fakeOrders struct {
	mu     sync.Mutex
	orders []models.Order
	err    error
}

func (f *fakeOrders) Create(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.orders = append(f.orders, *o)
	return nil
}

func (f *fakeOrders) ListByBuyer(_ context.Context, buyerID primitive.ObjectID) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Order{}
	for _, o := range f.orders {
		if o.BookedByID == buyerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) Cancel(_ context.Context, id, buyerID primitive.ObjectID) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, o := range f.orders {
		if o.ID == id && o.BookedByID == buyerID && o.Status == models.StatusPlaced {
			f.orders[i].Status = models.StatusCanceled
			return f.orders[i], nil
		}
	}
	return models.Order{}, database.ErrNotFound
}

type fakeTokens struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (f *fakeTokens) Revoke(_ context.Context, token string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[token] = exp
	return nil
}

func (f *fakeTokens) IsRevoked(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[token]
	return ok, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderPlaced
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, e events.OrderPlaced) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// testEnv is a router over fake stores with a small seeded marketplace.
type testEnv struct {
	t          *testing.T
	router     *gin.Engine
	h          *controllers.Controller
	users      *fakeUsers
	products   *fakeProducts
	categories *fakeCategories
	orders     *fakeOrders
	tokens     *fakeTokens
	pub        *recordingPublisher

	buyer     models.User
	seller    models.User
	bakery    models.Category
	croissant models.Product
	baguette  models.Product
}

const testPassword = "hunter22"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	env := &testEnv{t: t}
	env.buyer = models.User{ID: primitive.NewObjectID(), Name: "Bea", Email: "bea@example.com", Password: string(hash), Role: models.RoleBuyer, Preferences: []string{}}
	env.seller = models.User{ID: primitive.NewObjectID(), Name: "Sam's Bakery", Email: "sam@example.com", Password: string(hash), Role: models.RoleSeller, Location: &models.Location{Lat: 48.85, Lng: 2.35}}

	env.bakery = models.Category{ID: primitive.NewObjectID(), Name: "Bakery", Emoji: "🥐"}
	env.croissant = models.Product{ID: primitive.NewObjectID(), Name: "Croissant", OriginalPrice: 2, DiscountedPrice: 1, DiscountPercentage: 50, AvailableQuantity: 5, CategoryID: env.bakery.ID, SellerID: env.seller.ID}
	env.baguette = models.Product{ID: primitive.NewObjectID(), Name: "Baguette", OriginalPrice: 3, DiscountedPrice: 1.5, DiscountPercentage: 50, AvailableQuantity: 0, CategoryID: env.bakery.ID, SellerID: env.seller.ID}
	env.bakery.Products = []primitive.ObjectID{env.croissant.ID, env.baguette.ID}

	env.users = &fakeUsers{users: map[primitive.ObjectID]models.User{env.buyer.ID: env.buyer, env.seller.ID: env.seller}}
	env.products = &fakeProducts{products: []models.Product{env.croissant, env.baguette}}
	env.categories = &fakeCategories{categories: []models.Category{env.bakery}, products: env.products}
	env.orders = &fakeOrders{}
	env.tokens = &fakeTokens{revoked: map[string]time.Time{}}
	env.pub = &recordingPublisher{}

	env.h = &controllers.Controller{
		Users:      env.users,
		Products:   env.products,
		Categories: env.categories,
		Orders:     env.orders,
		Revoker:    env.tokens,
		Tokens:     middleware.NewTokens("test-secret", time.Hour),
		Events:     env.pub,
		Log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	env.router = gin.New()
	routes.RegisterRoutes(env.router, env.h, env.tokens)
	return env
}

func (e *testEnv) tokenFor(u models.User) string {
	e.t.Helper()
	tok, err := e.h.Tokens.Issue(u)
	if err != nil {
		e.t.Fatal(err)
	}
	return tok
}

// rawToken signs arbitrary claims with the test secret.
func (e *testEnv) rawToken(claims jwt.MapClaims) string {
	e.t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(e.h.Tokens.Secret)
	if err != nil {
		e.t.Fatal(err)
	}
	return tok
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			e.t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

type envelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("want status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}
