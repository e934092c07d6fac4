package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is a non-2xx answer from the marketplace API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

// MessageOf returns the server-reported message carried by err, or fallback
// when err has none (transport failures, empty payloads).
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient talks to the API at baseURL, attaching the session token to
// every request once the session holds one.
func NewClient(baseURL string, session *Session, opts ...Option) *Client {
	if session == nil {
		session = &Session{}
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		session: session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *Session { return c.session }

type envelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.session.Token; tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.Unmarshal(payload, &e)
		msg := e.Message
		if msg == "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

type RegisterRequest struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Role     string    `json:"role,omitempty"`
	Location *Location `json:"location,omitempty"`
}

func (c *Client) Register(ctx context.Context, in RegisterRequest) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/register", nil, in, &out); err != nil {
		return User{}, err
	}
	return out.User, nil
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", nil, body, &out); err != nil {
		return LoginResponse{}, err
	}
	return out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil, nil)
}

func (c *Client) AddPreferences(ctx context.Context, userID string, prefs []string) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	body := map[string][]string{"userPreferences": prefs}
	path := "/users/" + url.PathEscape(userID) + "/add-preferences"
	if err := c.do(ctx, http.MethodPatch, path, nil, body, &out); err != nil {
		return User{}, err
	}
	return out.User, nil
}

func (c *Client) ProductsByPreference(ctx context.Context, name, userID string) ([]Product, error) {
	var out envelope[[]Product]
	q := url.Values{"name": {name}, "userId": {userID}}
	if err := c.do(ctx, http.MethodGet, "/products", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) ProductsBySeller(ctx context.Context, sellerID string) ([]Product, error) {
	var out envelope[[]Product]
	if err := c.do(ctx, http.MethodGet, "/products", url.Values{"sellerId": {sellerID}}, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var out envelope[[]Category]
	if err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) ProductChips(ctx context.Context, categoryID string) ([]Chip, error) {
	var q url.Values
	if categoryID != "" {
		q = url.Values{"categoryId": {categoryID}}
	}
	var out envelope[[]Chip]
	if err := c.do(ctx, http.MethodGet, "/product-chips", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// SearchProducts looks up ids in one request. No ids, no request.
func (c *Client) SearchProducts(ctx context.Context, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	var out envelope[[]Product]
	q := url.Values{"productIds": {strings.Join(ids, ",")}}
	if err := c.do(ctx, http.MethodGet, "/product-search", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) UpdateStock(ctx context.Context, productID string, available int) (Product, error) {
	var out envelope[Product]
	body := map[string]int{"availableQuantity": available}
	if err := c.do(ctx, http.MethodPatch, "/products/update/"+url.PathEscape(productID), nil, body, &out); err != nil {
		return Product{}, err
	}
	return out.Data, nil
}

func (c *Client) PlaceOrder(ctx context.Context, in OrderRequest) (OrderResponse, error) {
	var out OrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", nil, in, &out); err != nil {
		return OrderResponse{}, err
	}
	return out, nil
}

func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var out envelope[[]Order]
	if err := c.do(ctx, http.MethodGet, "/orders", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID string) (Order, error) {
	var out envelope[Order]
	if err := c.do(ctx, http.MethodPut, "/orders/"+url.PathEscape(orderID)+"/cancel", nil, nil, &out); err != nil {
		return Order{}, err
	}
	return out.Data, nil
}

// ProductChanges is a partial listing edit; nil fields are not sent.
type ProductChanges struct {
	Name              *string  `json:"name,omitempty"`
	OriginalPrice     *float64 `json:"originalPrice,omitempty"`
	DiscountedPrice   *float64 `json:"discountedPrice,omitempty"`
	AvailableQuantity *int     `json:"availableQuantity,omitempty"`
}

func (c *Client) UpdateProduct(ctx context.Context, productID string, in ProductChanges) (Product, error) {
	var out envelope[Product]
	if err := c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(productID), nil, in, &out); err != nil {
		return Product{}, err
	}
	return out.Data, nil
}
