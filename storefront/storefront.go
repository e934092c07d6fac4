package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var ErrUnknownProduct = errors.New("product is not in the current catalog")

// Storefront wires the client pieces together. UI code forwards user events
// (quantity buttons, marker taps, order buttons) here and renders whatever
// the Cart publishes.
type Storefront struct {
	Session *Session
	Client  *Client
	Cart    *Cart
	Catalog *Fetcher
	Orders  *Submitter

	sessionPath string
	log         *slog.Logger
}

// New builds a storefront against the API at baseURL. sessionPath may be
// empty, in which case login state lives only in memory.
func New(baseURL string, session *Session, sessionPath string, log *slog.Logger, opts ...Option) *Storefront {
	if log == nil {
		log = slog.Default()
	}
	if session == nil {
		session = &Session{}
	}
	client := NewClient(baseURL, session, opts...)
	cart := NewCart()
	catalog := NewFetcher(client, cart, log)
	return &Storefront{
		Session:     session,
		Client:      client,
		Cart:        cart,
		Catalog:     catalog,
		Orders:      NewSubmitter(client, catalog, session, log),
		sessionPath: sessionPath,
		log:         log,
	}
}

func (s *Storefront) Login(ctx context.Context, email, password string) (User, error) {
	resp, err := s.Client.Login(ctx, email, password)
	if err != nil {
		return User{}, err
	}
	s.Session.Token = resp.Token
	s.Session.User = resp.User
	if err := s.persist(); err != nil {
		return resp.User, err
	}
	s.log.Info("signed in", "user_id", resp.User.ID, "role", resp.User.Role)
	return resp.User, nil
}

// Logout revokes the token server-side when possible and always forgets it
// locally.
func (s *Storefront) Logout(ctx context.Context) error {
	var apiErr error
	if s.Session.Token != "" {
		apiErr = s.Client.Logout(ctx)
		if apiErr != nil {
			s.log.Warn("logout request failed", "err", apiErr)
		}
	}
	s.Session.Clear()
	return errors.Join(apiErr, s.persist())
}

// AddPreferences stores new terms for the signed-in user and keeps the
// session copy in step.
func (s *Storefront) AddPreferences(ctx context.Context, prefs []string) error {
	if !s.Session.SignedIn() {
		return ErrNotSignedIn
	}
	user, err := s.Client.AddPreferences(ctx, s.Session.User.ID, prefs)
	if err != nil {
		return err
	}
	s.Session.User.Preferences = user.Preferences
	return s.persist()
}

// Browse shows the home feed: products matching the user's preferences,
// excluding the user's own listings.
func (s *Storefront) Browse(ctx context.Context) error {
	if !s.Session.SignedIn() {
		return ErrNotSignedIn
	}
	return s.Catalog.LoadPreferences(ctx, s.Session.User.Preferences, s.Session.User.ID)
}

// MyProducts shows the signed-in seller's listings.
func (s *Storefront) MyProducts(ctx context.Context) error {
	if !s.Session.SignedIn() {
		return ErrNotSignedIn
	}
	return s.Catalog.LoadSeller(ctx, s.Session.User.ID)
}

func (s *Storefront) Increment(id string) bool { return s.Cart.Increment(id) }

func (s *Storefront) Decrement(id string) bool { return s.Cart.Decrement(id) }

// Order submits the cart entry id at its current quantity.
func (s *Storefront) Order(ctx context.Context, id string) (*Attempt, error) {
	p, ok := s.Cart.Product(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}
	return s.Orders.Submit(ctx, p), nil
}

func (s *Storefront) Markers() []Marker { return Markers(s.Cart.Products()) }

func (s *Storefront) persist() error {
	if s.sessionPath == "" {
		return nil
	}
	if err := s.Session.Save(s.sessionPath); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
