package storefront

import (
	"context"
	"errors"
	"log/slog"

	"foodmarket/pricing"
)

// FailedOrderMessage is shown when the API gives no reason for a rejection.
const FailedOrderMessage = "Failed to place order"

type OrderState int

const (
	Idle OrderState = iota
	Submitting
	Placed
	Failed
	StockUpdatePending
	StockUpdated
	StockUpdateFailed
)

func (s OrderState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Placed:
		return "placed"
	case Failed:
		return "failed"
	case StockUpdatePending:
		return "stock-update-pending"
	case StockUpdated:
		return "stock-updated"
	case StockUpdateFailed:
		return "stock-update-failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can follow s.
func (s OrderState) Terminal() bool {
	return s == Failed || s == StockUpdated || s == StockUpdateFailed
}

var (
	ErrNotSignedIn     = errors.New("sign in to place an order")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and the available stock")
)

// Attempt is the record of one order submission.
type Attempt struct {
	ProductID string
	Quantity  int
	Price     float64

	State   OrderState
	History []OrderState

	// Message is what the user should see: the server's confirmation on
	// success, its reason or FailedOrderMessage on failure.
	Message string
	OrderID string

	Err        error
	StockErr   error
	RefreshErr error

	// NewStock is the availableQuantity sent in the stock update.
	NewStock int
}

func (a *Attempt) to(s OrderState) {
	a.State = s
	a.History = append(a.History, s)
}

// Placed reports whether the order reached the server, whatever happened to
// the stock update afterwards.
func (a *Attempt) Placed() bool {
	for _, s := range a.History {
		if s == Placed {
			return true
		}
	}
	return false
}

// Inconsistent is true when the order exists but stock was not decremented.
func (a *Attempt) Inconsistent() bool { return a.State == StockUpdateFailed }

type OrderAPI interface {
	PlaceOrder(ctx context.Context, in OrderRequest) (OrderResponse, error)
	UpdateStock(ctx context.Context, productID string, available int) (Product, error)
}

type Refresher interface {
	Refresh(ctx context.Context) error
}

// Submitter places orders in two steps: record the order, then write back
// the reduced stock level, then refresh the catalog. The steps are not
// atomic and concurrent submissions are not coordinated.
type Submitter struct {
	api     OrderAPI
	catalog Refresher
	session *Session
	log     *slog.Logger
}

func NewSubmitter(api OrderAPI, catalog Refresher, session *Session, log *slog.Logger) *Submitter {
	if log == nil {
		log = slog.Default()
	}
	return &Submitter{api: api, catalog: catalog, session: session, log: log}
}

func (s *Submitter) Submit(ctx context.Context, p Product) *Attempt {
	a := &Attempt{
		ProductID: p.ID,
		Quantity:  p.Quantity,
		Price:     pricing.Total(p.DiscountedPrice, p.Quantity),
		State:     Idle,
		History:   []OrderState{Idle},
	}

	a.to(Submitting)
	if s.session == nil || !s.session.SignedIn() {
		a.to(Failed)
		a.Err = ErrNotSignedIn
		a.Message = ErrNotSignedIn.Error()
		return a
	}
	if p.Quantity < 1 || p.Quantity > p.AvailableQuantity {
		a.to(Failed)
		a.Err = ErrInvalidQuantity
		a.Message = ErrInvalidQuantity.Error()
		return a
	}

	resp, err := s.api.PlaceOrder(ctx, OrderRequest{
		BookedByID:    s.session.User.ID,
		ProductID:     p.ID,
		Quantity:      p.Quantity,
		Price:         a.Price,
		PaymentMethod: PaymentCash,
	})
	if err != nil {
		a.to(Failed)
		a.Err = err
		a.Message = MessageOf(err, FailedOrderMessage)
		s.log.Warn("order rejected", "product_id", p.ID, "quantity", p.Quantity, "err", err)
		return a
	}
	a.OrderID = resp.Order.ID
	a.Message = resp.Message
	a.to(Placed)

	a.to(StockUpdatePending)
	a.NewStock = p.AvailableQuantity - p.Quantity
	if _, err := s.api.UpdateStock(ctx, p.ID, a.NewStock); err != nil {
		a.to(StockUpdateFailed)
		a.StockErr = err
		s.log.Error("order placed but stock not decremented",
			"order_id", a.OrderID, "product_id", p.ID, "want_available", a.NewStock, "err", err)
	} else {
		a.to(StockUpdated)
	}

	if s.catalog != nil {
		if err := s.catalog.Refresh(ctx); err != nil {
			a.RefreshErr = err
			s.log.Warn("catalog refresh after order failed", "order_id", a.OrderID, "err", err)
		}
	}
	return a
}
