package controllers

import (
	"context"
	"log/slog"
	"time"

	"foodmarket/database"
	"foodmarket/events"
	"foodmarket/middleware"
	"foodmarket/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	AddPreferences(ctx context.Context, id primitive.ObjectID, prefs []string) (models.User, error)
}

type ProductRepository interface {
	List(ctx context.Context, f database.ProductFilter) ([]models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id, sellerID primitive.ObjectID) error
	SetAvailableQuantity(ctx context.Context, id primitive.ObjectID, qty int) (models.Product, error)
	Update(ctx context.Context, id, sellerID primitive.ObjectID, u database.ProductUpdate) (models.Product, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	Chips(ctx context.Context, categoryID primitive.ObjectID) ([]models.Chip, error)
	AddProduct(ctx context.Context, categoryID, productID primitive.ObjectID) error
	RemoveProduct(ctx context.Context, productID primitive.ObjectID) error
}

type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	ListByBuyer(ctx context.Context, buyerID primitive.ObjectID) ([]models.Order, error)
	Cancel(ctx context.Context, id, buyerID primitive.ObjectID) (models.Order, error)
}

type TokenRevoker interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
}

// Controller carries the dependencies shared by every HTTP handler.
type Controller struct {
	Users      UserRepository
	Products   ProductRepository
	Categories CategoryRepository
	Orders     OrderRepository
	Revoker    TokenRevoker
	Tokens     *middleware.Tokens
	Events     events.Publisher
	Log        *slog.Logger
	Timeout    time.Duration
}

// NewController wires the Mongo-backed stores.
func NewController(db *database.DB, tokens *middleware.Tokens, pub events.Publisher, log *slog.Logger) *Controller {
	return &Controller{
		Users:      database.NewUserStore(db),
		Products:   database.NewProductStore(db),
		Categories: database.NewCategoryStore(db),
		Orders:     database.NewOrderStore(db),
		Revoker:    database.NewTokenStore(db),
		Tokens:     tokens,
		Events:     pub,
		Log:        log,
		Timeout:    5 * time.Second,
	}
}

func (h *Controller) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

// fail writes the client-facing message and keeps err for the request log.
func (h *Controller) fail(c *gin.Context, status int, msg string, err error) {
	if err != nil {
		_ = c.Error(err)
		h.Log.Error(msg, "err", err, "path", c.FullPath(), "req_id", c.GetString(middleware.CtxRequestID))
	}
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

// callerID is the authenticated user's id as set by the auth middleware.
func callerID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(middleware.CtxUserID))
	return id, err == nil
}

// optionalID parses an optional hex id query value; empty yields the zero id.
func optionalID(s string) (primitive.ObjectID, bool) {
	if s == "" {
		return primitive.NilObjectID, true
	}
	id, err := primitive.ObjectIDFromHex(s)
	return id, err == nil
}
