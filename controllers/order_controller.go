package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"foodmarket/database"
	"foodmarket/events"
	"foodmarket/models"
	"foodmarket/pricing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlaceOrder records an order intent. It checks stock but does not decrement
// it; the client follows up with PATCH /products/update/:id.
func (h *Controller) PlaceOrder(c *gin.Context) {
	var input struct {
		BookedByID    string  `json:"bookedById" binding:"required"`
		ProductID     string  `json:"productId" binding:"required"`
		Quantity      int     `json:"quantity" binding:"required,min=1"`
		Price         float64 `json:"price" binding:"required,gt=0"`
		PaymentMethod string  `json:"paymentMethod"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid order", nil)
		return
	}

	buyerID, err := primitive.ObjectIDFromHex(input.BookedByID)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid bookedById", nil)
		return
	}
	if caller, ok := callerID(c); !ok || caller != buyerID {
		h.fail(c, http.StatusForbidden, "You can only place orders for yourself", nil)
		return
	}
	productID, err := primitive.ObjectIDFromHex(input.ProductID)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid productId", nil)
		return
	}

	method := input.PaymentMethod
	if method == "" {
		method = models.PaymentCash
	}
	if method != models.PaymentCash {
		h.fail(c, http.StatusBadRequest, "Unsupported payment method", nil)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	product, err := h.Products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.fail(c, http.StatusNotFound, "Product not found", nil)
			return
		}
		h.fail(c, http.StatusInternalServerError, "Failed to place order", err)
		return
	}
	if product.SellerID == buyerID {
		h.fail(c, http.StatusBadRequest, "You cannot order your own product", nil)
		return
	}
	if product.AvailableQuantity < input.Quantity {
		h.fail(c, http.StatusConflict, "Out of stock", nil)
		return
	}
	if want := pricing.Total(product.DiscountedPrice, input.Quantity); !pricing.Matches(input.Price, want) {
		h.fail(c, http.StatusBadRequest, "Price mismatch", nil)
		return
	}

	order := models.Order{
		ID:            primitive.NewObjectID(),
		BookedByID:    buyerID,
		ProductID:     productID,
		Quantity:      input.Quantity,
		Price:         input.Price,
		PaymentMethod: method,
		Status:        models.StatusPlaced,
		CreatedAt:     time.Now(),
	}
	if err := h.Orders.Create(ctx, &order); err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to place order", err)
		return
	}

	h.publish(order)
	h.Log.Info("order placed", "order_id", order.ID.Hex(), "product_id", productID.Hex(), "quantity", order.Quantity)

	c.JSON(http.StatusCreated, gin.H{"message": "Order placed successfully", "data": order})
}

// publish is best effort; a broker outage never fails an order.
func (h *Controller) publish(order models.Order) {
	if h.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Events.PublishOrderPlaced(ctx, events.NewOrderPlaced(order)); err != nil {
		h.Log.Warn("order event not published", "order_id", order.ID.Hex(), "err", err)
	}
}

func (h *Controller) GetOrders(c *gin.Context) {
	buyerID, ok := callerID(c)
	if !ok {
		h.fail(c, http.StatusUnauthorized, "Invalid token subject", nil)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	orders, err := h.Orders.ListByBuyer(ctx, buyerID)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to fetch orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": orders})
}

// CancelOrder lets a buyer withdraw a placed order. Stock is not restored.
func (h *Controller) CancelOrder(c *gin.Context) {
	buyerID, ok := callerID(c)
	if !ok {
		h.fail(c, http.StatusUnauthorized, "Invalid token subject", nil)
		return
	}
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid orderId", nil)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	order, err := h.Orders.Cancel(ctx, orderID, buyerID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.fail(c, http.StatusBadRequest, "Order not found or cannot be canceled", nil)
			return
		}
		h.fail(c, http.StatusInternalServerError, "Failed to cancel order", err)
		return
	}

	h.Log.Info("order canceled", "order_id", order.ID.Hex(), "product_id", order.ProductID.Hex())
	c.JSON(http.StatusOK, gin.H{"message": "Order canceled", "data": order})
}
