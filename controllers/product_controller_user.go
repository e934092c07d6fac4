package controllers

import (
	"net/http"
	"strings"

	"foodmarket/database"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListProducts serves both the buyer view (?name=&userId=) and the seller
// view (?sellerId=).
func (h *Controller) ListProducts(c *gin.Context) {
	var filter database.ProductFilter

	if sellerParam := c.Query("sellerId"); sellerParam != "" {
		sellerID, err := primitive.ObjectIDFromHex(sellerParam)
		if err != nil {
			h.fail(c, http.StatusBadRequest, "Invalid sellerId", nil)
			return
		}
		filter.SellerID = sellerID
	} else {
		userID, ok := optionalID(c.Query("userId"))
		if !ok {
			h.fail(c, http.StatusBadRequest, "Invalid userId", nil)
			return
		}
		filter.Name = strings.TrimSpace(c.Query("name"))
		filter.ExcludeSeller = userID
		filter.InStockOnly = true
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	products, err := h.Products.List(ctx, filter)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to fetch products", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": products})
}

// SearchProducts resolves a comma separated productIds list in one query.
func (h *Controller) SearchProducts(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("productIds"))
	ids := []primitive.ObjectID{}
	if raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := primitive.ObjectIDFromHex(part)
			if err != nil {
				h.fail(c, http.StatusBadRequest, "Invalid productId format", nil)
				return
			}
			ids = append(ids, id)
		}
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	products, err := h.Products.FindByIDs(ctx, ids)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to fetch products", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": products})
}
