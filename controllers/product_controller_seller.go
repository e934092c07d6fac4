package controllers

import (
	"errors"
	"net/http"
	"strings"

	"foodmarket/database"
	"foodmarket/middleware"
	"foodmarket/models"
	"foodmarket/pricing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Controller) CreateProduct(c *gin.Context) {
	var input struct {
		Name              string  `json:"name" binding:"required"`
		OriginalPrice     float64 `json:"originalPrice" binding:"required,gt=0"`
		DiscountedPrice   float64 `json:"discountedPrice" binding:"required,gt=0"`
		AvailableQuantity int     `json:"availableQuantity" binding:"min=0"`
		CategoryID        string  `json:"categoryId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, http.StatusBadRequest, "All fields are required", nil)
		return
	}
	if input.DiscountedPrice > input.OriginalPrice {
		h.fail(c, http.StatusBadRequest, "Discounted price cannot exceed original price", nil)
		return
	}
	categoryID, err := primitive.ObjectIDFromHex(input.CategoryID)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid categoryId", nil)
		return
	}
	sellerID, ok := callerID(c)
	if !ok {
		h.fail(c, http.StatusUnauthorized, "Invalid token subject", nil)
		return
	}

	product := models.Product{
		ID:                 primitive.NewObjectID(),
		Name:               strings.TrimSpace(input.Name),
		OriginalPrice:      input.OriginalPrice,
		DiscountedPrice:    input.DiscountedPrice,
		DiscountPercentage: pricing.DiscountPercentage(input.OriginalPrice, input.DiscountedPrice),
		AvailableQuantity:  input.AvailableQuantity,
		CategoryID:         categoryID,
		SellerID:           sellerID,
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Products.Create(ctx, &product); err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to create product", err)
		return
	}
	if err := h.Categories.AddProduct(ctx, categoryID, product.ID); err != nil {
		if rerr := h.Products.Delete(ctx, product.ID, sellerID); rerr != nil {
			h.Log.Error("rollback product create failed", "product_id", product.ID.Hex(), "err", rerr)
		}
		if errors.Is(err, database.ErrNotFound) {
			h.fail(c, http.StatusBadRequest, "Category not found", nil)
			return
		}
		h.fail(c, http.StatusInternalServerError, "Failed to create product", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Product created", "data": product})
}

func (h *Controller) DeleteProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid product id", nil)
		return
	}
	sellerID, ok := callerID(c)
	if !ok {
		h.fail(c, http.StatusUnauthorized, "Invalid token subject", nil)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Products.Delete(ctx, id, sellerID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.fail(c, http.StatusNotFound, "Product not found", nil)
			return
		}
		h.fail(c, http.StatusInternalServerError, "Failed to delete product", err)
		return
	}
	if err := h.Categories.RemoveProduct(ctx, id); err != nil {
		h.Log.Warn("product deleted but category still references it", "product_id", id.Hex(), "err", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted", "id": id.Hex()})
}

// UpdateProduct edits a seller's own listing. Omitted fields keep their
// value; the discount percentage follows the resulting prices.
func (h *Controller) UpdateProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid product id", nil)
		return
	}
	sellerID, ok := callerID(c)
	if !ok {
		h.fail(c, http.StatusUnauthorized, "Invalid token subject", nil)
		return
	}

	var body struct {
		Name              *string  `json:"name"`
		OriginalPrice     *float64 `json:"originalPrice" binding:"omitempty,gt=0"`
		DiscountedPrice   *float64 `json:"discountedPrice" binding:"omitempty,gt=0"`
		AvailableQuantity *int     `json:"availableQuantity" binding:"omitempty,min=0"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" {
			h.fail(c, http.StatusBadRequest, "Name cannot be empty", nil)
			return
		}
		body.Name = &name
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	current, err := h.Products.FindByID(ctx, id)
	if err != nil || current.SellerID != sellerID {
		if err == nil || errors.Is(err, database.ErrNotFound) {
			h.fail(c, http.StatusNotFound, "Product not found", nil)
			return
		}
		h.fail(c, http.StatusInternalServerError, "Failed to update product", err)
		return
	}

	update := database.ProductUpdate{
		Name:              body.Name,
		OriginalPrice:     body.OriginalPrice,
		DiscountedPrice:   body.DiscountedPrice,
		AvailableQuantity: body.AvailableQuantity,
	}
	if body.OriginalPrice != nil || body.DiscountedPrice != nil {
		orig, disc := current.OriginalPrice, current.DiscountedPrice
		if body.OriginalPrice != nil {
			orig = *body.OriginalPrice
		}
		if body.DiscountedPrice != nil {
			disc = *body.DiscountedPrice
		}
		if disc > orig {
			h.fail(c, http.StatusBadRequest, "Discounted price cannot exceed original price", nil)
			return
		}
		pct := pricing.DiscountPercentage(orig, disc)
		update.DiscountPercentage = &pct
	}

	product, err := h.Products.Update(ctx, id, sellerID, update)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.fail(c, http.StatusNotFound, "Product not found", nil)
			return
		}
		h.fail(c, http.StatusInternalServerError, "Failed to update product", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product updated", "data": product})
}

// UpdateStock overwrites availableQuantity. Buyers call it right after a
// successful order with the value they computed locally.
func (h *Controller) UpdateStock(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid product id", nil)
		return
	}

	var body struct {
		AvailableQuantity *int `json:"availableQuantity" binding:"required,min=0"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, http.StatusBadRequest, "availableQuantity must be a non-negative number", nil)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	product, err := h.Products.SetAvailableQuantity(ctx, id, *body.AvailableQuantity)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.fail(c, http.StatusNotFound, "Product not found", nil)
			return
		}
		h.fail(c, http.StatusInternalServerError, "Failed to update product", err)
		return
	}

	h.Log.Info("stock updated", "product_id", id.Hex(), "available", product.AvailableQuantity, "by", c.GetString(middleware.CtxUserID))
	c.JSON(http.StatusOK, gin.H{"message": "Product updated", "data": product})
}
