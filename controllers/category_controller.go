package controllers

import (
	"errors"
	"net/http"

	"foodmarket/database"

	"github.com/gin-gonic/gin"
)

func (h *Controller) ListCategories(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	categories, err := h.Categories.List(ctx)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to fetch categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": categories})
}

// ProductChips returns categories with their products resolved, narrowed to
// one category when categoryId is given.
func (h *Controller) ProductChips(c *gin.Context) {
	categoryID, ok := optionalID(c.Query("categoryId"))
	if !ok {
		h.fail(c, http.StatusBadRequest, "Invalid categoryId", nil)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	chips, err := h.Categories.Chips(ctx, categoryID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.fail(c, http.StatusNotFound, "Category not found", nil)
			return
		}
		h.fail(c, http.StatusInternalServerError, "Failed to fetch categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": chips})
}
