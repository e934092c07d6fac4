package routes

import (
	"net/http"

	"foodmarket/controllers"
	"foodmarket/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, h *controllers.Controller, revocations middleware.RevocationChecker) {
	auth := middleware.AuthMiddleware(h.Tokens, revocations)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	r.POST("/register", h.Register)
	r.POST("/login", h.Login)

	r.GET("/products", h.ListProducts)
	r.GET("/product-search", h.SearchProducts)
	r.GET("/categories", h.ListCategories)
	r.GET("/product-chips", h.ProductChips)

	protected := r.Group("/")
	protected.Use(auth)
	{
		protected.POST("/logout", h.Logout)
		protected.PATCH("/users/:id/add-preferences", h.AddPreferences)

		protected.PATCH("/products/update/:id", h.UpdateStock)
		protected.POST("/orders", h.PlaceOrder)
		protected.GET("/orders", h.GetOrders)
		protected.PUT("/orders/:id/cancel", h.CancelOrder)

		seller := protected.Group("/")
		seller.Use(middleware.SellerMiddleware())
		{
			seller.POST("/products", h.CreateProduct)
			seller.PUT("/products/:id", h.UpdateProduct)
			seller.DELETE("/products/:id", h.DeleteProduct)
		}
	}
}
