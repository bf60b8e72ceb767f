package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kyraajewelz/storefront/internal/handlers"
	"github.com/kyraajewelz/storefront/internal/handlers/cart"
	"github.com/kyraajewelz/storefront/internal/handlers/order"
	"github.com/kyraajewelz/storefront/internal/handlers/review"
	"github.com/kyraajewelz/storefront/internal/handlers/wishlist"
	auth "github.com/kyraajewelz/storefront/internal/middleware/auth"
)

type Deps struct {
	DB              *gorm.DB
	AuthHandler     *handlers.AuthHandler
	CategoryHandler *handlers.CategoryHandler
	ProductHandler  *handlers.ProductHandler
	SearchHandler   *handlers.SearchHandler
	SettingsHandler *handlers.SettingsHandler
	CartHandler     *cart.CartHandler
	WishlistHandler *wishlist.WishlistHandler
	OrderHandler    *order.OrderHandler
	ReviewHandler   *review.ReviewHandler
	TokenService    *auth.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)

	v1.GET("/me", d.AuthHandler.GetMe, d.TokenService.AutoRefreshMiddleware)
	v1.PATCH("/me", d.AuthHandler.PatchMe, d.TokenService.AutoRefreshMiddleware)
	v1.DELETE("/me", d.AuthHandler.DeleteMe, d.TokenService.AutoRefreshMiddleware)

	v1.GET("/search", d.SearchHandler.Search)

	v1.GET("/categories", d.CategoryHandler.GetCategories)
	v1.GET("/categories/:id", d.CategoryHandler.GetCategory)

	v1.GET("/products", d.ProductHandler.GetProducts)
	v1.GET("/products/featured", d.ProductHandler.GetFeaturedProducts)
	v1.GET("/products/:id", d.ProductHandler.GetProduct)

	// Plain-JSON review surface for external consumers.
	v1.GET("/reviews/:product_id", d.ReviewHandler.GetProductReviews)
	v1.GET("/reviews/:product_id/average-rating", d.ReviewHandler.GetAverageRating)
	v1.POST("/reviews", d.ReviewHandler.CreateReview, d.TokenService.AutoRefreshMiddleware)
	v1.GET("/reviews/:product_id/can-review", d.ReviewHandler.CanReview, d.TokenService.AutoRefreshMiddleware)
	v1.GET("/reviews/pending", d.ReviewHandler.GetPendingReviews, d.TokenService.AutoRefreshMiddleware)
	v1.POST("/reviews/dismiss", d.ReviewHandler.DismissPendingReview, d.TokenService.AutoRefreshMiddleware)

	cartGroup := v1.Group("/cart", d.TokenService.AutoRefreshMiddleware)
	cartGroup.GET("", d.CartHandler.GetCart)
	cartGroup.POST("", d.CartHandler.AddToCart)
	cartGroup.GET("/count", d.CartHandler.CartCount)
	cartGroup.PATCH("/:id", d.CartHandler.UpdateCartItem)
	cartGroup.DELETE("/:id", d.CartHandler.RemoveFromCart)
	cartGroup.DELETE("", d.CartHandler.ClearCart)

	wishlistGroup := v1.Group("/wishlist", d.TokenService.AutoRefreshMiddleware)
	wishlistGroup.GET("", d.WishlistHandler.GetWishlist)
	wishlistGroup.POST("", d.WishlistHandler.AddToWishlist)
	wishlistGroup.GET("/count", d.WishlistHandler.WishlistCount)
	wishlistGroup.GET("/:product_id", d.WishlistHandler.IsInWishlist)
	wishlistGroup.DELETE("/:product_id", d.WishlistHandler.RemoveFromWishlist)

	orderGroup := v1.Group("/orders", d.TokenService.AutoRefreshMiddleware)
	orderGroup.POST("", d.OrderHandler.CreateOrder)
	orderGroup.GET("", d.OrderHandler.GetMyOrders)
	orderGroup.GET("/:id", d.OrderHandler.GetOrder)
	orderGroup.POST("/:id/cancel", d.OrderHandler.CancelOrder)

	admin := v1.Group("/admin", d.TokenService.AutoRefreshMiddlewareAdmin)
	admin.POST("/categories", d.CategoryHandler.CreateCategory)
	admin.PATCH("/categories/:id", d.CategoryHandler.PatchCategory)
	admin.DELETE("/categories/:id", d.CategoryHandler.DeleteCategory)
	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)
	admin.GET("/orders", d.OrderHandler.ListOrders)
	admin.PATCH("/orders/:id/status", d.OrderHandler.UpdateOrderStatus)
	admin.PATCH("/orders/:id/payment", d.OrderHandler.UpdatePaymentStatus)
	admin.GET("/settings/:key", d.SettingsHandler.GetSetting)
	admin.PUT("/settings/:key", d.SettingsHandler.PutSetting)
}
