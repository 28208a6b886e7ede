package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ashtraymarket/pkg/logger"
	"ashtraymarket/pkg/metrics"
)

// SetupRoutes настраивает все маршруты приложения с использованием Gin
func SetupRoutes(
	userHandler *UserHandler,
	shopHandler *ShopHandler,
	catalogHandler *CatalogHandler,
	orderHandler *OrderHandler,
	reviewHandler *ReviewHandler,
	uploadHandler *UploadHandler,
	authMiddleware *AuthMiddleware,
) *gin.Engine {
	router := gin.New()

	// Recovery middleware для обработки panic
	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов
	router.Use(logger.GinLoggerMiddleware())

	// Prometheus metrics middleware
	router.Use(metrics.GinPrometheusMiddleware("marketplace"))

	// CORS настройки
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "marketplace",
		})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Публичные эндпоинты аутентификации
	auth := router.Group("/auth")
	{
		auth.POST("/register", userHandler.Register)
		auth.POST("/login", userHandler.Login)
		auth.POST("/refresh", userHandler.RefreshToken)
		auth.POST("/logout", userHandler.Logout)
	}

	// Профиль текущего пользователя
	users := router.Group("/users")
	users.Use(authMiddleware.Authenticate())
	{
		users.GET("/me", userHandler.GetMe)
		users.PUT("/me", userHandler.UpdateMe)
		users.POST("/me/password", userHandler.ChangePassword)
		users.DELETE("/me", userHandler.DeleteMe)
		users.POST("/me/addresses", userHandler.CreateAddress)
		users.GET("/me/addresses", userHandler.ListAddresses)
		users.DELETE("/me/addresses/:id", userHandler.DeleteAddress)
	}

	// Магазины: чтение публично, изменение только владельцем
	shops := router.Group("/shops")
	{
		shops.GET("", shopHandler.ListShops)
		shops.GET("/:id", shopHandler.GetShop)
		shops.GET("/:id/reviews", reviewHandler.ListShopReviews)
		shops.GET("/:id/rating", reviewHandler.GetShopRating)

		protected := shops.Group("")
		protected.Use(authMiddleware.Authenticate())
		{
			protected.POST("", shopHandler.CreateShop)
			protected.GET("/my", shopHandler.GetOwnShop)
			protected.PUT("/:id", shopHandler.UpdateShop)
			protected.DELETE("/:id", shopHandler.DeleteShop)
		}
	}

	// Товары: чтение публично, изменение только владельцем магазина
	products := router.Group("/products")
	{
		products.GET("", catalogHandler.ListProducts)
		products.GET("/:id", catalogHandler.GetProduct)
		products.GET("/:id/price-history", catalogHandler.GetPriceHistory)
		products.GET("/:id/reviews", reviewHandler.ListProductReviews)
		products.GET("/:id/rating", reviewHandler.GetProductRating)

		protected := products.Group("")
		protected.Use(authMiddleware.Authenticate())
		{
			protected.POST("", catalogHandler.CreateProduct)
			protected.PUT("/:id", catalogHandler.UpdateProduct)
			protected.PUT("/:id/price", catalogHandler.ChangePrice)
			protected.DELETE("/:id", catalogHandler.DeleteProduct)
		}
	}

	// Категории: чтение публично, изменение только персоналом
	categories := router.Group("/categories")
	{
		categories.GET("", catalogHandler.GetCategories)

		staffOnly := categories.Group("")
		staffOnly.Use(authMiddleware.Authenticate())
		staffOnly.Use(authMiddleware.RequireStaff())
		{
			staffOnly.POST("", catalogHandler.CreateCategory)
			staffOnly.PUT("/:id", catalogHandler.UpdateCategory)
			staffOnly.DELETE("/:id", catalogHandler.DeleteCategory)
		}
	}

	// Списки желаний
	wishlist := router.Group("/wishlist")
	wishlist.Use(authMiddleware.Authenticate())
	{
		wishlist.GET("", catalogHandler.GetWishlist)
		wishlist.POST("", catalogHandler.AddToWishlist)
		wishlist.DELETE("/:product_id", catalogHandler.RemoveFromWishlist)
	}

	// Загрузка изображений
	uploads := router.Group("/uploads")
	uploads.Use(authMiddleware.Authenticate())
	{
		uploads.POST("", uploadHandler.UploadImage)
	}

	// Заказы
	orders := router.Group("/orders")
	orders.Use(authMiddleware.Authenticate())
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.PUT("/:id/status", authMiddleware.RequireStaff(), orderHandler.UpdateOrderStatus)
	}

	// Отзывы
	reviews := router.Group("/reviews")
	{
		reviews.GET("/:id", reviewHandler.GetReview)

		protected := reviews.Group("")
		protected.Use(authMiddleware.Authenticate())
		{
			protected.POST("", reviewHandler.CreateReview)
			protected.PUT("/:id", reviewHandler.UpdateReview)
			protected.DELETE("/:id", reviewHandler.DeleteReview)
			protected.POST("/:id/rate", reviewHandler.RateReview)
		}
	}

	// Admin эндпоинты - только для персонала
	admin := router.Group("/admin")
	admin.Use(authMiddleware.Authenticate())
	admin.Use(authMiddleware.RequireStaff())
	{
		admin.GET("/users", userHandler.ListUsers)
		admin.POST("/superusers", userHandler.CreateSuperuser)
	}

	return router
}
