package routes

import (
	"net/http"
	"time"

	"github.com/01moynul/culinamarket/internal/auth"
	"github.com/01moynul/culinamarket/internal/handlers"
	"github.com/01moynul/culinamarket/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Options struct {
	AllowedOrigins []string
	Verifier       *auth.Verifier
	Users          middleware.UserStore
	Log            *zap.Logger
}

// CORSMiddleware lets the storefront frontends call the API with a bearer
// token and a session header.
// An empty origin list allows any origin.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowAllOrigins:  len(origins) == 0,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.SessionHeader, "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length", "X-Catalog-Fallback"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(opts.Log))
	router.Use(CORSMiddleware(opts.AllowedOrigins))

	requireAuth := middleware.AuthMiddleware(opts.Verifier, opts.Users, opts.Log)
	optionalAuth := middleware.OptionalAuth(opts.Verifier, opts.Users, opts.Log)

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Public Catalog ---
		v1.GET("/products", h.GetProducts)
		v1.GET("/products/:id", h.GetProduct)
		v1.GET("/recipes", h.GetRecipes)
		v1.GET("/recipes/:id", h.GetRecipe)

		// --- Shopping Concierge ---
		v1.POST("/chat", h.Chat)

		// --- Session Cart ---
		cartGroup := v1.Group("/cart")
		cartGroup.Use(middleware.Session())
		{
			cartGroup.GET("", h.GetCart)
			cartGroup.DELETE("", h.ClearCart)
			cartGroup.POST("/items", h.AddToCart)
			cartGroup.PUT("/items/:product_id", h.UpdateCartItem)
			cartGroup.DELETE("/items/:product_id", h.DeleteCartItem)
		}

		// --- Checkout (guest or signed in) ---
		v1.POST("/checkout", middleware.Session(), optionalAuth, h.Checkout)

		// --- Protected Routes (Login Required) ---
		authed := v1.Group("/")
		authed.Use(requireAuth)
		{
			authed.GET("/orders", h.GetMyOrders)
			authed.GET("/orders/:id", h.GetOrderDetails)

			authed.GET("/addresses", h.GetAddresses)
			authed.POST("/addresses", h.CreateAddress)
			authed.PUT("/addresses/:id", h.UpdateAddress)
			authed.DELETE("/addresses/:id", h.DeleteAddress)

			authed.GET("/profile", h.GetProfile)
			authed.PUT("/profile", h.UpdateProfile)
		}

		// --- Admin-Only Routes ---
		admin := v1.Group("/admin")
		admin.Use(requireAuth)
		admin.Use(middleware.AdminMiddleware(opts.Users, opts.Log))
		{
			admin.GET("/stats", h.GetDashboardStats)

			admin.GET("/orders", h.GetMyOrders)
			admin.GET("/orders/:id", h.GetOrderDetails)
			admin.PATCH("/orders/:id/status", h.UpdateOrderStatus)

			admin.GET("/products", h.AdminGetProducts)
			admin.POST("/products", h.CreateProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)

			admin.GET("/recipes", h.GetRecipes)
			admin.POST("/recipes", h.CreateRecipe)
			admin.PUT("/recipes/:id", h.UpdateRecipe)
			admin.DELETE("/recipes/:id", h.DeleteRecipe)
			admin.POST("/recipes/:id/ingredients", h.AddRecipeIngredient)
			admin.DELETE("/recipes/:id/ingredients/:ingredient_id", h.RemoveRecipeIngredient)

			admin.GET("/users", h.GetUsers)

			admin.POST("/uploads", h.UploadImage)
			admin.POST("/uploads/validate-url", h.ValidateImageURL)
		}
	}

	return router
}
