package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tryon-platform/server/internal/http/handlers"
	"github.com/tryon-platform/server/internal/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute),
	)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	auth := middleware.AuthJWT(app.Config.JWTSecret)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/register", app.AuthRegister)
		r.Post("/login", app.AuthLogin)
		r.With(auth).Get("/me", app.AuthMe)
	})

	r.Route("/v1/products", func(r chi.Router) {
		r.Get("/", app.ProductsList)
		r.Get("/{productID}", app.ProductsGet)
		r.Get("/{productID}/model3d/status", app.Model3DStatus)
		r.Get("/{productID}/model3d/model", app.Model3DModel)

		r.Group(func(r chi.Router) {
			r.Use(auth, middleware.RequireAdmin)
			r.Post("/", app.ProductsCreate)
			r.Put("/{productID}", app.ProductsUpdate)
			r.Delete("/{productID}", app.ProductsDelete)
			r.Post("/{productID}/images", app.ProductsAddImage)
			r.Delete("/{productID}/images", app.ProductsRemoveImage)
			r.Post("/{productID}/model3d/generate", app.Model3DGenerate)
		})
	})

	r.Route("/v1/categories", func(r chi.Router) {
		r.Get("/", app.CategoriesList)
		r.Get("/{categoryID}", app.CategoriesGet)

		r.Group(func(r chi.Router) {
			r.Use(auth, middleware.RequireAdmin)
			r.Post("/", app.CategoriesCreate)
			r.Put("/{categoryID}", app.CategoriesUpdate)
			r.Delete("/{categoryID}", app.CategoriesDelete)
			r.Post("/{categoryID}/image", app.CategoriesSetImage)
		})
	})

	r.Route("/v1/recommendations", func(r chi.Router) {
		r.With(middleware.OptionalAuthJWT(app.Config.JWTSecret)).
			Get("/personalized", app.RecommendationsPersonalized)
		r.With(auth).Get("/ai", app.RecommendationsAI)
		r.With(auth).Get("/offers", app.RecommendationsOffers)
	})

	r.Route("/v1/orders", func(r chi.Router) {
		r.Use(auth)
		r.Post("/", app.OrdersCreate)
		r.Get("/", app.OrdersListMine)
		r.With(middleware.RequireAdmin).Get("/all", app.OrdersListAll)
		r.Get("/{orderID}", app.OrdersGet)
		r.With(middleware.RequireAdmin).Put("/{orderID}/status", app.OrdersUpdateStatus)
	})

	r.Route("/v1/coupons", func(r chi.Router) {
		r.With(auth).Post("/validate", app.CouponsValidate)

		r.Group(func(r chi.Router) {
			r.Use(auth, middleware.RequireAdmin)
			r.Post("/", app.CouponsCreate)
			r.Get("/", app.CouponsList)
			r.Delete("/{couponID}", app.CouponsDelete)
		})
	})

	r.Route("/v1/wishlist", func(r chi.Router) {
		r.Use(auth)
		r.Get("/", app.WishlistGet)
		r.Post("/{productID}", app.WishlistAdd)
		r.Delete("/{productID}", app.WishlistRemove)
	})

	r.With(auth).Post("/v1/tryon", app.TryOnGenerate)
	r.Post("/v1/chat", app.ChatMessage)

	return r
}
