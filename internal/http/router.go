package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/krailo/recipe-api/docs"
	"github.com/krailo/recipe-api/internal/auth"
	"github.com/krailo/recipe-api/internal/config"
	"github.com/krailo/recipe-api/internal/httputil"
	"github.com/krailo/recipe-api/internal/logging"
	"github.com/krailo/recipe-api/internal/recipe"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	authHandler *auth.Handler,
	recipeHandler *recipe.Handler,
	authMiddleware *auth.Middleware,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	// Public routes
	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		log.Println("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/doc.json", docs.ServeOpenAPI)
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	} else {
		log.Println("Swagger UI disabled (production mode)")
	}

	// Account routes
	r.Route("/user", func(r chi.Router) {
		r.Post("/create", authHandler.CreateUser)
		r.Post("/token", authHandler.IssueToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Get("/me", authHandler.Me)
			r.Patch("/me", authHandler.UpdateMe)
		})
	})

	// Recipe and tag routes (require authentication)
	r.Route("/recipe", func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Get("/", recipeHandler.List)
		r.Post("/", recipeHandler.Create)

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", recipeHandler.ListTags)
			r.Post("/", recipeHandler.CreateTag)
			r.Get("/{id}", recipeHandler.GetTag)
			r.Put("/{id}", recipeHandler.ReplaceTag)
			r.Patch("/{id}", recipeHandler.PatchTag)
			r.Delete("/{id}", recipeHandler.DeleteTag)
		})

		r.Get("/{id}", recipeHandler.Get)
		r.Put("/{id}", recipeHandler.Replace)
		r.Patch("/{id}", recipeHandler.Patch)
		r.Delete("/{id}", recipeHandler.Delete)
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
