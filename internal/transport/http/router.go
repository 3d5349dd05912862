package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"snaps_engagement/internal/handler"
	"snaps_engagement/internal/httputil"
	"snaps_engagement/internal/logger"
	authmw "snaps_engagement/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	EngagementHandler   *handler.EngagementHandler
	CommentHandler      *handler.CommentHandler
	PostHandler         *handler.PostHandler
	CollectionHandler   *handler.CollectionHandler
	UserHandler         *handler.UserHandler
	NotificationHandler *handler.NotificationHandler
	AdminHandler        *handler.AdminHandler
	JWTSecret           string
	AdminToken          string // admin routes are not mounted when empty
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(logger.HTTPMiddleware(*logger.L()))
	r.Use(middleware.Recoverer)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public reads; the viewer's state is included when a token is present.
	r.Group(func(r chi.Router) {
		r.Use(authmw.OptionalAuthMiddleware(cfg.JWTSecret))

		r.Get("/users/{id}", cfg.UserHandler.GetProfile)
		r.Get("/users/{id}/posts", cfg.PostHandler.GetUserPosts)
		r.Get("/posts/{id}", cfg.PostHandler.GetByID)
		r.Get("/posts/{id}/comments", cfg.CommentHandler.List)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Get("/me", cfg.UserHandler.Me)

		// Toggles
		r.Post("/toggles/{kind}/{id}", cfg.EngagementHandler.Toggle)
		r.Post("/users/{id}/follow", cfg.EngagementHandler.ToggleFollow)
		r.Post("/posts/{id}/like", cfg.EngagementHandler.TogglePostLike)
		r.Post("/comments/{id}/like", cfg.EngagementHandler.ToggleCommentLike)
		r.Post("/posts/{id}/bookmark", cfg.EngagementHandler.ToggleBookmark)

		// Posts and comments
		r.Post("/posts", cfg.PostHandler.Create)
		r.Delete("/posts/{id}", cfg.PostHandler.Delete)
		r.Post("/posts/{id}/comments", cfg.CommentHandler.Create)
		r.Patch("/comments/{id}", cfg.CommentHandler.Update)
		r.Delete("/comments/{id}", cfg.CommentHandler.Delete)

		r.Route("/collections", func(r chi.Router) {
			r.Get("/", cfg.CollectionHandler.ListMine)
			r.Post("/", cfg.CollectionHandler.Create)
			r.Delete("/{id}", cfg.CollectionHandler.Delete)
			r.Get("/{id}/posts", cfg.CollectionHandler.ListPosts)
			r.Put("/{id}/posts/{postID}", cfg.CollectionHandler.AddPost)
			r.Delete("/{id}/posts/{postID}", cfg.CollectionHandler.RemovePost)
			r.Put("/{id}/members/{userID}", cfg.CollectionHandler.AddMember)
			r.Delete("/{id}/members/{userID}", cfg.CollectionHandler.RemoveMember)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", cfg.NotificationHandler.List)
			r.Post("/read", cfg.NotificationHandler.MarkRead)
		})
		r.Post("/devices", cfg.NotificationHandler.RegisterDevice)
		r.Delete("/devices", cfg.NotificationHandler.RemoveDevice)
	})

	if cfg.AdminToken != "" {
		r.Route("/admin", func(r chi.Router) {
			r.Use(authmw.AdminMiddleware(cfg.AdminToken))

			r.Post("/users", cfg.UserHandler.Create)
			r.Post("/reconcile/users", cfg.AdminHandler.ReconcileAllUsers)
			r.Post("/reconcile/{entity}/{id}", cfg.AdminHandler.Reconcile)
			r.Delete("/{entity}/{id}", cfg.AdminHandler.SoftDelete)
		})
	}

	return r
}
