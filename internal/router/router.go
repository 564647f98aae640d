package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"go-case-records/internal/config"
	"go-case-records/internal/handler"
	"go-case-records/internal/middleware"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Folder   *handler.FolderHandler
	Category *handler.CategoryHandler
	File     *handler.FileHandler
	Archive  *handler.ArchiveHandler
	User     *handler.UserHandler
	Audit    *handler.AuditHandler
	Storage  *handler.StorageHandler
	Health   *handler.HealthHandler
	WS       *handler.WSHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Health)
	r.Get("/metrics", h.Health.Metrics)

	r.With(middleware.TransferTimeout(10*time.Minute, time.Minute)).Get("/blobs/{bucket}/*", h.Storage.Download)

	r.Route("/api/v1", func(api chi.Router) {
		// websocket upgrades cannot pass through http.TimeoutHandler
		api.With(authMiddleware.RequireSession).Get("/ws", h.WS.Serve)

		api.Group(func(api chi.Router) {
			api.Use(middleware.Timeout(cfg.RequestTimeout))

			api.Post("/auth/login", h.Auth.Login)

			api.Group(func(api chi.Router) {
				api.Use(authMiddleware.RequireSession)

				api.Route("/auth", func(auth chi.Router) {
					auth.Post("/logout", h.Auth.Logout)
					auth.Get("/me", h.Auth.Me)
					auth.Post("/2fa/setup", h.Auth.BeginTwoFactor)
					auth.Post("/2fa/confirm", h.Auth.ConfirmTwoFactor)
					auth.Post("/2fa/disable", h.Auth.DisableTwoFactor)
				})

				api.Route("/folders", func(folders chi.Router) {
					folders.Get("/", h.Folder.List)
					folders.Post("/", h.Folder.Create)
					folders.Get("/{id}", h.Folder.Get)
					folders.Put("/{id}", h.Folder.Update)
					folders.Post("/{id}/archive", h.Folder.Archive)
				})

				api.Get("/categories", h.Category.List)
				api.Post("/categories", h.Category.Create)

				api.Get("/files/{kind}", h.File.List)
				api.Get("/files/{kind}/{id}", h.File.Get)
				api.Post("/files/{kind}/{id}/archive", h.File.Archive)
				api.Post("/files/{kind}/{id}/{mode}", h.File.Access)

				api.Get("/archive", h.Archive.List)
				api.Post("/archive/restore", h.Archive.Restore)

				api.Route("/users", func(users chi.Router) {
					users.Get("/", h.User.List)
					users.Post("/", h.User.Create)
					users.Get("/{id}", h.User.Get)
					users.Put("/{id}", h.User.Update)
					users.Delete("/{id}", h.User.Delete)
					users.Put("/{id}/role", h.User.ChangeRole)
				})

				api.Get("/audit", h.Audit.List)
				api.Get("/storage", h.Storage.Stats)
			})
		})

		// uploads stream the body, so they get the server write timeout only
		api.With(authMiddleware.RequireSession).Post("/files/{kind}", h.File.Upload)
		api.With(authMiddleware.RequireSession).Put("/files/{kind}/{id}", h.File.Update)
	})

	return r
}
