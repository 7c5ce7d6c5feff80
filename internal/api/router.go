package api

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erazemk/najdeno/internal/lifecycle"
	"github.com/erazemk/najdeno/internal/model"
)

// DefaultMaxUploadBytes caps a multipart submission when no limit is given.
const DefaultMaxUploadBytes = 10 << 20

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, svc *lifecycle.Service, maxUploadBytes int64) http.Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{Service: svc, MaxUploadBytes: maxUploadBytes}
	claimsHandler := &ClaimsHandler{Service: svc}
	adminHandler := &AdminHandler{Service: svc}
	imagesHandler := &ImagesHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	optionalAuth := OptionalAuth(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: account creation and login.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated account routes.
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Feed and detail are readable anonymously; a token unlocks the
	// caller's own pending posts.
	mux.Handle("GET /api/items", optionalAuth(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("GET /api/items/{id}", optionalAuth(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("GET /api/images/{id}", http.HandlerFunc(imagesHandler.Get))

	// Items and claims (any signed-in user).
	mux.Handle("GET /api/items/mine", authMW(http.HandlerFunc(itemsHandler.Mine)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("POST /api/items/{id}/found", authMW(http.HandlerFunc(itemsHandler.ReportFound)))
	mux.Handle("POST /api/items/{id}/claims", authMW(http.HandlerFunc(itemsHandler.Claim)))
	mux.Handle("POST /api/items/{id}/proof", authMW(http.HandlerFunc(itemsHandler.Proof)))
	mux.Handle("POST /api/items/{id}/returned", authMW(http.HandlerFunc(itemsHandler.Returned)))
	mux.Handle("GET /api/claims/mine", authMW(http.HandlerFunc(claimsHandler.Mine)))

	// Moderation and user management (admin only).
	mux.Handle("GET /api/admin/backlog", authMW(requireAdmin(http.HandlerFunc(adminHandler.Backlog))))
	mux.Handle("POST /api/admin/items/{id}/approve", authMW(requireAdmin(http.HandlerFunc(adminHandler.ApproveItem))))
	mux.Handle("POST /api/admin/items/{id}/reject", authMW(requireAdmin(http.HandlerFunc(adminHandler.RejectItem))))
	mux.Handle("POST /api/admin/claims/{id}/approve", authMW(requireAdmin(http.HandlerFunc(adminHandler.ApproveClaim))))
	mux.Handle("POST /api/admin/claims/{id}/reject", authMW(requireAdmin(http.HandlerFunc(adminHandler.RejectClaim))))
	mux.Handle("GET /api/admin/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("PUT /api/admin/users/{id}/role", authMW(requireAdmin(http.HandlerFunc(usersHandler.UpdateRole))))

	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}
