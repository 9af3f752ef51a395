package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/corporatepay/console-api/app"
	"github.com/corporatepay/console-api/handlers"
	"github.com/corporatepay/console-api/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(propagateRequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Handlers
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.PolicySvc, deps.Logger)
	authHandler := handlers.NewAuthHandler(deps.APIKeySvc, deps.TokenIssuer, deps.Logger)
	policyHandler := handlers.NewPolicyHandler(deps.PolicySvc, deps.AuditSvc, deps.Logger)
	groupHandler := handlers.NewGroupHandler(deps.Repos.Groups, deps.Repos.CostCenters, deps.AuditSvc, deps.Logger)
	costCenterHandler := handlers.NewCostCenterHandler(deps.Repos.CostCenters, deps.Repos.ChargebackRules, deps.AuditSvc, deps.Logger)
	chargebackHandler := handlers.NewChargebackHandler(deps.ChargebackSvc, deps.AuditSvc, deps.Logger)
	orgHandler := handlers.NewOrganizationHandler(deps.Repos.Organizations, deps.Logger)
	userHandler := handlers.NewUserHandler(deps.Repos.Users, deps.Repos.Groups, deps.AuditSvc, deps.Logger)
	moduleHandler := handlers.NewModuleHandler(deps.ModuleSvc, deps.AuditSvc, deps.Logger)
	inviteHandler := handlers.NewInviteHandler(deps.InviteSvc, deps.AuditSvc, deps.Logger)
	apiKeyHandler := handlers.NewAPIKeyHandler(deps.APIKeySvc, deps.AuditSvc, deps.Logger)
	auditHandler := handlers.NewAuditHandler(deps.AuditSvc, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// Token exchange (API key -> JWT)
	r.Post("/auth/token", authHandler.HandleToken)

	// Public invite acceptance wizard; the token is the credential
	r.Route("/invites", func(r chi.Router) {
		r.Get("/{token}", inviteHandler.HandleValidateInvite)
		r.Post("/{token}/accept", inviteHandler.HandleAcceptInvite)
	})

	adminOnly := deps.AuthMiddleware.RequirePolicyManager

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)
		r.Use(deps.AuthMiddleware.ExtractTenant)

		// Organization settings
		r.Route("/org", func(r chi.Router) {
			r.Get("/", orgHandler.HandleGetOrganization)
			r.With(adminOnly).Patch("/", orgHandler.HandleUpdateOrganization)
		})

		// Policy management
		r.Route("/policy", func(r chi.Router) {
			r.Get("/", policyHandler.HandleGetPolicy)
			r.With(adminOnly).Put("/", policyHandler.HandleUpdatePolicy)
			r.Get("/effective", policyHandler.HandleGetEffective)
			r.Get("/sources", policyHandler.HandleGetSources)
			r.Post("/simulate", policyHandler.HandleSimulate)

			r.Route("/overrides/{scope}/{id}", func(r chi.Router) {
				r.Get("/", policyHandler.HandleGetOverride)
				r.With(adminOnly).Put("/", policyHandler.HandleUpsertOverride)
				r.With(adminOnly).Delete("/", policyHandler.HandleDeleteOverride)
			})
		})

		// Group management
		r.Route("/groups", func(r chi.Router) {
			r.Get("/", groupHandler.HandleListGroups)
			r.With(adminOnly).Post("/", groupHandler.HandleCreateGroup)
			r.Get("/{id}", groupHandler.HandleGetGroup)
			r.With(adminOnly).Patch("/{id}", groupHandler.HandleUpdateGroup)
			r.With(adminOnly).Delete("/{id}", groupHandler.HandleDeleteGroup)
		})

		// Cost centers
		r.Route("/cost-centers", func(r chi.Router) {
			r.Get("/", costCenterHandler.HandleListCostCenters)
			r.With(adminOnly).Post("/", costCenterHandler.HandleCreateCostCenter)
			r.With(adminOnly).Delete("/{id}", costCenterHandler.HandleDeleteCostCenter)
		})

		// Chargeback rules
		r.Route("/chargeback", func(r chi.Router) {
			r.Get("/rules", chargebackHandler.HandleListRules)
			r.With(adminOnly).Post("/rules", chargebackHandler.HandleCreateRule)
			r.With(adminOnly).Patch("/rules/{id}", chargebackHandler.HandleUpdateRule)
			r.With(adminOnly).Delete("/rules/{id}", chargebackHandler.HandleDeleteRule)
			r.Post("/preview", chargebackHandler.HandlePreview)
		})

		// Member management
		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.HandleListUsers)
			r.Get("/me", userHandler.HandleGetCurrentUser)
			r.Get("/{id}", userHandler.HandleGetUser)
			r.With(adminOnly).Patch("/{id}", userHandler.HandleUpdateUser)
		})

		// Module settings
		r.Route("/modules", func(r chi.Router) {
			r.Get("/", moduleHandler.HandleListModules)
			r.With(adminOnly).Put("/{module}", moduleHandler.HandleToggleModule)
		})

		// Invite administration
		r.Route("/invites", func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/", inviteHandler.HandleListInvites)
			r.Post("/", inviteHandler.HandleCreateInvite)
			r.Delete("/{id}", inviteHandler.HandleRevokeInvite)
		})

		// Developer center
		r.Route("/developer/keys", func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/", apiKeyHandler.HandleListAPIKeys)
			r.Post("/", apiKeyHandler.HandleCreateAPIKey)
			r.Delete("/{id}", apiKeyHandler.HandleRevokeAPIKey)
		})

		// Governance trail
		r.With(adminOnly).Get("/audit", auditHandler.HandleListAuditLogs)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}

// propagateRequestID copies chi's request ID into the application context key
// so handlers and audit entries can reference it.
func propagateRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
			ctx = middleware.WithRequestID(ctx, reqID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
