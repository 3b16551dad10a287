package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))

	// Admin routes (require an admin bearer token)
	s.RegisterRouteHandler("GET "+RouteAdminBusinesses, ChainMiddleware(s.ListBusinessesHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireAdmin())...))
	s.RegisterRouteHandler("PATCH "+RouteAdminBusinessStatus, ChainMiddleware(s.UpdateBranchStatusHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireAdmin())...))
	s.RegisterRouteHandler("DELETE "+RouteAdminBusiness, ChainMiddleware(s.DeleteBusinessHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireAdmin())...))
	s.RegisterRouteHandler("DELETE "+RouteAdminBranch, ChainMiddleware(s.DeleteBranchHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireAdmin())...))

	// CORS preflight for every path
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(s.NotFoundHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

// NotFoundHandler answers with the JSON error body.
func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, "Route not found", nil)
	}
}
