package server

import "github.com/jrsteele09/livee-admin-console/business"

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteAuthLogin   = "/auth/login"
	RouteAuthRefresh = "/auth/refresh"

	// Admin Routes
	RouteAdminBusinesses     = business.RouteBusinesses
	RouteAdminBusiness       = business.RouteBusiness
	RouteAdminBusinessStatus = business.RouteBusinessStatus
	RouteAdminBranch         = business.RouteBranch

	// Operational Routes
	RouteMetrics = "/metrics"
)
