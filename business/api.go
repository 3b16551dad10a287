package business

import (
	"context"
	"net/url"
	"strconv"
)

// Resource is the query cache family of the business list.
const Resource = "businesses"

const (
	RouteBusinesses     = "/admin/businesses"
	RouteBusiness       = "/admin/businesses/{businessId}"
	RouteBusinessStatus = "/admin/businesses/{businessId}/status"
	RouteBranch         = "/admin/branches/{id}"
)

// Transport is the subset of apiclient.Client the service calls.
type Transport interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Patch(ctx context.Context, path string, in, out any) error
	Delete(ctx context.Context, path string) error
}

func businessPath(id string) string {
	return RouteBusinesses + "/" + url.PathEscape(id)
}

func businessStatusPath(id string) string {
	return businessPath(id) + "/status"
}

func branchPath(id string) string {
	return "/admin/branches/" + url.PathEscape(id)
}

func pageQuery(page, limit int) url.Values {
	return url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
}
