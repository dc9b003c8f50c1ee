package domain

import "strings"

// Namespace groups routes that share one access policy.
type Namespace string

const (
	NamespacePublic Namespace = "public"
	NamespaceUser   Namespace = "user-dashboard"
	NamespaceAdmin  Namespace = "admin-dashboard"
)

// Static application routes.
const (
	RouteHome = "/"
	RouteAuth = "/auth"

	RouteDashboard        = "/dashboard"
	RouteDashboardProfile = "/dashboard/profile"

	RouteAdmin         = "/admin"
	RouteAdminUsers    = "/admin/users"
	RouteAdminActivity = "/admin/activity"
	RouteAdminSettings = "/admin/settings"
)

// namespacePrefixes maps each namespace root to its namespace.
// The public namespace only covers the auth page itself.
var namespacePrefixes = []struct {
	prefix string
	ns     Namespace
	exact  bool
}{
	{prefix: RouteAuth, ns: NamespacePublic, exact: true},
	{prefix: RouteDashboard, ns: NamespaceUser},
	{prefix: RouteAdmin, ns: NamespaceAdmin},
}

// DefaultRouteFor returns the landing route for role.
func DefaultRouteFor(r Role) string {
	if r == RoleAdmin {
		return RouteAdmin
	}
	return RouteDashboard
}

// NamespaceOf returns the namespace owning path. Matching is by whole path
// segments and the longest matching prefix wins.
func NamespaceOf(path string) (Namespace, bool) {
	path = normalizePath(path)

	var (
		best    Namespace
		bestLen = -1
	)
	for _, p := range namespacePrefixes {
		if !segmentMatch(path, p.prefix, p.exact) {
			continue
		}
		if len(p.prefix) > bestLen {
			best, bestLen = p.ns, len(p.prefix)
		}
	}
	return best, bestLen >= 0
}

// Protected reports whether ns requires a signed-in user.
func (ns Namespace) Protected() bool {
	return ns == NamespaceUser || ns == NamespaceAdmin
}

func segmentMatch(path, prefix string, exact bool) bool {
	if path == prefix {
		return true
	}
	if exact {
		return false
	}
	return strings.HasPrefix(path, prefix+"/")
}

func normalizePath(path string) string {
	if path == "" {
		return RouteHome
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return RouteHome
		}
	}
	return path
}
