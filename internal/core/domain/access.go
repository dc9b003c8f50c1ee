package domain

// Decision is the outcome of an access check for one request.
type Decision struct {
	Allow    bool
	Redirect string
}

var allow = Decision{Allow: true}

func redirectTo(path string) Decision {
	return Decision{Redirect: path}
}

// Authorize applies the route policy to a request for namespace ns made by
// user (nil when no session resolved). The gate and the page shells both
// call it so they cannot disagree.
//
//	public          + user     -> default route for the user's role
//	user/admin      + no user  -> /auth
//	user-dashboard  + admin    -> /admin
//	admin-dashboard + non-admin -> /dashboard
func Authorize(ns Namespace, user *User) Decision {
	switch ns {
	case NamespacePublic:
		if user != nil {
			return redirectTo(DefaultRouteFor(ResolveRole(user)))
		}
		return allow
	case NamespaceUser:
		if user == nil {
			return redirectTo(RouteAuth)
		}
		if ResolveRole(user) == RoleAdmin {
			return redirectTo(RouteAdmin)
		}
		return allow
	case NamespaceAdmin:
		if user == nil {
			return redirectTo(RouteAuth)
		}
		if ResolveRole(user) != RoleAdmin {
			return redirectTo(RouteDashboard)
		}
		return allow
	}
	return allow
}

// HomeRedirect returns where the bare "/" route sends the caller.
func HomeRedirect(user *User) string {
	if user == nil {
		return RouteAuth
	}
	return DefaultRouteFor(ResolveRole(user))
}
