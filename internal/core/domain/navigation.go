package domain

// NavItem is one entry of a dashboard sidebar.
type NavItem struct {
	Path     string `json:"path"`
	Title    string `json:"title"`
	Icon     string `json:"icon"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Placeholder entries point at "#" until the page exists.
const navPlaceholder = "#"

var userNavigation = []NavItem{
	{Path: RouteDashboard, Title: "Dashboard", Icon: "dashboard"},
	{Path: RouteDashboardProfile, Title: "Profile Settings", Icon: "person"},
	{Path: navPlaceholder, Title: "Accounts", Icon: "account_circle", Disabled: true},
	{Path: navPlaceholder, Title: "Billing", Icon: "payment", Disabled: true},
	{Path: navPlaceholder, Title: "Payout", Icon: "store", Disabled: true},
	{Path: navPlaceholder, Title: "Certificates", Icon: "card_membership", Disabled: true},
	{Path: navPlaceholder, Title: "Affiliates", Icon: "group", Disabled: true},
	{Path: navPlaceholder, Title: "Academy", Icon: "school", Disabled: true},
	{Path: navPlaceholder, Title: "Support", Icon: "help_outline", Disabled: true},
}

var adminNavigation = []NavItem{
	{Path: RouteAdmin, Title: "Dashboard", Icon: "admin_panel_settings"},
	{Path: RouteAdminUsers, Title: "Users", Icon: "people"},
	{Path: RouteAdminActivity, Title: "Activity Log", Icon: "assignment"},
	{Path: navPlaceholder, Title: "Settings", Icon: "settings", Disabled: true},
	{Path: navPlaceholder, Title: "Analytics", Icon: "analytics", Disabled: true},
	{Path: navPlaceholder, Title: "Reports", Icon: "assessment", Disabled: true},
	{Path: navPlaceholder, Title: "Notifications", Icon: "notifications", Disabled: true},
}

// NavigationFor returns a copy of the sidebar items for role.
func NavigationFor(r Role) []NavItem {
	src := userNavigation
	if r == RoleAdmin {
		src = adminNavigation
	}
	out := make([]NavItem, len(src))
	copy(out, src)
	return out
}

// PageTitle returns the navigation title registered for path, or "Dashboard".
func PageTitle(path string) string {
	path = normalizePath(path)
	for _, items := range [][]NavItem{userNavigation, adminNavigation} {
		for _, it := range items {
			if it.Path == path {
				return it.Title
			}
		}
	}
	return "Dashboard"
}
