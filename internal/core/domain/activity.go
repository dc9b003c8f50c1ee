package domain

import "time"

// ActivityType is the closed set of user actions recorded in the trail.
type ActivityType string

const (
	ActivityLogin                  ActivityType = "login"
	ActivityProfileUpdate          ActivityType = "profile_update"
	ActivityAdminBalanceAdjustment ActivityType = "admin_balance_adjustment"
	ActivityTickerChange           ActivityType = "ticker_change"
	ActivityDateFilterUpdate       ActivityType = "date_filter_update"
)

// ActivityTypes lists every enumerated type in display order.
var ActivityTypes = []ActivityType{
	ActivityLogin,
	ActivityProfileUpdate,
	ActivityAdminBalanceAdjustment,
	ActivityTickerChange,
	ActivityDateFilterUpdate,
}

// Valid reports whether t is one of the enumerated types.
func (t ActivityType) Valid() bool {
	_, ok := activityStyles[t]
	return ok
}

// SelfRecordable reports whether a user may append t to their own trail.
// The other types are only written by the server.
func (t ActivityType) SelfRecordable() bool {
	return t == ActivityTickerChange || t == ActivityDateFilterUpdate
}

// Retention and view limits for the trail.
const (
	// RecentActivityLimit caps the signed-in user's own activity view.
	RecentActivityLimit = 5
	// DefaultAdminActivityLimit is used when the admin feed is requested without a limit.
	DefaultAdminActivityLimit = 500
	// MaxAdminActivityLimit caps a single admin feed request.
	MaxAdminActivityLimit = 1000
)

// Activity is an immutable, timestamped record of a user action.
// UserName is only populated for admin views.
type Activity struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Type      ActivityType `json:"type"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	UserName  string       `json:"user_name,omitempty"`
}

// Colors is the badge palette used for an activity type.
type Colors struct {
	Background string `json:"bg"`
	Text       string `json:"text"`
	Border     string `json:"border"`
}

// ActivityStyle is the presentation entry for one activity type.
type ActivityStyle struct {
	Type   ActivityType `json:"type"`
	Label  string       `json:"label"`
	Icon   string       `json:"icon"`
	Colors Colors       `json:"colors"`
}

var activityStyles = map[ActivityType]ActivityStyle{
	ActivityLogin: {
		Label: "Login", Icon: "login",
		Colors: Colors{Background: "rgba(76, 175, 80, 0.15)", Text: "#4caf50", Border: "rgba(76, 175, 80, 0.3)"},
	},
	ActivityProfileUpdate: {
		Label: "Profile Update", Icon: "edit",
		Colors: Colors{Background: "rgba(33, 150, 243, 0.15)", Text: "#42a5f5", Border: "rgba(33, 150, 243, 0.3)"},
	},
	ActivityAdminBalanceAdjustment: {
		Label: "Balance Adjustment", Icon: "attach_money",
		Colors: Colors{Background: "rgba(255, 152, 0, 0.15)", Text: "#ffa726", Border: "rgba(255, 152, 0, 0.3)"},
	},
	ActivityTickerChange: {
		Label: "Ticker Change", Icon: "show_chart",
		Colors: Colors{Background: "rgba(156, 39, 176, 0.15)", Text: "#ab47bc", Border: "rgba(156, 39, 176, 0.3)"},
	},
	ActivityDateFilterUpdate: {
		Label: "Date Filter Update", Icon: "calendar_today",
		Colors: Colors{Background: "rgba(96, 125, 139, 0.15)", Text: "#78909c", Border: "rgba(96, 125, 139, 0.3)"},
	},
}

// Style returns the presentation entry for t.
func (t ActivityType) Style() (ActivityStyle, bool) {
	s, ok := activityStyles[t]
	if !ok {
		return ActivityStyle{}, false
	}
	s.Type = t
	return s, true
}

// ActivityStyles returns the presentation table in ActivityTypes order.
func ActivityStyles() []ActivityStyle {
	out := make([]ActivityStyle, 0, len(ActivityTypes))
	for _, t := range ActivityTypes {
		if s, ok := t.Style(); ok {
			out = append(out, s)
		}
	}
	return out
}
