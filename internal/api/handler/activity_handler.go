package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

type ActivityHandler struct {
	activities ports.ActivityService
}

func NewActivityHandler(activities ports.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

type appendActivityRequest struct {
	Type    domain.ActivityType `json:"type"    validate:"required"`
	Message string              `json:"message" validate:"required,max=500"`
}

type pruneRequest struct {
	KeepCount int `json:"keep_count" validate:"gte=0"`
}

type pruneResponse struct {
	Deleted int64 `json:"deleted"`
}

// queryLimit parses ?limit=. Missing means def.
func queryLimit(c echo.Context, def int) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domain.NewValidationError("limit", "must be a positive integer")
	}
	return n, nil
}

// List returns the signed-in user's most recent activities.
//
// @Summary      Own activity trail
// @Tags         activities
// @Produce      json
// @Param        limit  query     int  false  "At most 5"
// @Success      200    {object}  activityListResponse
// @Failure      401    {object}  errorBody
// @Router       /api/activities [get]
func (h *ActivityHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	limit, err := queryLimit(c, domain.RecentActivityLimit)
	if err != nil {
		return err
	}
	if limit > domain.RecentActivityLimit {
		limit = domain.RecentActivityLimit
	}

	items, err := h.activities.List(c.Request().Context(), user.ID, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(items))
}

// Append records a chart interaction on the signed-in user's trail.
//
// @Summary      Record activity
// @Tags         activities
// @Accept       json
// @Produce      json
// @Param        body  body      appendActivityRequest  true  "Activity"
// @Success      201   {object}  domain.Activity
// @Failure      422   {object}  errorBody
// @Router       /api/activities [post]
func (h *ActivityHandler) Append(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req appendActivityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if !req.Type.SelfRecordable() {
		return domain.NewValidationError("type", "must be ticker_change or date_filter_update")
	}

	a, err := h.activities.Append(c.Request().Context(), user.ID, req.Type, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

// Prune keeps only the newest keep_count activities of the signed-in user.
//
// @Summary      Prune own trail
// @Tags         activities
// @Accept       json
// @Produce      json
// @Param        body  body      pruneRequest  true  "How many to keep"
// @Success      200   {object}  pruneResponse
// @Router       /api/activities/prune [post]
func (h *ActivityHandler) Prune(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req pruneRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	n, err := h.activities.Prune(c.Request().Context(), user.ID, req.KeepCount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pruneResponse{Deleted: n})
}

// AdminList returns the newest activities of all users with owner names.
//
// @Summary      All activities
// @Tags         admin
// @Produce      json
// @Param        limit  query     int  false  "Default 500, at most 1000"
// @Success      200    {object}  activityListResponse
// @Failure      401    {object}  errorBody
// @Failure      403    {object}  errorBody
// @Failure      500    {object}  errorBody
// @Router       /api/admin/activities [get]
func (h *ActivityHandler) AdminList(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	limit, err := queryLimit(c, domain.DefaultAdminActivityLimit)
	if err != nil {
		return err
	}

	items, err := h.activities.ListAll(c.Request().Context(), limit, domain.ResolveRole(user))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(items))
}

// Types returns the presentation table of every activity type.
//
// @Summary      Activity types
// @Tags         activities
// @Produce      json
// @Success      200  {array}  domain.ActivityStyle
// @Router       /api/activity-types [get]
func (h *ActivityHandler) Types(c echo.Context) error {
	return c.JSON(http.StatusOK, domain.ActivityStyles())
}
