package server

import (
	"context"
	"fmt"

	"github.com/lotas/tabsammlung/internal/expiry"
	"github.com/lotas/tabsammlung/internal/organizer"
	"github.com/lotas/tabsammlung/internal/types"
)

// Request is an inbound action from the extension. Action selects the
// variant; the other fields are per-action payload. Unknown actions are
// rejected explicitly, never silently dropped.
type Request struct {
	ID     string `json:"id,omitempty"`
	Action string `json:"action"`

	// urlDragStarted, urlDropped, removeUrlFromStorage
	URL          string `json:"url,omitempty"`
	FromExternal bool   `json:"fromExternal,omitempty"`

	// calculateTimeRemaining
	SavedAt          int64  `json:"savedAt,omitempty"`
	AutoDeletePeriod string `json:"autoDeletePeriod,omitempty"`

	// checkExpiredTabs, updateTabTimestamps
	UpdateTimestamps bool   `json:"updateTimestamps,omitempty"`
	Period           string `json:"period,omitempty"`

	// updateDomainCategorySettings
	Domain           string              `json:"domain,omitempty"`
	SubCategories    []string            `json:"subCategories,omitempty"`
	CategoryKeywords []types.KeywordRule `json:"categoryKeywords,omitempty"`

	// saveTabs
	Tabs []wireTab `json:"tabs,omitempty"`
}

type wireTab struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Response answers one Request, echoing its id.
type Response struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
	Result int    `json:"result,omitempty"`

	// calculateTimeRemaining. TimeRemaining is null when the period
	// never expires.
	TimeRemaining  *int64 `json:"timeRemaining,omitempty"`
	ExpirationTime int64  `json:"expirationTime,omitempty"`

	// getAlarmStatus
	Exists        *bool `json:"exists,omitempty"`
	ScheduledTime int64 `json:"scheduledTime,omitempty"`
}

// AlarmStatusFunc reports the periodic alarm schedule.
type AlarmStatusFunc func() (exists bool, scheduledTime int64)

// Dispatch routes one request to the organizer. Per-action failures
// come back as error responses; the connection stays up regardless.
func Dispatch(ctx context.Context, org *organizer.Organizer, alarmStatus AlarmStatusFunc, req Request) Response {
	resp := Response{ID: req.ID}

	switch req.Action {
	case "saveTabs":
		tabs := make([]types.Tab, 0, len(req.Tabs))
		for _, t := range req.Tabs {
			tabs = append(tabs, types.Tab{URL: t.URL, Title: t.Title})
		}
		res, err := org.SaveTabs(ctx, tabs)
		if err != nil {
			return fail(resp, err)
		}
		resp.Status = "ok"
		resp.Result = res.Added

	case "urlDragStarted":
		org.DragStarted(req.URL)
		resp.Status = "ok"

	case "urlDropped":
		if err := org.Dropped(ctx, req.URL, req.FromExternal); err != nil {
			return fail(resp, err)
		}
		resp.Status = "ok"

	case "removeUrlFromStorage":
		if err := org.RemoveURL(ctx, req.URL); err != nil {
			return fail(resp, err)
		}
		resp.Status = "ok"

	case "calculateTimeRemaining":
		remaining, expiresAt, ok := expiry.Remaining(req.SavedAt, req.AutoDeletePeriod, nowMillis())
		if ok {
			resp.TimeRemaining = &remaining
			resp.ExpirationTime = expiresAt
		}
		resp.Status = "ok"

	case "checkExpiredTabs":
		if req.UpdateTimestamps {
			if _, err := org.BackdateTimestamps(ctx, req.Period); err != nil {
				return fail(resp, err)
			}
		}
		res, err := org.CheckExpired(ctx, req.Period)
		if err != nil {
			return fail(resp, err)
		}
		if res.Disabled {
			resp.Status = "disabled"
		} else {
			resp.Status = "ok"
			resp.Result = res.Evicted
		}

	case "updateTabTimestamps":
		n, err := org.BackdateTimestamps(ctx, req.Period)
		if err != nil {
			return fail(resp, err)
		}
		resp.Status = "ok"
		resp.Result = n

	case "updateDomainCategorySettings":
		if err := org.UpdateDomainCategorySettings(ctx, req.Domain, req.SubCategories, req.CategoryKeywords); err != nil {
			return fail(resp, err)
		}
		resp.Status = "ok"

	case "getAlarmStatus":
		exists, scheduled := alarmStatus()
		resp.Exists = &exists
		if exists {
			resp.ScheduledTime = scheduled
		}
		resp.Status = "ok"

	default:
		return fail(resp, fmt.Errorf("unknown action: %q", req.Action))
	}

	return resp
}

func fail(resp Response, err error) Response {
	resp.Status = "error"
	resp.Error = err.Error()
	return resp
}
