package server

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"worktrack/internal/calendar"
	"worktrack/internal/domain"
	"worktrack/internal/engine"
)

type CalendarSyncRequest struct {
	DateFrom string `json:"date_from,omitempty" format:"date"`
	DateTo   string `json:"date_to,omitempty" format:"date"`
}

type SuggestionDecisionRequest struct {
	Action    string                 `json:"action" enum:"accept,modify,reject"`
	Overrides *CreateActivityRequest `json:"overrides,omitempty"`
}

func parseDateOr(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return fallback
}

func registerCalendar(api huma.API, svc *calendar.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "calendar-sync",
		Method:      http.MethodPost,
		Path:        "/calendar/sync",
		Summary:     "Pull calendar events into suggestions",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body CalendarSyncRequest `json:"body"`
	}) (*struct {
		Body []domain.ActivitySuggestion `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		now := time.Now().UTC()
		from := parseDateOr(input.Body.DateFrom, now.AddDate(0, 0, -7))
		to := parseDateOr(input.Body.DateTo, now)
		items, err := svc.Sync(ctx, userID, from, to)
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.ActivitySuggestion{}
		}
		return &struct {
			Body []domain.ActivitySuggestion `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-calendar-suggestions",
		Method:      http.MethodGet,
		Path:        "/calendar/suggestions",
		Summary:     "List activity suggestions",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" enum:",pending,accepted,modified,rejected"`
		Limit  int    `query:"limit"`
	}) (*struct {
		Body []domain.ActivitySuggestion `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := svc.Engine.Repo.ListSuggestions(ctx, userID, input.Status, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.ActivitySuggestion{}
		}
		return &struct {
			Body []domain.ActivitySuggestion `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "decide-calendar-suggestion",
		Method:      http.MethodPost,
		Path:        "/calendar/suggestions/{suggestion_id}/decision",
		Summary:     "Accept, modify or reject a suggestion",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		SuggestionID string                    `path:"suggestion_id"`
		Body         SuggestionDecisionRequest `json:"body"`
	}) (*struct {
		Body domain.ActivitySuggestion `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		var overrides *engine.ActivityInput
		if input.Body.Overrides != nil {
			in := activityInput(*input.Body.Overrides)
			overrides = &in
		}
		sug, err := svc.Decide(ctx, userID, input.SuggestionID, calendar.Decision{
			Action:    input.Body.Action,
			Overrides: overrides,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ActivitySuggestion `json:"body"`
		}{Body: sug}, nil
	})
}
