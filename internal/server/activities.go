package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"worktrack/internal/domain"
	"worktrack/internal/engine"
	"worktrack/internal/repo"
)

type CreateActivityRequest struct {
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	Category        string         `json:"category" enum:"customer_engagement,learning,speaking,mentoring,technical_consultation,content_creation"`
	Tags            []string       `json:"tags,omitempty"`
	ImpactLevel     *int           `json:"impact_level,omitempty" minimum:"1" maximum:"5"`
	Date            string         `json:"date" format:"date"`
	DurationMinutes *int           `json:"duration_minutes,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

type UpdateActivityRequest struct {
	Title           *string         `json:"title,omitempty"`
	Description     *string         `json:"description,omitempty"`
	Category        *string         `json:"category,omitempty" enum:"customer_engagement,learning,speaking,mentoring,technical_consultation,content_creation"`
	Tags            *[]string       `json:"tags,omitempty"`
	ImpactLevel     *int            `json:"impact_level,omitempty" minimum:"1" maximum:"5"`
	Date            *string         `json:"date,omitempty" format:"date"`
	DurationMinutes *int            `json:"duration_minutes,omitempty"`
	Metadata        *map[string]any `json:"metadata,omitempty"`
}

type ActivityListResponse struct {
	Items  []domain.Activity `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

func activityInput(r CreateActivityRequest) engine.ActivityInput {
	return engine.ActivityInput{
		Title:           r.Title,
		Description:     r.Description,
		Category:        r.Category,
		Tags:            r.Tags,
		ImpactLevel:     r.ImpactLevel,
		Date:            r.Date,
		DurationMinutes: r.DurationMinutes,
		Metadata:        r.Metadata,
	}
}

func registerActivities(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-activity",
		Method:        http.MethodPost,
		Path:          "/activities",
		Summary:       "Create activity",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body CreateActivityRequest `json:"body"`
	}) (*struct {
		Body domain.Activity `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.CreateActivity(ctx, userID, activityInput(input.Body))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Activity `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-activities",
		Method:      http.MethodGet,
		Path:        "/activities",
		Summary:     "List activities",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Category  string   `query:"category"`
		Tags      []string `query:"tags"`
		DateFrom  string   `query:"date_from"`
		DateTo    string   `query:"date_to"`
		ImpactMin int      `query:"impact_min"`
		ImpactMax int      `query:"impact_max"`
		Search    string   `query:"search"`
		Limit     int      `query:"limit"`
		Offset    int      `query:"offset"`
	}) (*struct {
		Body ActivityListResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		list, err := e.ListActivities(ctx, repo.ActivityFilters{
			UserID:    userID,
			Category:  input.Category,
			Tags:      input.Tags,
			DateFrom:  input.DateFrom,
			DateTo:    input.DateTo,
			ImpactMin: input.ImpactMin,
			ImpactMax: input.ImpactMax,
			Search:    input.Search,
			Limit:     input.Limit,
			Offset:    input.Offset,
		})
		if err != nil {
			return nil, handleError(err)
		}
		if list.Items == nil {
			list.Items = []domain.Activity{}
		}
		return &struct {
			Body ActivityListResponse `json:"body"`
		}{Body: ActivityListResponse(list)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-activity",
		Method:      http.MethodGet,
		Path:        "/activities/{activity_id}",
		Summary:     "Get activity",
		Errors:      []int{http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		ActivityID string `path:"activity_id"`
	}) (*struct {
		Body domain.Activity `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.GetActivity(ctx, userID, input.ActivityID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Activity `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-activity",
		Method:      http.MethodPatch,
		Path:        "/activities/{activity_id}",
		Summary:     "Update activity",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		ActivityID string                `path:"activity_id"`
		Body       UpdateActivityRequest `json:"body"`
	}) (*struct {
		Body domain.Activity `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.UpdateActivity(ctx, userID, input.ActivityID, engine.ActivityPatch{
			Title:           input.Body.Title,
			Description:     input.Body.Description,
			Category:        input.Body.Category,
			Tags:            input.Body.Tags,
			ImpactLevel:     input.Body.ImpactLevel,
			Date:            input.Body.Date,
			DurationMinutes: input.Body.DurationMinutes,
			Metadata:        input.Body.Metadata,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Activity `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-activity",
		Method:        http.MethodDelete,
		Path:          "/activities/{activity_id}",
		Summary:       "Delete activity",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		ActivityID string `path:"activity_id"`
	}) (*struct{}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteActivity(ctx, userID, input.ActivityID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "suggest-activity-tags",
		Method:      http.MethodGet,
		Path:        "/activities/suggestions/tags",
		Summary:     "Suggest tags from history",
	}, func(ctx context.Context, input *struct {
		Partial string `query:"partial"`
		Limit   int    `query:"limit"`
	}) (*struct {
		Body []string `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		tags, err := e.TagSuggestions(ctx, userID, input.Partial, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		if tags == nil {
			tags = []string{}
		}
		return &struct {
			Body []string `json:"body"`
		}{Body: tags}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "suggest-activity-titles",
		Method:      http.MethodGet,
		Path:        "/activities/suggestions/titles",
		Summary:     "Suggest titles from history",
	}, func(ctx context.Context, input *struct {
		Partial string `query:"partial"`
		Limit   int    `query:"limit"`
	}) (*struct {
		Body []string `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		titles, err := e.TitleSuggestions(ctx, userID, input.Partial, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		if titles == nil {
			titles = []string{}
		}
		return &struct {
			Body []string `json:"body"`
		}{Body: titles}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "activity-category-summary",
		Method:      http.MethodGet,
		Path:        "/activities/summary/categories",
		Summary:     "Activity counts per category",
	}, func(ctx context.Context, input *struct {
		DateFrom string `query:"date_from"`
		DateTo   string `query:"date_to"`
	}) (*struct {
		Body map[string]int `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		summary, err := e.CategorySummary(ctx, userID, input.DateFrom, input.DateTo)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]int `json:"body"`
		}{Body: summary}, nil
	})
}
