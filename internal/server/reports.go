package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"worktrack/internal/domain"
	"worktrack/internal/engine"
	"worktrack/internal/repo"
)

type CreateReportRequest struct {
	Title              string   `json:"title"`
	PeriodStart        string   `json:"period_start" format:"date"`
	PeriodEnd          string   `json:"period_end" format:"date"`
	ReportType         string   `json:"report_type" enum:"weekly,monthly,quarterly,annual,custom"`
	Content            string   `json:"content,omitempty"`
	ActivitiesIncluded []string `json:"activities_included,omitempty"`
	StoriesIncluded    []string `json:"stories_included,omitempty"`
}

type UpdateReportRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Status  *string `json:"status,omitempty" enum:"draft,complete,failed"`
}

type ReportListResponse struct {
	Items  []domain.Report `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

func reportInput(r CreateReportRequest) engine.ReportInput {
	return engine.ReportInput{
		Title:              r.Title,
		PeriodStart:        r.PeriodStart,
		PeriodEnd:          r.PeriodEnd,
		ReportType:         r.ReportType,
		Content:            r.Content,
		ActivitiesIncluded: r.ActivitiesIncluded,
		StoriesIncluded:    r.StoriesIncluded,
	}
}

func registerReports(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-report",
		Method:        http.MethodPost,
		Path:          "/reports",
		Summary:       "Create report",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body CreateReportRequest `json:"body"`
	}) (*struct {
		Body domain.Report `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		rep, err := e.CreateReport(ctx, userID, reportInput(input.Body))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Report `json:"body"`
		}{Body: rep}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "generate-report",
		Method:        http.MethodPost,
		Path:          "/reports/generate",
		Summary:       "Generate report content from activities",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		Body CreateReportRequest `json:"body"`
	}) (*struct {
		Body domain.Report `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		rep, err := e.GenerateReport(ctx, userID, reportInput(input.Body))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Report `json:"body"`
		}{Body: rep}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-reports",
		Method:      http.MethodGet,
		Path:        "/reports",
		Summary:     "List reports",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		ReportType string `query:"report_type" enum:",weekly,monthly,quarterly,annual,custom"`
		Status     string `query:"status" enum:",draft,generating,complete,failed"`
		Limit      int    `query:"limit"`
		Offset     int    `query:"offset"`
	}) (*struct {
		Body ReportListResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		list, err := e.ListReports(ctx, repo.ReportFilters{
			UserID:     userID,
			ReportType: input.ReportType,
			Status:     input.Status,
			Limit:      input.Limit,
			Offset:     input.Offset,
		})
		if err != nil {
			return nil, handleError(err)
		}
		if list.Items == nil {
			list.Items = []domain.Report{}
		}
		return &struct {
			Body ReportListResponse `json:"body"`
		}{Body: ReportListResponse(list)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-report",
		Method:      http.MethodGet,
		Path:        "/reports/{report_id}",
		Summary:     "Get report",
		Errors:      []int{http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		ReportID string `path:"report_id"`
	}) (*struct {
		Body domain.Report `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		rep, err := e.GetReport(ctx, userID, input.ReportID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Report `json:"body"`
		}{Body: rep}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-report",
		Method:      http.MethodPatch,
		Path:        "/reports/{report_id}",
		Summary:     "Update report",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		ReportID string              `path:"report_id"`
		Body     UpdateReportRequest `json:"body"`
	}) (*struct {
		Body domain.Report `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		rep, err := e.UpdateReport(ctx, userID, input.ReportID, engine.ReportPatch{
			Title:   input.Body.Title,
			Content: input.Body.Content,
			Status:  input.Body.Status,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Report `json:"body"`
		}{Body: rep}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-report",
		Method:        http.MethodDelete,
		Path:          "/reports/{report_id}",
		Summary:       "Delete report",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		ReportID string `path:"report_id"`
	}) (*struct{}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteReport(ctx, userID, input.ReportID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}
