package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"worktrack/internal/ai"
	"worktrack/internal/domain"
	"worktrack/internal/engine"
	"worktrack/internal/repo"
)

type CreateStoryRequest struct {
	Title         string               `json:"title"`
	Situation     string               `json:"situation,omitempty"`
	Task          string               `json:"task,omitempty"`
	Action        string               `json:"action,omitempty"`
	Result        string               `json:"result,omitempty"`
	ImpactMetrics domain.ImpactMetrics `json:"impact_metrics,omitempty"`
	Tags          []string             `json:"tags,omitempty"`
	Status        string               `json:"status,omitempty" enum:",draft,complete,published"`
}

type UpdateStoryRequest struct {
	Title         *string               `json:"title,omitempty"`
	Situation     *string               `json:"situation,omitempty"`
	Task          *string               `json:"task,omitempty"`
	Action        *string               `json:"action,omitempty"`
	Result        *string               `json:"result,omitempty"`
	ImpactMetrics *domain.ImpactMetrics `json:"impact_metrics,omitempty"`
	Tags          *[]string             `json:"tags,omitempty"`
}

type StoryListResponse struct {
	Items  []domain.Story `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type RenameTagRequest struct {
	OldTag string `json:"old_tag"`
	NewTag string `json:"new_tag"`
}

type TagOperationResponse struct {
	StoriesUpdated int `json:"stories_updated"`
}

func registerStories(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-story",
		Method:        http.MethodPost,
		Path:          "/stories",
		Summary:       "Create story",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body CreateStoryRequest `json:"body"`
	}) (*struct {
		Body domain.Story `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		st, err := e.CreateStory(ctx, userID, engine.StoryInput{
			Title:         input.Body.Title,
			Situation:     input.Body.Situation,
			Task:          input.Body.Task,
			Action:        input.Body.Action,
			Result:        input.Body.Result,
			ImpactMetrics: input.Body.ImpactMetrics,
			Tags:          input.Body.Tags,
			Status:        input.Body.Status,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Story `json:"body"`
		}{Body: st}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-stories",
		Method:      http.MethodGet,
		Path:        "/stories",
		Summary:     "List stories",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Status     string   `query:"status" enum:",draft,complete,published"`
		Tags       []string `query:"tags"`
		AIEnhanced *bool    `query:"ai_enhanced"`
		Search     string   `query:"search"`
		Limit      int      `query:"limit"`
		Offset     int      `query:"offset"`
	}) (*struct {
		Body StoryListResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		list, err := e.ListStories(ctx, repo.StoryFilters{
			UserID:     userID,
			Status:     input.Status,
			Tags:       input.Tags,
			AIEnhanced: input.AIEnhanced,
			Search:     input.Search,
			Limit:      input.Limit,
			Offset:     input.Offset,
		})
		if err != nil {
			return nil, handleError(err)
		}
		if list.Items == nil {
			list.Items = []domain.Story{}
		}
		return &struct {
			Body StoryListResponse `json:"body"`
		}{Body: StoryListResponse(list)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "story-templates",
		Method:      http.MethodGet,
		Path:        "/stories/templates",
		Summary:     "Built-in story templates",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []engine.StoryTemplate `json:"body"`
	}, error) {
		return &struct {
			Body []engine.StoryTemplate `json:"body"`
		}{Body: engine.StoryTemplates()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "story-summaries",
		Method:      http.MethodGet,
		Path:        "/stories/summaries",
		Summary:     "Recent story summaries",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit"`
	}) (*struct {
		Body []engine.StorySummary `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		summaries, err := e.StorySummaries(ctx, userID, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		if summaries == nil {
			summaries = []engine.StorySummary{}
		}
		return &struct {
			Body []engine.StorySummary `json:"body"`
		}{Body: summaries}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "story-tags",
		Method:      http.MethodGet,
		Path:        "/stories/tags",
		Summary:     "Distinct tags across stories",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []string `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		tags, err := e.StoryTags(ctx, userID)
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
		OperationID: "story-categories",
		Method:      http.MethodGet,
		Path:        "/stories/categories",
		Summary:     "Story counts per metric category",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]int `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		cats, err := e.StoryCategories(ctx, userID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]int `json:"body"`
		}{Body: cats}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "rename-story-tag",
		Method:      http.MethodPost,
		Path:        "/stories/tags/rename",
		Summary:     "Rename a tag across all stories",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body RenameTagRequest `json:"body"`
	}) (*struct {
		Body TagOperationResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		n, err := e.BulkRenameStoryTag(ctx, userID, input.Body.OldTag, input.Body.NewTag)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TagOperationResponse `json:"body"`
		}{Body: TagOperationResponse{StoriesUpdated: n}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-story-tag",
		Method:      http.MethodPost,
		Path:        "/stories/tags/delete",
		Summary:     "Remove a tag from all stories",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body struct {
			Tag string `json:"tag"`
		} `json:"body"`
	}) (*struct {
		Body TagOperationResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		n, err := e.DeleteStoryTag(ctx, userID, input.Body.Tag)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TagOperationResponse `json:"body"`
		}{Body: TagOperationResponse{StoriesUpdated: n}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-story",
		Method:      http.MethodGet,
		Path:        "/stories/{story_id}",
		Summary:     "Get story",
		Errors:      []int{http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		StoryID string `path:"story_id"`
	}) (*struct {
		Body domain.Story `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		st, err := e.GetStory(ctx, userID, input.StoryID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Story `json:"body"`
		}{Body: st}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-story",
		Method:      http.MethodPatch,
		Path:        "/stories/{story_id}",
		Summary:     "Update story",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		StoryID string             `path:"story_id"`
		Body    UpdateStoryRequest `json:"body"`
	}) (*struct {
		Body domain.Story `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		st, err := e.UpdateStory(ctx, userID, input.StoryID, engine.StoryPatch{
			Title:         input.Body.Title,
			Situation:     input.Body.Situation,
			Task:          input.Body.Task,
			Action:        input.Body.Action,
			Result:        input.Body.Result,
			ImpactMetrics: input.Body.ImpactMetrics,
			Tags:          input.Body.Tags,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Story `json:"body"`
		}{Body: st}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-story",
		Method:        http.MethodDelete,
		Path:          "/stories/{story_id}",
		Summary:       "Delete story",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		StoryID string `path:"story_id"`
	}) (*struct{}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteStory(ctx, userID, input.StoryID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-story-status",
		Method:      http.MethodPost,
		Path:        "/stories/{story_id}/status",
		Summary:     "Change story status",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		StoryID string `path:"story_id"`
		Body    struct {
			Status string `json:"status" enum:"draft,complete,published"`
		} `json:"body"`
	}) (*struct {
		Body domain.Story `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		st, err := e.SetStoryStatus(ctx, userID, input.StoryID, input.Body.Status)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Story `json:"body"`
		}{Body: st}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "story-guidance",
		Method:      http.MethodGet,
		Path:        "/stories/{story_id}/guidance",
		Summary:     "Deterministic completion guidance",
		Errors:      []int{http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		StoryID string `path:"story_id"`
	}) (*struct {
		Body engine.StoryGuidance `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		g, err := e.StoryGuidance(ctx, userID, input.StoryID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.StoryGuidance `json:"body"`
		}{Body: g}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "merge-story-metrics",
		Method:      http.MethodPatch,
		Path:        "/stories/{story_id}/metrics",
		Summary:     "Merge impact metrics",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		StoryID string               `path:"story_id"`
		Body    domain.ImpactMetrics `json:"body"`
	}) (*struct {
		Body domain.Story `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		st, err := e.MergeImpactMetrics(ctx, userID, input.StoryID, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Story `json:"body"`
		}{Body: st}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "enhance-story",
		Method:      http.MethodPost,
		Path:        "/stories/{story_id}/enhance",
		Summary:     "AI enhancement suggestions",
		Errors:      []int{http.StatusNotFound, http.StatusUnauthorized, http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		StoryID string `path:"story_id"`
	}) (*struct {
		Body ai.StoryEnhancement `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		enh, err := e.EnhanceStory(ctx, userID, input.StoryID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ai.StoryEnhancement `json:"body"`
		}{Body: enh}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "analyze-story-completeness",
		Method:      http.MethodPost,
		Path:        "/stories/{story_id}/completeness",
		Summary:     "AI completeness analysis",
		Errors:      []int{http.StatusNotFound, http.StatusUnauthorized, http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		StoryID string `path:"story_id"`
	}) (*struct {
		Body ai.CompletenessAnalysis `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		an, err := e.AnalyzeStoryCompleteness(ctx, userID, input.StoryID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ai.CompletenessAnalysis `json:"body"`
		}{Body: an}, nil
	})
}
