package engine

import (
	"context"
	"errors"
	"strings"

	"worktrack/internal/ai"
	"worktrack/internal/domain"
	"worktrack/internal/events"
	"worktrack/internal/repo"
)

type StoryInput struct {
	Title         string
	Situation     string
	Task          string
	Action        string
	Result        string
	ImpactMetrics domain.ImpactMetrics
	Tags          []string
	Status        string
}

type StoryPatch struct {
	Title         *string
	Situation     *string
	Task          *string
	Action        *string
	Result        *string
	ImpactMetrics *domain.ImpactMetrics
	Tags          *[]string
}

func validStoryStatus(s string) bool {
	switch s {
	case domain.StoryDraft, domain.StoryComplete, domain.StoryPublished:
		return true
	}
	return false
}

func (e Engine) CreateStory(ctx context.Context, ownerID string, in StoryInput) (domain.Story, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Story{}, domain.FieldError("title", "title must not be empty")
	}
	if in.Status != "" && !validStoryStatus(in.Status) {
		return domain.Story{}, domain.FieldError("status", "unknown status %q", in.Status)
	}
	now := e.timestamp()
	s := domain.Story{
		ID:            newID(),
		UserID:        ownerID,
		Title:         strings.TrimSpace(in.Title),
		Situation:     strings.TrimSpace(in.Situation),
		Task:          strings.TrimSpace(in.Task),
		Action:        strings.TrimSpace(in.Action),
		Result:        strings.TrimSpace(in.Result),
		ImpactMetrics: in.ImpactMetrics,
		Tags:          NormalizeTags(in.Tags),
		Status:        domain.StoryDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	// A requested non-draft status only sticks when the story clears the
	// completeness gate.
	if in.Status != "" && in.Status != domain.StoryDraft && s.Completeness() >= domain.CompleteThreshold {
		s.Status = in.Status
	}
	if err := e.Repo.InsertStory(ctx, s); err != nil {
		return domain.Story{}, err
	}
	if err := e.Events.Append(ctx, "story.create", ownerID, "story", s.ID, events.EventPayload{"status": s.Status}); err != nil {
		e.logf("append story.create event: %v", err)
	}
	return s, nil
}

func (e Engine) GetStory(ctx context.Context, ownerID, id string) (domain.Story, error) {
	s, err := e.Repo.GetStory(ctx, ownerID, id)
	if errors.Is(err, repo.ErrNotFound) {
		return s, domain.NotFoundf("story %s not found", id)
	}
	return s, err
}

func (e Engine) UpdateStory(ctx context.Context, ownerID, id string, patch StoryPatch) (domain.Story, error) {
	s, err := e.GetStory(ctx, ownerID, id)
	if err != nil {
		return domain.Story{}, err
	}
	if patch.Title != nil {
		s.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Situation != nil {
		s.Situation = strings.TrimSpace(*patch.Situation)
	}
	if patch.Task != nil {
		s.Task = strings.TrimSpace(*patch.Task)
	}
	if patch.Action != nil {
		s.Action = strings.TrimSpace(*patch.Action)
	}
	if patch.Result != nil {
		s.Result = strings.TrimSpace(*patch.Result)
	}
	if patch.ImpactMetrics != nil {
		s.ImpactMetrics = *patch.ImpactMetrics
	}
	if patch.Tags != nil {
		s.Tags = NormalizeTags(*patch.Tags)
	}
	if strings.TrimSpace(s.Title) == "" {
		return domain.Story{}, domain.FieldError("title", "title must not be empty")
	}
	// Auto-promotion only ever moves draft forward; it never demotes.
	if s.Status == domain.StoryDraft && s.Completeness() >= domain.CompleteThreshold {
		s.Status = domain.StoryComplete
	}
	s.UpdatedAt = e.timestamp()
	if err := e.Repo.UpdateStory(ctx, s); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Story{}, domain.NotFoundf("story %s not found", id)
		}
		return domain.Story{}, err
	}
	if err := e.Events.Append(ctx, "story.update", ownerID, "story", s.ID, events.EventPayload{"status": s.Status}); err != nil {
		e.logf("append story.update event: %v", err)
	}
	return s, nil
}

// SetStoryStatus moves a story to an explicit status. Promotion to complete
// requires the completeness gate; demotions and publishing are unrestricted.
func (e Engine) SetStoryStatus(ctx context.Context, ownerID, id, status string) (domain.Story, error) {
	if !validStoryStatus(status) {
		return domain.Story{}, domain.FieldError("status", "unknown status %q", status)
	}
	s, err := e.GetStory(ctx, ownerID, id)
	if err != nil {
		return domain.Story{}, err
	}
	if status == domain.StoryComplete && s.Completeness() < domain.CompleteThreshold {
		return domain.Story{}, domain.Validationf("story must be at least 80%% complete to mark as complete")
	}
	s.Status = status
	s.UpdatedAt = e.timestamp()
	if err := e.Repo.UpdateStory(ctx, s); err != nil {
		return domain.Story{}, err
	}
	if err := e.Events.Append(ctx, "story.status", ownerID, "story", s.ID, events.EventPayload{"status": status}); err != nil {
		e.logf("append story.status event: %v", err)
	}
	return s, nil
}

type StoryList struct {
	Items  []domain.Story
	Total  int
	Limit  int
	Offset int
}

func (e Engine) ListStories(ctx context.Context, f repo.StoryFilters) (StoryList, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Status != "" && !validStoryStatus(f.Status) {
		return StoryList{}, domain.FieldError("status", "unknown status %q", f.Status)
	}
	f.Tags = NormalizeTags(f.Tags)
	items, err := e.Repo.ListStories(ctx, f)
	if err != nil {
		return StoryList{}, err
	}
	total, err := e.Repo.CountStories(ctx, f)
	if err != nil {
		return StoryList{}, err
	}
	return StoryList{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (e Engine) DeleteStory(ctx context.Context, ownerID, id string) error {
	err := e.Repo.DeleteStory(ctx, ownerID, id)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.NotFoundf("story %s not found", id)
	}
	if err != nil {
		return err
	}
	if err := e.Events.Append(ctx, "story.delete", ownerID, "story", id, nil); err != nil {
		e.logf("append story.delete event: %v", err)
	}
	return nil
}

// StoryGuidance summarizes what a story still needs.
type StoryGuidance struct {
	CompletenessScore        float64  `json:"completeness_score"`
	Suggestions              []string `json:"suggestions"`
	MissingElements          []string `json:"missing_elements"`
	ImpactMetricsSuggestions []string `json:"impact_metrics_suggestions"`
}

var sectionSuggestions = []struct {
	name       string
	suggestion string
	value      func(domain.Story) string
}{
	{"situation", "Expand the Situation section with more context about the initial challenge or opportunity", func(s domain.Story) string { return s.Situation }},
	{"task", "Clarify the Task section with specific objectives and requirements", func(s domain.Story) string { return s.Task }},
	{"action", "Detail the Action section with specific steps and methodologies used", func(s domain.Story) string { return s.Action }},
	{"result", "Quantify the Result section with measurable outcomes and impact", func(s domain.Story) string { return s.Result }},
}

var metricCategorySuggestions = map[string][]string{
	domain.MetricsCustomerSuccess: {
		"Include customer satisfaction scores or feedback",
		"Quantify revenue impact or business value",
		"Measure time savings or efficiency gains",
	},
	domain.MetricsTechnical: {
		"Include performance improvement percentages",
		"Quantify cost reductions or resource savings",
		"Measure scalability or reliability improvements",
	},
	domain.MetricsLeadership: {
		"Include team productivity metrics",
		"Measure employee satisfaction or engagement",
		"Quantify retention or skill development outcomes",
	},
}

func (e Engine) StoryGuidance(ctx context.Context, ownerID, id string) (StoryGuidance, error) {
	s, err := e.GetStory(ctx, ownerID, id)
	if err != nil {
		return StoryGuidance{}, err
	}
	g := StoryGuidance{
		CompletenessScore:        s.Completeness(),
		Suggestions:              []string{},
		MissingElements:          []string{},
		ImpactMetricsSuggestions: []string{},
	}
	for _, sec := range sectionSuggestions {
		if len(strings.TrimSpace(sec.value(s))) < 20 {
			g.MissingElements = append(g.MissingElements, sec.name)
			g.Suggestions = append(g.Suggestions, sec.suggestion)
		}
	}
	if s.ImpactMetrics.IsZero() {
		g.ImpactMetricsSuggestions = append(g.ImpactMetricsSuggestions, "Add quantifiable impact metrics to strengthen your story")
	}
	if extra, ok := metricCategorySuggestions[s.ImpactMetrics.Category]; ok {
		g.ImpactMetricsSuggestions = append(g.ImpactMetricsSuggestions, extra...)
	}
	return g, nil
}

// MergeImpactMetrics overlays patch onto the story's existing metrics.
func (e Engine) MergeImpactMetrics(ctx context.Context, ownerID, id string, patch domain.ImpactMetrics) (domain.Story, error) {
	s, err := e.GetStory(ctx, ownerID, id)
	if err != nil {
		return domain.Story{}, err
	}
	s.ImpactMetrics = s.ImpactMetrics.Merge(patch)
	s.UpdatedAt = e.timestamp()
	if err := e.Repo.UpdateStory(ctx, s); err != nil {
		return domain.Story{}, err
	}
	return s, nil
}

// BulkRenameStoryTag rewrites old to new in every story of the owner and
// returns how many stories changed. The rewritten list is deduplicated.
func (e Engine) BulkRenameStoryTag(ctx context.Context, ownerID, oldTag, newTag string) (int, error) {
	oldTag = strings.ToLower(strings.TrimSpace(oldTag))
	newTag = strings.ToLower(strings.TrimSpace(newTag))
	if oldTag == "" || newTag == "" {
		return 0, domain.Validationf("both old and new tag are required")
	}
	return e.rewriteStoryTags(ctx, ownerID, oldTag, func(tags []string) []string {
		renamed := make([]string, len(tags))
		for i, t := range tags {
			if t == oldTag {
				renamed[i] = newTag
			} else {
				renamed[i] = t
			}
		}
		return NormalizeTags(renamed)
	})
}

// DeleteStoryTag removes tag from every story of the owner.
func (e Engine) DeleteStoryTag(ctx context.Context, ownerID, tag string) (int, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return 0, domain.Validationf("tag is required")
	}
	return e.rewriteStoryTags(ctx, ownerID, tag, func(tags []string) []string {
		kept := []string{}
		for _, t := range tags {
			if t != tag {
				kept = append(kept, t)
			}
		}
		return kept
	})
}

func (e Engine) rewriteStoryTags(ctx context.Context, ownerID, matchTag string, rewrite func([]string) []string) (int, error) {
	stories, err := e.Repo.ListStories(ctx, repo.StoryFilters{UserID: ownerID, Tags: []string{matchTag}})
	if err != nil {
		return 0, err
	}
	count := 0
	for _, s := range stories {
		if !containsTag(s.Tags, matchTag) {
			continue
		}
		s.Tags = rewrite(s.Tags)
		s.UpdatedAt = e.timestamp()
		if err := e.Repo.UpdateStory(ctx, s); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// StoryCategories groups the owner's stories by impact-metric category.
func (e Engine) StoryCategories(ctx context.Context, ownerID string) (map[string]int, error) {
	stories, err := e.Repo.ListStories(ctx, repo.StoryFilters{UserID: ownerID})
	if err != nil {
		return nil, err
	}
	res := map[string]int{}
	for _, s := range stories {
		if s.ImpactMetrics.Category != "" {
			res[s.ImpactMetrics.Category]++
		} else {
			res["uncategorized"]++
		}
	}
	return res, nil
}

// StorySummary is the compact story shape for dashboard listings.
type StorySummary struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Status       string  `json:"status" enum:"draft,complete,published"`
	AIEnhanced   bool    `json:"ai_enhanced"`
	Completeness float64 `json:"completeness"`
	CreatedAt    string  `json:"created_at" format:"date-time"`
}

// StorySummaries returns the owner's most recently updated stories in
// summary form.
func (e Engine) StorySummaries(ctx context.Context, ownerID string, limit int) ([]StorySummary, error) {
	if limit <= 0 {
		limit = 10
	}
	stories, err := e.Repo.ListStories(ctx, repo.StoryFilters{UserID: ownerID, Limit: limit})
	if err != nil {
		return nil, err
	}
	res := make([]StorySummary, 0, len(stories))
	for _, s := range stories {
		res = append(res, StorySummary{
			ID:           s.ID,
			Title:        s.Title,
			Status:       s.Status,
			AIEnhanced:   s.AIEnhanced,
			Completeness: s.Completeness(),
			CreatedAt:    s.CreatedAt,
		})
	}
	return res, nil
}

// StoryTags lists every distinct tag across the owner's stories.
func (e Engine) StoryTags(ctx context.Context, ownerID string) ([]string, error) {
	return e.Repo.StoryTags(ctx, ownerID)
}

// StoryTemplate is a predefined STAR scaffold for a metric category.
type StoryTemplate struct {
	Name                  string               `json:"name"`
	Description           string               `json:"description"`
	Category              string               `json:"category"`
	Template              map[string]string    `json:"template"`
	ImpactMetricsTemplate domain.ImpactMetrics `json:"impact_metrics_template"`
}

// StoryTemplates returns the built-in templates, one per metric category.
func StoryTemplates() []StoryTemplate {
	return []StoryTemplate{
		{
			Name:        "Customer Success Story",
			Description: "Template for documenting customer success and impact",
			Category:    domain.MetricsCustomerSuccess,
			Template: map[string]string{
				"situation": "Describe the customer's initial challenge or situation...",
				"task":      "Explain what needed to be accomplished or solved...",
				"action":    "Detail the specific actions you took to address the situation...",
				"result":    "Quantify the outcomes and impact achieved...",
			},
			ImpactMetricsTemplate: domain.ImpactMetrics{
				Category:        domain.MetricsCustomerSuccess,
				CustomerSuccess: &domain.CustomerSuccessMetrics{},
			},
		},
		{
			Name:        "Technical Innovation",
			Description: "Template for technical achievements and innovations",
			Category:    domain.MetricsTechnical,
			Template: map[string]string{
				"situation": "Describe the technical challenge or opportunity...",
				"task":      "Explain the technical requirements or goals...",
				"action":    "Detail the technical solution and implementation...",
				"result":    "Quantify the technical improvements and benefits...",
			},
			ImpactMetricsTemplate: domain.ImpactMetrics{
				Category:  domain.MetricsTechnical,
				Technical: &domain.TechnicalMetrics{},
			},
		},
		{
			Name:        "Team Leadership",
			Description: "Template for leadership and team development stories",
			Category:    domain.MetricsLeadership,
			Template: map[string]string{
				"situation": "Describe the team or organizational challenge...",
				"task":      "Explain the leadership objectives or team goals...",
				"action":    "Detail your leadership actions and strategies...",
				"result":    "Quantify the team improvements and outcomes...",
			},
			ImpactMetricsTemplate: domain.ImpactMetrics{
				Category:   domain.MetricsLeadership,
				Leadership: &domain.LeadershipMetrics{},
			},
		},
		{
			Name:        "Process Improvement",
			Description: "Template for process optimization and efficiency gains",
			Category:    domain.MetricsProcess,
			Template: map[string]string{
				"situation": "Describe the inefficient process or workflow...",
				"task":      "Explain what needed to be optimized or improved...",
				"action":    "Detail the process changes and improvements made...",
				"result":    "Quantify the efficiency gains and cost savings...",
			},
			ImpactMetricsTemplate: domain.ImpactMetrics{
				Category: domain.MetricsProcess,
				Process:  &domain.ProcessMetrics{},
			},
		},
	}
}

// EnhanceStory asks the model boundary for STAR improvement suggestions and
// flags the story as AI enhanced when a real model answer came back.
func (e Engine) EnhanceStory(ctx context.Context, ownerID, id string) (ai.StoryEnhancement, error) {
	s, err := e.GetStory(ctx, ownerID, id)
	if err != nil {
		return ai.StoryEnhancement{}, err
	}
	if e.AI == nil {
		return ai.StoryEnhancement{}, domain.Externalf("ai assistance is not configured")
	}
	enh := e.AI.EnhanceStory(ctx, s)
	if !enh.Fallback && !s.AIEnhanced {
		s.AIEnhanced = true
		s.UpdatedAt = e.timestamp()
		if err := e.Repo.UpdateStory(ctx, s); err != nil {
			e.logf("mark story %s ai_enhanced: %v", s.ID, err)
		}
	}
	return enh, nil
}

// AnalyzeStoryCompleteness runs the model-backed section analysis.
func (e Engine) AnalyzeStoryCompleteness(ctx context.Context, ownerID, id string) (ai.CompletenessAnalysis, error) {
	s, err := e.GetStory(ctx, ownerID, id)
	if err != nil {
		return ai.CompletenessAnalysis{}, err
	}
	if e.AI == nil {
		return ai.CompletenessAnalysis{}, domain.Externalf("ai assistance is not configured")
	}
	return e.AI.AnalyzeCompleteness(ctx, s), nil
}
