package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"worktrack/internal/domain"
)

// Service wraps a completion client with retries and deterministic fallbacks.
// Callers always get a usable answer: when the model is unreachable or returns
// unparseable output, the fallback path produces the same shape from local
// heuristics and marks it as such.
type Service struct {
	Client     Client
	Logger     *log.Logger
	MaxRetries int
	BaseDelay  time.Duration
	Sleep      func(time.Duration)
}

func (s *Service) retries() int {
	if s.MaxRetries <= 0 {
		return 3
	}
	return s.MaxRetries
}

func (s *Service) complete(ctx context.Context, req CompletionRequest) (string, error) {
	if s.Client == nil {
		return "", fmt.Errorf("no completion client configured")
	}
	delay := s.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}
	sleep := s.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	var lastErr error
	for attempt := 0; attempt < s.retries(); attempt++ {
		out, err := s.Client.Complete(ctx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if attempt < s.retries()-1 {
			if s.Logger != nil {
				s.Logger.Printf("completion attempt %d/%d failed: %v", attempt+1, s.retries(), err)
			}
			sleep(delay)
			delay *= 2
		}
	}
	return "", fmt.Errorf("completion failed after %d attempts: %w", s.retries(), lastErr)
}

// stripFences removes a markdown code fence wrapper if the model emitted one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

type StoryEnhancement struct {
	SituationSuggestions []string `json:"situation_suggestions"`
	TaskSuggestions      []string `json:"task_suggestions"`
	ActionSuggestions    []string `json:"action_suggestions"`
	ResultSuggestions    []string `json:"result_suggestions"`
	OverallSuggestions   []string `json:"overall_suggestions"`
	ImpactScore          int      `json:"impact_score"`
	CompletenessScore    int      `json:"completeness_score"`
	Fallback             bool     `json:"fallback,omitempty"`
}

func fallbackEnhancement() StoryEnhancement {
	return StoryEnhancement{
		SituationSuggestions: []string{"Consider adding more specific context and background"},
		TaskSuggestions:      []string{"Clarify your specific role and responsibilities"},
		ActionSuggestions:    []string{"Detail the specific steps you took"},
		ResultSuggestions:    []string{"Quantify the outcomes and impact"},
		OverallSuggestions:   []string{"Add more specific metrics and measurable outcomes"},
		ImpactScore:          5,
		CompletenessScore:    5,
		Fallback:             true,
	}
}

// EnhanceStory asks the model for STAR improvement suggestions. Any model or
// parse failure yields the canned fallback rather than an error.
func (s *Service) EnhanceStory(ctx context.Context, story domain.Story) StoryEnhancement {
	prompt := storyEnhancementPrompt(story)
	out, err := s.complete(ctx, CompletionRequest{
		System:      "You are an expert career coach specializing in helping professionals write compelling success stories for performance reviews and career advancement. Always respond with valid JSON format.",
		Prompt:      prompt,
		Temperature: 0.3,
	})
	if err != nil {
		if s.Logger != nil {
			s.Logger.Printf("story enhancement fell back: %v", err)
		}
		return fallbackEnhancement()
	}
	var enh StoryEnhancement
	if err := json.Unmarshal([]byte(stripFences(out)), &enh); err != nil {
		if s.Logger != nil {
			s.Logger.Printf("story enhancement response unparseable: %v", err)
		}
		return fallbackEnhancement()
	}
	return enh
}

type CompletenessAnalysis struct {
	SituationComplete      bool     `json:"situation_complete"`
	SituationMissing       []string `json:"situation_missing"`
	TaskComplete           bool     `json:"task_complete"`
	TaskMissing            []string `json:"task_missing"`
	ActionComplete         bool     `json:"action_complete"`
	ActionMissing          []string `json:"action_missing"`
	ResultComplete         bool     `json:"result_complete"`
	ResultMissing          []string `json:"result_missing"`
	CompletenessPercentage int      `json:"completeness_percentage"`
	PriorityImprovements   []string `json:"priority_improvements"`
	Fallback               bool     `json:"fallback,omitempty"`
}

func heuristicCompleteness(story domain.Story) CompletenessAnalysis {
	meaningful := func(v string) bool { return len(strings.TrimSpace(v)) > 20 }
	a := CompletenessAnalysis{
		SituationComplete: meaningful(story.Situation),
		TaskComplete:      meaningful(story.Task),
		ActionComplete:    meaningful(story.Action),
		ResultComplete:    meaningful(story.Result),
		SituationMissing:  []string{},
		TaskMissing:       []string{},
		ActionMissing:     []string{},
		ResultMissing:     []string{},
		Fallback:          true,
	}
	if !a.SituationComplete {
		a.SituationMissing = []string{"Add more context and background"}
	}
	if !a.TaskComplete {
		a.TaskMissing = []string{"Clarify your specific responsibilities"}
	}
	if !a.ActionComplete {
		a.ActionMissing = []string{"Detail the steps you took"}
	}
	if !a.ResultComplete {
		a.ResultMissing = []string{"Add measurable outcomes"}
	}
	done := 0
	for _, c := range []bool{a.SituationComplete, a.TaskComplete, a.ActionComplete, a.ResultComplete} {
		if c {
			done++
		}
	}
	a.CompletenessPercentage = done * 100 / 4
	a.PriorityImprovements = []string{"Complete all STAR sections with specific details"}
	return a
}

// AnalyzeCompleteness reports which STAR sections need work.
func (s *Service) AnalyzeCompleteness(ctx context.Context, story domain.Story) CompletenessAnalysis {
	out, err := s.complete(ctx, CompletionRequest{
		System:      "You are an expert at analyzing professional stories for completeness. Always respond with valid JSON format.",
		Prompt:      completenessPrompt(story),
		Temperature: 0.2,
	})
	if err != nil {
		if s.Logger != nil {
			s.Logger.Printf("completeness analysis fell back: %v", err)
		}
		return heuristicCompleteness(story)
	}
	var analysis CompletenessAnalysis
	if err := json.Unmarshal([]byte(stripFences(out)), &analysis); err != nil {
		if s.Logger != nil {
			s.Logger.Printf("completeness response unparseable: %v", err)
		}
		return heuristicCompleteness(story)
	}
	return analysis
}

// GenerateReport produces Markdown report content for the given activities.
// Unlike the JSON endpoints the raw text is the product, so only transport
// failures fall back.
func (s *Service) GenerateReport(ctx context.Context, reportType, periodStart, periodEnd string, activities []domain.Activity) (content string, generatedByAI bool) {
	out, err := s.complete(ctx, CompletionRequest{
		System:      "You are an expert career coach creating professional activity reports. Generate comprehensive, well-structured reports in Markdown format that highlight achievements and demonstrate professional growth.",
		Prompt:      reportPrompt(reportType, periodStart, periodEnd, activities),
		MaxTokens:   6000,
		Temperature: 0.4,
	})
	if err != nil {
		if s.Logger != nil {
			s.Logger.Printf("report generation fell back: %v", err)
		}
		return summaryReport(reportType, periodStart, periodEnd, activities), false
	}
	return out, true
}

// summaryReport builds a plain Markdown summary without the model.
func summaryReport(reportType, periodStart, periodEnd string, activities []domain.Activity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Activity Report\n\n", strings.ToUpper(reportType[:1])+reportType[1:])
	fmt.Fprintf(&b, "Period: %s to %s\n\n", periodStart, periodEnd)
	fmt.Fprintf(&b, "## Summary\n\n%d activities recorded.\n\n", len(activities))
	byCategory := map[string][]domain.Activity{}
	for _, a := range activities {
		byCategory[a.Category] = append(byCategory[a.Category], a)
	}
	for _, category := range domain.ActivityCategories {
		acts := byCategory[category]
		if len(acts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", strings.ReplaceAll(category, "_", " "))
		for _, a := range acts {
			fmt.Fprintf(&b, "- %s (%s)\n", a.Title, a.Date)
		}
		b.WriteString("\n")
	}
	return b.String()
}

type ActivityClassification struct {
	SuggestedTitle       string   `json:"suggested_title"`
	SuggestedDescription string   `json:"suggested_description"`
	SuggestedCategory    string   `json:"suggested_category"`
	SuggestedTags        []string `json:"suggested_tags"`
	Confidence           float64  `json:"confidence"`
	Reasoning            string   `json:"reasoning"`
	Fallback             bool     `json:"fallback,omitempty"`
}

// ClassifyEvent turns a calendar event into an activity suggestion.
func (s *Service) ClassifyEvent(ctx context.Context, ev domain.CalendarEvent) ActivityClassification {
	out, err := s.complete(ctx, CompletionRequest{
		System:      "You are an expert at analyzing calendar events and suggesting appropriate professional activity entries. Always respond with valid JSON format.",
		Prompt:      calendarPrompt(ev),
		Temperature: 0.3,
	})
	if err != nil {
		if s.Logger != nil {
			s.Logger.Printf("calendar classification fell back: %v", err)
		}
		return heuristicClassification(ev)
	}
	var cls ActivityClassification
	if err := json.Unmarshal([]byte(stripFences(out)), &cls); err != nil {
		if s.Logger != nil {
			s.Logger.Printf("calendar classification unparseable: %v", err)
		}
		return heuristicClassification(ev)
	}
	if !domain.ValidCategory(cls.SuggestedCategory) {
		cls.SuggestedCategory = domain.CategoryCustomerEngagement
	}
	if cls.Confidence > 1 {
		// Models sometimes answer on a 0-100 scale.
		cls.Confidence /= 100
	}
	return cls
}

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{domain.CategoryLearning, []string{"training", "course", "workshop", "certification", "learning"}},
	{domain.CategorySpeaking, []string{"talk", "presentation", "conference", "keynote", "webinar"}},
	{domain.CategoryMentoring, []string{"mentoring", "mentor", "coaching", "1:1", "one-on-one"}},
	{domain.CategoryTechnicalConsultation, []string{"architecture", "design review", "consultation", "technical review", "troubleshoot"}},
	{domain.CategoryContentCreation, []string{"blog", "article", "documentation", "video", "writing"}},
}

func heuristicClassification(ev domain.CalendarEvent) ActivityClassification {
	text := strings.ToLower(ev.Title + " " + ev.Description)
	category := domain.CategoryCustomerEngagement
	confidence := 0.5
	for _, ck := range categoryKeywords {
		for _, w := range ck.words {
			if strings.Contains(text, w) {
				category = ck.category
				confidence = 0.7
				break
			}
		}
		if confidence > 0.5 {
			break
		}
	}
	return ActivityClassification{
		SuggestedTitle:       ev.Title,
		SuggestedDescription: "Meeting: " + ev.Title,
		SuggestedCategory:    category,
		SuggestedTags:        []string{"meeting"},
		Confidence:           confidence,
		Reasoning:            "keyword match on event title",
		Fallback:             true,
	}
}
