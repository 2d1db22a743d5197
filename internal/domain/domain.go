package domain

import "strings"

// ActivityCategory values accepted for Activity.Category.
const (
	CategoryCustomerEngagement    = "customer_engagement"
	CategoryLearning              = "learning"
	CategorySpeaking              = "speaking"
	CategoryMentoring             = "mentoring"
	CategoryTechnicalConsultation = "technical_consultation"
	CategoryContentCreation       = "content_creation"
)

// ActivityCategories lists every valid category.
var ActivityCategories = []string{
	CategoryCustomerEngagement,
	CategoryLearning,
	CategorySpeaking,
	CategoryMentoring,
	CategoryTechnicalConsultation,
	CategoryContentCreation,
}

// ValidCategory reports whether c is a known activity category.
func ValidCategory(c string) bool {
	for _, v := range ActivityCategories {
		if v == c {
			return true
		}
	}
	return false
}

type Activity struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	Category        string         `json:"category" enum:"customer_engagement,learning,speaking,mentoring,technical_consultation,content_creation"`
	Tags            []string       `json:"tags"`
	ImpactLevel     *int           `json:"impact_level,omitempty" minimum:"1" maximum:"5"`
	Date            string         `json:"date" format:"date"`
	DurationMinutes *int           `json:"duration_minutes,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       string         `json:"created_at" format:"date-time"`
	UpdatedAt       string         `json:"updated_at" format:"date-time"`
}

// Story statuses.
const (
	StoryDraft     = "draft"
	StoryComplete  = "complete"
	StoryPublished = "published"
)

type Story struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	Title         string        `json:"title"`
	Situation     string        `json:"situation"`
	Task          string        `json:"task"`
	Action        string        `json:"action"`
	Result        string        `json:"result"`
	ImpactMetrics ImpactMetrics `json:"impact_metrics"`
	Tags          []string      `json:"tags"`
	Status        string        `json:"status" enum:"draft,complete,published"`
	AIEnhanced    bool          `json:"ai_enhanced"`
	CreatedAt     string        `json:"created_at" format:"date-time"`
	UpdatedAt     string        `json:"updated_at" format:"date-time"`
}

// CompleteThreshold is the minimum completeness score required before a story
// may carry the complete status.
const CompleteThreshold = 0.8

// Completeness scores the STAR fields: the fraction that are non-empty plus a
// bonus of up to 0.2 for fields longer than 20 characters after trimming.
// The score ranges over [0, 1.2]; values above 1.0 are allowed.
func (s Story) Completeness() float64 {
	fields := []string{s.Situation, s.Task, s.Action, s.Result}
	var nonEmpty, meaningful int
	for _, f := range fields {
		t := strings.TrimSpace(f)
		if t != "" {
			nonEmpty++
		}
		if len(t) > 20 {
			meaningful++
		}
	}
	return float64(nonEmpty)/4.0 + float64(meaningful)/4.0*0.2
}

// Report types and statuses.
const (
	ReportWeekly    = "weekly"
	ReportMonthly   = "monthly"
	ReportQuarterly = "quarterly"
	ReportAnnual    = "annual"
	ReportCustom    = "custom"

	ReportDraft      = "draft"
	ReportGenerating = "generating"
	ReportComplete   = "complete"
	ReportFailed     = "failed"
)

// ValidReportType reports whether t is a known report type.
func ValidReportType(t string) bool {
	switch t {
	case ReportWeekly, ReportMonthly, ReportQuarterly, ReportAnnual, ReportCustom:
		return true
	}
	return false
}

type Report struct {
	ID                 string   `json:"id"`
	UserID             string   `json:"user_id"`
	Title              string   `json:"title"`
	PeriodStart        string   `json:"period_start" format:"date"`
	PeriodEnd          string   `json:"period_end" format:"date"`
	ReportType         string   `json:"report_type" enum:"weekly,monthly,quarterly,annual,custom"`
	Content            string   `json:"content,omitempty"`
	ActivitiesIncluded []string `json:"activities_included"`
	StoriesIncluded    []string `json:"stories_included"`
	GeneratedByAI      bool     `json:"generated_by_ai"`
	Status             string   `json:"status" enum:"draft,generating,complete,failed"`
	CreatedAt          string   `json:"created_at" format:"date-time"`
	UpdatedAt          string   `json:"updated_at" format:"date-time"`
}

type User struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Name        string         `json:"name"`
	Subject     string         `json:"-"`
	Preferences map[string]any `json:"preferences,omitempty"`
	CreatedAt   string         `json:"created_at" format:"date-time"`
	UpdatedAt   string         `json:"updated_at" format:"date-time"`
}

type APIKey struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	OwnerID    string `json:"owner_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	Payload    string `json:"payload_json"`
}

// Suggestion statuses for calendar-derived activity suggestions.
const (
	SuggestionPending  = "pending"
	SuggestionAccepted = "accepted"
	SuggestionModified = "modified"
	SuggestionRejected = "rejected"
)

// CalendarEvent is the record shape returned by an external calendar source.
type CalendarEvent struct {
	ProviderEventID string   `json:"provider_event_id"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Start           string   `json:"start" format:"date-time"`
	End             string   `json:"end" format:"date-time"`
	Attendees       []string `json:"attendees,omitempty"`
	Location        string   `json:"location,omitempty"`
}

type ActivitySuggestion struct {
	ID                   string   `json:"id"`
	UserID               string   `json:"user_id"`
	ProviderEventID      string   `json:"provider_event_id"`
	EventTitle           string   `json:"event_title"`
	EventStart           string   `json:"event_start" format:"date-time"`
	EventEnd             string   `json:"event_end" format:"date-time"`
	SuggestedTitle       string   `json:"suggested_title"`
	SuggestedDescription string   `json:"suggested_description,omitempty"`
	SuggestedCategory    string   `json:"suggested_category"`
	SuggestedTags        []string `json:"suggested_tags"`
	ConfidenceScore      float64  `json:"confidence_score"`
	Reasoning            string   `json:"reasoning,omitempty"`
	Status               string   `json:"status" enum:"pending,accepted,modified,rejected"`
	ActivityID           *string  `json:"activity_id,omitempty"`
	CreatedAt            string   `json:"created_at" format:"date-time"`
	UpdatedAt            string   `json:"updated_at" format:"date-time"`
}
