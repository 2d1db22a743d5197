package calendar

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"worktrack/internal/ai"
	"worktrack/internal/domain"
	"worktrack/internal/engine"
)

// EventSource lists a user's calendar events for a window. Implementations
// wrap an external provider; tests use fixed slices.
type EventSource interface {
	Events(ctx context.Context, userID string, from, to time.Time) ([]domain.CalendarEvent, error)
}

// StaticSource serves a fixed event list, useful for tests and local runs.
type StaticSource struct {
	List []domain.CalendarEvent
}

func (s StaticSource) Events(ctx context.Context, userID string, from, to time.Time) ([]domain.CalendarEvent, error) {
	return s.List, nil
}

// Service turns calendar events into activity suggestions and applies the
// user's decisions on them.
type Service struct {
	Engine    engine.Engine
	Source    EventSource
	Threshold float64
	Logger    *log.Logger
}

func (s *Service) threshold() float64 {
	if s.Threshold <= 0 {
		return 0.7
	}
	return s.Threshold
}

// Sync pulls events for the window, classifies each one and upserts the
// suggestions that clear the confidence threshold. Re-syncing the same event
// refreshes the suggestion rather than duplicating it.
func (s *Service) Sync(ctx context.Context, ownerID string, from, to time.Time) ([]domain.ActivitySuggestion, error) {
	if s.Source == nil {
		return nil, domain.Externalf("no calendar source configured")
	}
	events, err := s.Source.Events(ctx, ownerID, from, to)
	if err != nil {
		return nil, domain.Externalf("calendar source failed: %v", err)
	}
	now := s.Engine.Now().UTC().Format(time.RFC3339)
	var kept []domain.ActivitySuggestion
	for _, ev := range events {
		if strings.TrimSpace(ev.ProviderEventID) == "" || strings.TrimSpace(ev.Title) == "" {
			continue
		}
		cls := s.classify(ctx, ev)
		if cls.Confidence < s.threshold() {
			continue
		}
		sug := domain.ActivitySuggestion{
			ID:                   uuid.New().String(),
			UserID:               ownerID,
			ProviderEventID:      ev.ProviderEventID,
			EventTitle:           ev.Title,
			EventStart:           ev.Start,
			EventEnd:             ev.End,
			SuggestedTitle:       cls.SuggestedTitle,
			SuggestedDescription: cls.SuggestedDescription,
			SuggestedCategory:    cls.SuggestedCategory,
			SuggestedTags:        engine.NormalizeTags(cls.SuggestedTags),
			ConfidenceScore:      cls.Confidence,
			Reasoning:            cls.Reasoning,
			Status:               domain.SuggestionPending,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := s.Engine.Repo.UpsertSuggestion(ctx, sug); err != nil {
			return nil, err
		}
		kept = append(kept, sug)
	}
	return kept, nil
}

func (s *Service) classify(ctx context.Context, ev domain.CalendarEvent) ai.ActivityClassification {
	if s.Engine.AI != nil {
		cls := s.Engine.AI.ClassifyEvent(ctx, ev)
		if cls.SuggestedTitle == "" {
			cls.SuggestedTitle = ev.Title
		}
		return cls
	}
	return ai.ActivityClassification{
		SuggestedTitle:       ev.Title,
		SuggestedDescription: "Meeting: " + ev.Title,
		SuggestedCategory:    domain.CategoryCustomerEngagement,
		SuggestedTags:        []string{"meeting"},
		Confidence:           0.7,
		Reasoning:            "no classifier configured",
		Fallback:             true,
	}
}

// Decision is the user's verdict on a suggestion. Overrides only apply to
// the modify action.
type Decision struct {
	Action    string // accept, modify, reject
	Overrides *engine.ActivityInput
}

// Decide applies a decision. Accept and modify create an Activity from the
// suggestion; reject only flips the suggestion status.
func (s *Service) Decide(ctx context.Context, ownerID, suggestionID string, d Decision) (domain.ActivitySuggestion, error) {
	sug, err := s.Engine.Repo.GetSuggestion(ctx, ownerID, suggestionID)
	if err != nil {
		return domain.ActivitySuggestion{}, domain.NotFoundf("suggestion %s not found", suggestionID)
	}
	if sug.Status != domain.SuggestionPending {
		return domain.ActivitySuggestion{}, domain.Validationf("suggestion %s already decided", suggestionID)
	}
	now := s.Engine.Now().UTC().Format(time.RFC3339)
	switch d.Action {
	case "reject":
		if err := s.Engine.Repo.UpdateSuggestionStatus(ctx, ownerID, suggestionID, domain.SuggestionRejected, nil, now); err != nil {
			return domain.ActivitySuggestion{}, err
		}
		sug.Status = domain.SuggestionRejected
		sug.UpdatedAt = now
		return sug, nil
	case "accept", "modify":
		in := engine.ActivityInput{
			Title:       sug.SuggestedTitle,
			Description: sug.SuggestedDescription,
			Category:    sug.SuggestedCategory,
			Tags:        sug.SuggestedTags,
			Date:        eventDate(sug.EventStart),
		}
		if minutes := eventMinutes(sug.EventStart, sug.EventEnd); minutes > 0 {
			in.DurationMinutes = &minutes
		}
		if d.Action == "modify" && d.Overrides != nil {
			applyOverrides(&in, *d.Overrides)
		}
		a, err := s.Engine.CreateActivity(ctx, ownerID, in)
		if err != nil {
			return domain.ActivitySuggestion{}, err
		}
		status := domain.SuggestionAccepted
		if d.Action == "modify" {
			status = domain.SuggestionModified
		}
		if err := s.Engine.Repo.UpdateSuggestionStatus(ctx, ownerID, suggestionID, status, &a.ID, now); err != nil {
			return domain.ActivitySuggestion{}, err
		}
		sug.Status = status
		sug.ActivityID = &a.ID
		sug.UpdatedAt = now
		return sug, nil
	default:
		return domain.ActivitySuggestion{}, domain.FieldError("action", "unknown action %q", d.Action)
	}
}

func applyOverrides(in *engine.ActivityInput, o engine.ActivityInput) {
	if strings.TrimSpace(o.Title) != "" {
		in.Title = o.Title
	}
	if o.Description != "" {
		in.Description = o.Description
	}
	if o.Category != "" {
		in.Category = o.Category
	}
	if o.Tags != nil {
		in.Tags = o.Tags
	}
	if o.ImpactLevel != nil {
		in.ImpactLevel = o.ImpactLevel
	}
	if o.Date != "" {
		in.Date = o.Date
	}
	if o.DurationMinutes != nil {
		in.DurationMinutes = o.DurationMinutes
	}
	if o.Metadata != nil {
		in.Metadata = o.Metadata
	}
}

func eventDate(start string) string {
	if t, err := time.Parse(time.RFC3339, start); err == nil {
		return t.Format("2006-01-02")
	}
	if len(start) >= 10 {
		return start[:10]
	}
	return start
}

func eventMinutes(start, end string) int {
	st, err1 := time.Parse(time.RFC3339, start)
	en, err2 := time.Parse(time.RFC3339, end)
	if err1 != nil || err2 != nil || !en.After(st) {
		return 0
	}
	return int(en.Sub(st) / time.Minute)
}
