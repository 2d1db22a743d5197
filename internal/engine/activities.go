package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"worktrack/internal/domain"
	"worktrack/internal/events"
	"worktrack/internal/repo"
)

type ActivityInput struct {
	Title           string
	Description     string
	Category        string
	Tags            []string
	ImpactLevel     *int
	Date            string
	DurationMinutes *int
	Metadata        map[string]any
}

// ActivityPatch carries partial updates; nil fields are left untouched.
type ActivityPatch struct {
	Title           *string
	Description     *string
	Category        *string
	Tags            *[]string
	ImpactLevel     *int
	Date            *string
	DurationMinutes *int
	Metadata        *map[string]any
}

func validateActivityFields(title, category, date string, impactLevel *int) error {
	if strings.TrimSpace(title) == "" {
		return domain.FieldError("title", "title must not be empty")
	}
	if !domain.ValidCategory(category) {
		return domain.FieldError("category", fmt.Sprintf("unknown category %q", category))
	}
	if impactLevel != nil && (*impactLevel < 1 || *impactLevel > 5) {
		return domain.FieldError("impact_level", "impact_level must be between 1 and 5")
	}
	if date == "" {
		return domain.FieldError("date", "date is required")
	}
	return nil
}

func (e Engine) CreateActivity(ctx context.Context, ownerID string, in ActivityInput) (domain.Activity, error) {
	if err := validateActivityFields(in.Title, in.Category, in.Date, in.ImpactLevel); err != nil {
		return domain.Activity{}, err
	}
	now := e.timestamp()
	a := domain.Activity{
		ID:              newID(),
		UserID:          ownerID,
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		Category:        in.Category,
		Tags:            NormalizeTags(in.Tags),
		ImpactLevel:     in.ImpactLevel,
		Date:            in.Date,
		DurationMinutes: in.DurationMinutes,
		Metadata:        in.Metadata,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := e.Repo.InsertActivity(ctx, a); err != nil {
		return domain.Activity{}, err
	}
	if err := e.Events.Append(ctx, "activity.create", ownerID, "activity", a.ID, events.EventPayload{"category": a.Category}); err != nil {
		e.logf("append activity.create event: %v", err)
	}
	return e.Repo.GetActivity(ctx, ownerID, a.ID)
}

func (e Engine) GetActivity(ctx context.Context, ownerID, id string) (domain.Activity, error) {
	a, err := e.Repo.GetActivity(ctx, ownerID, id)
	if errors.Is(err, repo.ErrNotFound) {
		return a, domain.NotFoundf("activity %s not found", id)
	}
	return a, err
}

func (e Engine) UpdateActivity(ctx context.Context, ownerID, id string, patch ActivityPatch) (domain.Activity, error) {
	a, err := e.GetActivity(ctx, ownerID, id)
	if err != nil {
		return domain.Activity{}, err
	}
	if patch.Title != nil {
		a.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		a.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Category != nil {
		a.Category = *patch.Category
	}
	if patch.Tags != nil {
		a.Tags = NormalizeTags(*patch.Tags)
	}
	if patch.ImpactLevel != nil {
		a.ImpactLevel = patch.ImpactLevel
	}
	if patch.Date != nil {
		a.Date = *patch.Date
	}
	if patch.DurationMinutes != nil {
		a.DurationMinutes = patch.DurationMinutes
	}
	if patch.Metadata != nil {
		a.Metadata = *patch.Metadata
	}
	if err := validateActivityFields(a.Title, a.Category, a.Date, a.ImpactLevel); err != nil {
		return domain.Activity{}, err
	}
	a.UpdatedAt = e.timestamp()
	if err := e.Repo.UpdateActivity(ctx, a); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Activity{}, domain.NotFoundf("activity %s not found", id)
		}
		return domain.Activity{}, err
	}
	if err := e.Events.Append(ctx, "activity.update", ownerID, "activity", a.ID, nil); err != nil {
		e.logf("append activity.update event: %v", err)
	}
	return e.Repo.GetActivity(ctx, ownerID, a.ID)
}

type ActivityList struct {
	Items  []domain.Activity
	Total  int
	Limit  int
	Offset int
}

func (e Engine) ListActivities(ctx context.Context, f repo.ActivityFilters) (ActivityList, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.ImpactMin < 0 || f.ImpactMax > 5 || (f.ImpactMin > 0 && f.ImpactMax > 0 && f.ImpactMin > f.ImpactMax) {
		return ActivityList{}, domain.FieldError("impact", "impact range must lie within [1,5]")
	}
	normalized := make([]string, 0, len(f.Tags))
	for _, t := range f.Tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			normalized = append(normalized, t)
		}
	}
	f.Tags = normalized
	items, err := e.Repo.ListActivities(ctx, f)
	if err != nil {
		return ActivityList{}, err
	}
	total, err := e.Repo.CountActivities(ctx, f)
	if err != nil {
		return ActivityList{}, err
	}
	return ActivityList{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (e Engine) DeleteActivity(ctx context.Context, ownerID, id string) error {
	err := e.Repo.DeleteActivity(ctx, ownerID, id)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.NotFoundf("activity %s not found", id)
	}
	if err != nil {
		return err
	}
	if err := e.Events.Append(ctx, "activity.delete", ownerID, "activity", id, nil); err != nil {
		e.logf("append activity.delete event: %v", err)
	}
	return nil
}

// TagSuggestions returns the owner's tags matching partial, prefix matches first.
func (e Engine) TagSuggestions(ctx context.Context, ownerID, partial string, limit int) ([]string, error) {
	tags, err := e.Repo.DistinctTags(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return rankSuggestions(tags, partial, limit), nil
}

// TitleSuggestions applies the same two-tier ordering to historical titles.
func (e Engine) TitleSuggestions(ctx context.Context, ownerID, partial string, limit int) ([]string, error) {
	titles, err := e.Repo.RecentTitles(ctx, ownerID, 200)
	if err != nil {
		return nil, err
	}
	return rankSuggestions(titles, partial, limit), nil
}

// CategorySummary counts the owner's activities per category over an optional
// date window. Every known category appears, zero included.
func (e Engine) CategorySummary(ctx context.Context, ownerID, dateFrom, dateTo string) (map[string]int, error) {
	counts, err := e.Repo.CountActivitiesByCategory(ctx, ownerID, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	res := make(map[string]int, len(domain.ActivityCategories))
	for _, c := range domain.ActivityCategories {
		res[c] = counts[c]
	}
	return res, nil
}
