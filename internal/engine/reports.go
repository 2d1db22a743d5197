package engine

import (
	"context"
	"errors"
	"strings"

	"worktrack/internal/domain"
	"worktrack/internal/events"
	"worktrack/internal/repo"
)

type ReportInput struct {
	Title              string
	PeriodStart        string
	PeriodEnd          string
	ReportType         string
	Content            string
	ActivitiesIncluded []string
	StoriesIncluded    []string
}

func validateReportInput(in ReportInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return domain.FieldError("title", "title must not be empty")
	}
	if !domain.ValidReportType(in.ReportType) {
		return domain.FieldError("report_type", "unknown report type %q", in.ReportType)
	}
	if in.PeriodStart == "" || in.PeriodEnd == "" {
		return domain.FieldError("period", "period_start and period_end are required")
	}
	if in.PeriodEnd < in.PeriodStart {
		return domain.FieldError("period", "period_end precedes period_start")
	}
	return nil
}

func (e Engine) CreateReport(ctx context.Context, ownerID string, in ReportInput) (domain.Report, error) {
	if err := validateReportInput(in); err != nil {
		return domain.Report{}, err
	}
	now := e.timestamp()
	rep := domain.Report{
		ID:                 newID(),
		UserID:             ownerID,
		Title:              strings.TrimSpace(in.Title),
		PeriodStart:        in.PeriodStart,
		PeriodEnd:          in.PeriodEnd,
		ReportType:         in.ReportType,
		Content:            in.Content,
		ActivitiesIncluded: in.ActivitiesIncluded,
		StoriesIncluded:    in.StoriesIncluded,
		Status:             domain.ReportDraft,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if rep.ActivitiesIncluded == nil {
		rep.ActivitiesIncluded = []string{}
	}
	if rep.StoriesIncluded == nil {
		rep.StoriesIncluded = []string{}
	}
	if rep.Content != "" {
		rep.Status = domain.ReportComplete
	}
	if err := e.Repo.InsertReport(ctx, rep); err != nil {
		return domain.Report{}, err
	}
	if err := e.Events.Append(ctx, "report.create", ownerID, "report", rep.ID, events.EventPayload{"report_type": rep.ReportType}); err != nil {
		e.logf("append report.create event: %v", err)
	}
	return rep, nil
}

func (e Engine) GetReport(ctx context.Context, ownerID, id string) (domain.Report, error) {
	rep, err := e.Repo.GetReport(ctx, ownerID, id)
	if errors.Is(err, repo.ErrNotFound) {
		return rep, domain.NotFoundf("report %s not found", id)
	}
	return rep, err
}

type ReportList struct {
	Items  []domain.Report
	Total  int
	Limit  int
	Offset int
}

func (e Engine) ListReports(ctx context.Context, f repo.ReportFilters) (ReportList, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	items, err := e.Repo.ListReports(ctx, f)
	if err != nil {
		return ReportList{}, err
	}
	total, err := e.Repo.CountReports(ctx, f)
	if err != nil {
		return ReportList{}, err
	}
	return ReportList{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

type ReportPatch struct {
	Title   *string
	Content *string
	Status  *string
}

func (e Engine) UpdateReport(ctx context.Context, ownerID, id string, patch ReportPatch) (domain.Report, error) {
	rep, err := e.GetReport(ctx, ownerID, id)
	if err != nil {
		return domain.Report{}, err
	}
	if patch.Title != nil {
		rep.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Content != nil {
		rep.Content = *patch.Content
	}
	if patch.Status != nil {
		switch *patch.Status {
		case domain.ReportDraft, domain.ReportComplete, domain.ReportFailed:
			rep.Status = *patch.Status
		default:
			return domain.Report{}, domain.FieldError("status", "unknown status %q", *patch.Status)
		}
	}
	if strings.TrimSpace(rep.Title) == "" {
		return domain.Report{}, domain.FieldError("title", "title must not be empty")
	}
	rep.UpdatedAt = e.timestamp()
	if err := e.Repo.UpdateReport(ctx, rep); err != nil {
		return domain.Report{}, err
	}
	return rep, nil
}

func (e Engine) DeleteReport(ctx context.Context, ownerID, id string) error {
	err := e.Repo.DeleteReport(ctx, ownerID, id)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.NotFoundf("report %s not found", id)
	}
	if err != nil {
		return err
	}
	if err := e.Events.Append(ctx, "report.delete", ownerID, "report", id, nil); err != nil {
		e.logf("append report.delete event: %v", err)
	}
	return nil
}

// GenerateReport builds report content from the owner's activities in the
// period. The record moves draft -> generating -> complete (or failed); the
// generation itself runs synchronously within the call.
func (e Engine) GenerateReport(ctx context.Context, ownerID string, in ReportInput) (domain.Report, error) {
	if err := validateReportInput(in); err != nil {
		return domain.Report{}, err
	}
	activities, err := e.Repo.ListActivities(ctx, repo.ActivityFilters{
		UserID:   ownerID,
		DateFrom: in.PeriodStart,
		DateTo:   in.PeriodEnd,
	})
	if err != nil {
		return domain.Report{}, err
	}
	now := e.timestamp()
	rep := domain.Report{
		ID:                 newID(),
		UserID:             ownerID,
		Title:              strings.TrimSpace(in.Title),
		PeriodStart:        in.PeriodStart,
		PeriodEnd:          in.PeriodEnd,
		ReportType:         in.ReportType,
		ActivitiesIncluded: activityIDs(activities),
		StoriesIncluded:    []string{},
		Status:             domain.ReportGenerating,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := e.Repo.InsertReport(ctx, rep); err != nil {
		return domain.Report{}, err
	}
	if e.AI == nil {
		rep.Status = domain.ReportFailed
		rep.UpdatedAt = e.timestamp()
		if uerr := e.Repo.UpdateReport(ctx, rep); uerr != nil {
			return domain.Report{}, uerr
		}
		return rep, domain.Externalf("ai assistance is not configured")
	}
	content, byAI := e.AI.GenerateReport(ctx, rep.ReportType, rep.PeriodStart, rep.PeriodEnd, activities)
	rep.Content = content
	rep.GeneratedByAI = byAI
	rep.Status = domain.ReportComplete
	rep.UpdatedAt = e.timestamp()
	if err := e.Repo.UpdateReport(ctx, rep); err != nil {
		return domain.Report{}, err
	}
	if err := e.Events.Append(ctx, "report.generate", ownerID, "report", rep.ID, events.EventPayload{"generated_by_ai": byAI, "activities": len(activities)}); err != nil {
		e.logf("append report.generate event: %v", err)
	}
	return rep, nil
}

func activityIDs(activities []domain.Activity) []string {
	ids := make([]string, len(activities))
	for i, a := range activities {
		ids[i] = a.ID
	}
	return ids
}
