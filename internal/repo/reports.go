package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"worktrack/internal/domain"
)

type ReportFilters struct {
	UserID     string
	ReportType string
	Status     string
	Limit      int
	Offset     int
}

const reportColumns = `id,user_id,title,period_start,period_end,report_type,content,activities_json,stories_json,generated_by_ai,status,created_at,updated_at`

func (r Repo) InsertReport(ctx context.Context, rep domain.Report) error {
	activities, err := marshalJSON(rep.ActivitiesIncluded)
	if err != nil {
		return err
	}
	stories, err := marshalJSON(rep.StoriesIncluded)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO reports(`+reportColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rep.ID, rep.UserID, rep.Title, rep.PeriodStart, rep.PeriodEnd, rep.ReportType, nullable(rep.Content),
		activities, stories, boolToInt(rep.GeneratedByAI), rep.Status, rep.CreatedAt, rep.UpdatedAt)
	return err
}

func (r Repo) UpdateReport(ctx context.Context, rep domain.Report) error {
	activities, err := marshalJSON(rep.ActivitiesIncluded)
	if err != nil {
		return err
	}
	stories, err := marshalJSON(rep.StoriesIncluded)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE reports SET title=?, period_start=?, period_end=?, report_type=?, content=?, activities_json=?, stories_json=?, generated_by_ai=?, status=?, updated_at=? WHERE id=? AND user_id=?`,
		rep.Title, rep.PeriodStart, rep.PeriodEnd, rep.ReportType, nullable(rep.Content),
		activities, stories, boolToInt(rep.GeneratedByAI), rep.Status, rep.UpdatedAt, rep.ID, rep.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReportRow(scan func(...any) error) (domain.Report, error) {
	var rep domain.Report
	var content, activities, stories sql.NullString
	var generatedByAI int
	err := scan(&rep.ID, &rep.UserID, &rep.Title, &rep.PeriodStart, &rep.PeriodEnd, &rep.ReportType,
		&content, &activities, &stories, &generatedByAI, &rep.Status, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return rep, err
	}
	rep.GeneratedByAI = generatedByAI != 0
	if content.Valid {
		rep.Content = content.String
	}
	rep.ActivitiesIncluded = []string{}
	if activities.Valid {
		if err := json.Unmarshal([]byte(activities.String), &rep.ActivitiesIncluded); err != nil {
			return rep, fmt.Errorf("report %s activities: %w", rep.ID, err)
		}
	}
	rep.StoriesIncluded = []string{}
	if stories.Valid {
		if err := json.Unmarshal([]byte(stories.String), &rep.StoriesIncluded); err != nil {
			return rep, fmt.Errorf("report %s stories: %w", rep.ID, err)
		}
	}
	return rep, nil
}

func (r Repo) GetReport(ctx context.Context, userID, id string) (domain.Report, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id=? AND user_id=?`, id, userID)
	rep, err := scanReportRow(row.Scan)
	if err == sql.ErrNoRows {
		return rep, ErrNotFound
	}
	return rep, err
}

func (r Repo) ListReports(ctx context.Context, f ReportFilters) ([]domain.Report, error) {
	clauses := []string{"user_id=?"}
	args := []any{f.UserID}
	if f.ReportType != "" {
		clauses = append(clauses, "report_type=?")
		args = append(args, f.ReportType)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := `SELECT ` + reportColumns + ` FROM reports ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
		if f.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, f.Offset)
		}
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Report
	for rows.Next() {
		rep, err := scanReportRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, rep)
	}
	return res, rows.Err()
}

func (r Repo) CountReports(ctx context.Context, f ReportFilters) (int, error) {
	clauses := []string{"user_id=?"}
	args := []any{f.UserID}
	if f.ReportType != "" {
		clauses = append(clauses, "report_type=?")
		args = append(args, f.ReportType)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM reports WHERE `+strings.Join(clauses, " AND "), args...).Scan(&count)
	return count, err
}

func (r Repo) DeleteReport(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM reports WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReportsOverlapping returns reports whose period intersects [from, to].
func (r Repo) ReportsOverlapping(ctx context.Context, userID, from, to string) ([]domain.Report, error) {
	clauses := []string{"user_id=?"}
	args := []any{userID}
	if from != "" {
		clauses = append(clauses, "period_end>=?")
		args = append(args, from)
	}
	if to != "" {
		clauses = append(clauses, "period_start<=?")
		args = append(args, to)
	}
	query := `SELECT ` + reportColumns + ` FROM reports WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Report
	for rows.Next() {
		rep, err := scanReportRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, rep)
	}
	return res, rows.Err()
}
