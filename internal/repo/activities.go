package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"worktrack/internal/domain"
)

type ActivityFilters struct {
	UserID    string
	Category  string
	Tags      []string
	DateFrom  string
	DateTo    string
	ImpactMin int
	ImpactMax int
	Search    string
	Limit     int
	Offset    int
}

func (r Repo) InsertActivity(ctx context.Context, a domain.Activity) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	meta, err := marshalJSON(a.Metadata)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO activities(id,user_id,title,description,category,impact_level,date,duration_minutes,metadata_json,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.UserID, a.Title, nullable(a.Description), a.Category, nullableIntPtr(a.ImpactLevel),
		a.Date, nullableIntPtr(a.DurationMinutes), meta, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return err
	}
	if err := replaceActivityTags(ctx, tx, a.ID, a.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

func (r Repo) UpdateActivity(ctx context.Context, a domain.Activity) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	meta, err := marshalJSON(a.Metadata)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE activities SET title=?, description=?, category=?, impact_level=?, date=?, duration_minutes=?, metadata_json=?, updated_at=? WHERE id=? AND user_id=?`,
		a.Title, nullable(a.Description), a.Category, nullableIntPtr(a.ImpactLevel), a.Date,
		nullableIntPtr(a.DurationMinutes), meta, a.UpdatedAt, a.ID, a.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := replaceActivityTags(ctx, tx, a.ID, a.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceActivityTags(ctx context.Context, tx *sql.Tx, activityID string, tags []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM activity_tags WHERE activity_id=?`, activityID); err != nil {
		return err
	}
	for _, tag := range tags {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO activity_tags(activity_id, tag) VALUES (?,?)`, activityID, tag); err != nil {
			return err
		}
	}
	return nil
}

func (r Repo) GetActivity(ctx context.Context, userID, id string) (domain.Activity, error) {
	var a domain.Activity
	var description, meta sql.NullString
	var impact, duration sql.NullInt64
	err := r.DB.QueryRowContext(ctx, `SELECT id,user_id,title,description,category,impact_level,date,duration_minutes,metadata_json,created_at,updated_at FROM activities WHERE id=? AND user_id=?`, id, userID).
		Scan(&a.ID, &a.UserID, &a.Title, &description, &a.Category, &impact, &a.Date, &duration, &meta, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	if description.Valid {
		a.Description = description.String
	}
	if impact.Valid {
		v := int(impact.Int64)
		a.ImpactLevel = &v
	}
	if duration.Valid {
		v := int(duration.Int64)
		a.DurationMinutes = &v
	}
	if meta.Valid {
		if err := json.Unmarshal([]byte(meta.String), &a.Metadata); err != nil {
			return a, fmt.Errorf("activity %s metadata: %w", a.ID, err)
		}
	}
	tags, err := r.listActivityTags(ctx, a.ID)
	if err != nil {
		return a, err
	}
	a.Tags = tags
	return a, nil
}

func (r Repo) listActivityTags(ctx context.Context, activityID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT tag FROM activity_tags WHERE activity_id=? ORDER BY tag`, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (r Repo) ListActivities(ctx context.Context, f ActivityFilters) ([]domain.Activity, error) {
	clauses := []string{"user_id=?"}
	args := []any{f.UserID}
	if f.Category != "" {
		clauses = append(clauses, "category=?")
		args = append(args, f.Category)
	}
	if len(f.Tags) > 0 {
		placeholders := strings.Repeat("?,", len(f.Tags))
		placeholders = placeholders[:len(placeholders)-1]
		clauses = append(clauses, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM activity_tags at WHERE at.activity_id=activities.id AND at.tag IN (%s)
		)`, placeholders))
		for _, t := range f.Tags {
			args = append(args, t)
		}
	}
	if f.DateFrom != "" {
		clauses = append(clauses, "date>=?")
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		clauses = append(clauses, "date<=?")
		args = append(args, f.DateTo)
	}
	if f.ImpactMin > 0 {
		clauses = append(clauses, "impact_level>=?")
		args = append(args, f.ImpactMin)
	}
	if f.ImpactMax > 0 {
		clauses = append(clauses, "impact_level<=?")
		args = append(args, f.ImpactMax)
	}
	if f.Search != "" {
		clauses = append(clauses, "(title LIKE ? OR description LIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := `SELECT id,user_id,title,description,category,impact_level,date,duration_minutes,metadata_json,created_at,updated_at FROM activities ` + where + ` ORDER BY date DESC, created_at DESC, id DESC`
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
	var res []domain.Activity
	for rows.Next() {
		var a domain.Activity
		var description, meta sql.NullString
		var impact, duration sql.NullInt64
		if err := rows.Scan(&a.ID, &a.UserID, &a.Title, &description, &a.Category, &impact, &a.Date, &duration, &meta, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		if description.Valid {
			a.Description = description.String
		}
		if impact.Valid {
			v := int(impact.Int64)
			a.ImpactLevel = &v
		}
		if duration.Valid {
			v := int(duration.Int64)
			a.DurationMinutes = &v
		}
		if meta.Valid {
			if err := json.Unmarshal([]byte(meta.String), &a.Metadata); err != nil {
				return nil, fmt.Errorf("activity %s metadata: %w", a.ID, err)
			}
		}
		res = append(res, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range res {
		tags, err := r.listActivityTags(ctx, res[i].ID)
		if err != nil {
			return nil, err
		}
		res[i].Tags = tags
	}
	return res, nil
}

func (r Repo) CountActivities(ctx context.Context, f ActivityFilters) (int, error) {
	clauses := []string{"user_id=?"}
	args := []any{f.UserID}
	if f.Category != "" {
		clauses = append(clauses, "category=?")
		args = append(args, f.Category)
	}
	if len(f.Tags) > 0 {
		placeholders := strings.Repeat("?,", len(f.Tags))
		placeholders = placeholders[:len(placeholders)-1]
		clauses = append(clauses, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM activity_tags at WHERE at.activity_id=activities.id AND at.tag IN (%s)
		)`, placeholders))
		for _, t := range f.Tags {
			args = append(args, t)
		}
	}
	if f.DateFrom != "" {
		clauses = append(clauses, "date>=?")
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		clauses = append(clauses, "date<=?")
		args = append(args, f.DateTo)
	}
	if f.ImpactMin > 0 {
		clauses = append(clauses, "impact_level>=?")
		args = append(args, f.ImpactMin)
	}
	if f.ImpactMax > 0 {
		clauses = append(clauses, "impact_level<=?")
		args = append(args, f.ImpactMax)
	}
	if f.Search != "" {
		clauses = append(clauses, "(title LIKE ? OR description LIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern)
	}
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM activities WHERE `+strings.Join(clauses, " AND "), args...).Scan(&count)
	return count, err
}

func (r Repo) DeleteActivity(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM activities WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DistinctTags returns every tag the user has applied, sorted.
func (r Repo) DistinctTags(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT at.tag FROM activity_tags at
JOIN activities a ON a.id=at.activity_id WHERE a.user_id=? ORDER BY at.tag`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// RecentTitles returns distinct activity titles for the user, newest first.
func (r Repo) RecentTitles(ctx context.Context, userID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT title FROM activities WHERE user_id=? ORDER BY date DESC, created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// CountActivitiesByCategory groups the user's activities by category.
func (r Repo) CountActivitiesByCategory(ctx context.Context, userID, dateFrom, dateTo string) (map[string]int, error) {
	clauses := []string{"user_id=?"}
	args := []any{userID}
	if dateFrom != "" {
		clauses = append(clauses, "date>=?")
		args = append(args, dateFrom)
	}
	if dateTo != "" {
		clauses = append(clauses, "date<=?")
		args = append(args, dateTo)
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT category, count(*) FROM activities WHERE `+strings.Join(clauses, " AND ")+` GROUP BY category`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		res[category] = count
	}
	return res, rows.Err()
}
