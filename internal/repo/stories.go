package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"worktrack/internal/domain"
)

type StoryFilters struct {
	UserID     string
	Status     string
	Tags       []string
	AIEnhanced *bool
	Search     string
	Limit      int
	Offset     int
}

func storyFilterClauses(f StoryFilters) ([]string, []any) {
	clauses := []string{"user_id=?"}
	args := []any{f.UserID}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if len(f.Tags) > 0 {
		// Tags are stored as a JSON array of normalized strings; a story
		// matches when it carries any of the requested tags.
		likes := make([]string, 0, len(f.Tags))
		for _, tag := range f.Tags {
			likes = append(likes, "tags_json LIKE ?")
			args = append(args, `%"`+tag+`"%`)
		}
		clauses = append(clauses, "("+strings.Join(likes, " OR ")+")")
	}
	if f.AIEnhanced != nil {
		clauses = append(clauses, "ai_enhanced=?")
		args = append(args, boolToInt(*f.AIEnhanced))
	}
	if f.Search != "" {
		clauses = append(clauses, "(title LIKE ? OR situation LIKE ? OR task LIKE ? OR action LIKE ? OR result LIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, pattern, pattern, pattern)
	}
	return clauses, args
}

func (r Repo) InsertStory(ctx context.Context, s domain.Story) error {
	metrics, err := marshalImpactMetrics(s.ImpactMetrics)
	if err != nil {
		return err
	}
	tags, err := marshalJSON(s.Tags)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO stories(id,user_id,title,situation,task,action,result,impact_metrics_json,tags_json,status,ai_enhanced,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.ID, s.UserID, s.Title, s.Situation, s.Task, s.Action, s.Result, metrics, tags, s.Status, boolToInt(s.AIEnhanced), s.CreatedAt, s.UpdatedAt)
	return err
}

func (r Repo) UpdateStory(ctx context.Context, s domain.Story) error {
	metrics, err := marshalImpactMetrics(s.ImpactMetrics)
	if err != nil {
		return err
	}
	tags, err := marshalJSON(s.Tags)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE stories SET title=?, situation=?, task=?, action=?, result=?, impact_metrics_json=?, tags_json=?, status=?, ai_enhanced=?, updated_at=? WHERE id=? AND user_id=?`,
		s.Title, s.Situation, s.Task, s.Action, s.Result, metrics, tags, s.Status, boolToInt(s.AIEnhanced), s.UpdatedAt, s.ID, s.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalImpactMetrics(m domain.ImpactMetrics) (any, error) {
	if m.IsZero() {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scanStoryRow(scan func(...any) error) (domain.Story, error) {
	var s domain.Story
	var metrics, tags sql.NullString
	var aiEnhanced int
	err := scan(&s.ID, &s.UserID, &s.Title, &s.Situation, &s.Task, &s.Action, &s.Result, &metrics, &tags, &s.Status, &aiEnhanced, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return s, err
	}
	s.AIEnhanced = aiEnhanced != 0
	if metrics.Valid {
		if err := json.Unmarshal([]byte(metrics.String), &s.ImpactMetrics); err != nil {
			return s, fmt.Errorf("story %s impact metrics: %w", s.ID, err)
		}
	}
	s.Tags = []string{}
	if tags.Valid {
		if err := json.Unmarshal([]byte(tags.String), &s.Tags); err != nil {
			return s, fmt.Errorf("story %s tags: %w", s.ID, err)
		}
	}
	return s, nil
}

const storyColumns = `id,user_id,title,situation,task,action,result,impact_metrics_json,tags_json,status,ai_enhanced,created_at,updated_at`

func (r Repo) GetStory(ctx context.Context, userID, id string) (domain.Story, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+storyColumns+` FROM stories WHERE id=? AND user_id=?`, id, userID)
	s, err := scanStoryRow(row.Scan)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	return s, err
}

func (r Repo) ListStories(ctx context.Context, f StoryFilters) ([]domain.Story, error) {
	clauses, args := storyFilterClauses(f)
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := `SELECT ` + storyColumns + ` FROM stories ` + where + ` ORDER BY updated_at DESC, id DESC`
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
	var res []domain.Story
	for rows.Next() {
		s, err := scanStoryRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r Repo) CountStories(ctx context.Context, f StoryFilters) (int, error) {
	clauses, args := storyFilterClauses(f)
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM stories WHERE `+strings.Join(clauses, " AND "), args...).Scan(&count)
	return count, err
}

func (r Repo) DeleteStory(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM stories WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// StoriesCreatedBetween returns stories created inside [from, to], oldest first.
// Bounds are date strings; created_at carries a full timestamp so the day prefix
// is compared.
func (r Repo) StoriesCreatedBetween(ctx context.Context, userID, from, to string) ([]domain.Story, error) {
	clauses := []string{"user_id=?"}
	args := []any{userID}
	if from != "" {
		clauses = append(clauses, "substr(created_at,1,10)>=?")
		args = append(args, from)
	}
	if to != "" {
		clauses = append(clauses, "substr(created_at,1,10)<=?")
		args = append(args, to)
	}
	query := `SELECT ` + storyColumns + ` FROM stories WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Story
	for rows.Next() {
		s, err := scanStoryRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// StoryTags returns the user's distinct story tags, sorted. Tags live in a
// JSON column, so the union is built here rather than in SQL.
func (r Repo) StoryTags(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT tags_json FROM stories WHERE user_id=? AND tags_json IS NOT NULL`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seen := map[string]bool{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return nil, fmt.Errorf("story tags: %w", err)
		}
		for _, tag := range tags {
			if tag != "" {
				seen[tag] = true
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	res := make([]string, 0, len(seen))
	for tag := range seen {
		res = append(res, tag)
	}
	sort.Strings(res)
	return res, nil
}

func (r Repo) CountStoriesByStatus(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, count(*) FROM stories WHERE user_id=? GROUP BY status`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		res[status] = count
	}
	return res, rows.Err()
}
