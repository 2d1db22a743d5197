package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"worktrack/internal/domain"
)

const suggestionColumns = `id,user_id,provider_event_id,event_title,event_start,event_end,suggested_title,suggested_description,suggested_category,suggested_tags_json,confidence_score,reasoning,status,activity_id,created_at,updated_at`

// UpsertSuggestion inserts a suggestion or refreshes the suggested fields when
// one already exists for the same provider event. Decisions already made
// (status, activity_id) are left untouched.
func (r Repo) UpsertSuggestion(ctx context.Context, s domain.ActivitySuggestion) error {
	tags, err := marshalJSON(s.SuggestedTags)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO activity_suggestions(`+suggestionColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(user_id, provider_event_id) DO UPDATE SET
	event_title=excluded.event_title,
	event_start=excluded.event_start,
	event_end=excluded.event_end,
	suggested_title=excluded.suggested_title,
	suggested_description=excluded.suggested_description,
	suggested_category=excluded.suggested_category,
	suggested_tags_json=excluded.suggested_tags_json,
	confidence_score=excluded.confidence_score,
	reasoning=excluded.reasoning,
	updated_at=excluded.updated_at`,
		s.ID, s.UserID, s.ProviderEventID, s.EventTitle, s.EventStart, s.EventEnd,
		s.SuggestedTitle, nullable(s.SuggestedDescription), s.SuggestedCategory, tags,
		s.ConfidenceScore, nullable(s.Reasoning), s.Status, nullableStringPtr(s.ActivityID),
		s.CreatedAt, s.UpdatedAt)
	return err
}

func scanSuggestionRow(scan func(...any) error) (domain.ActivitySuggestion, error) {
	var s domain.ActivitySuggestion
	var description, tags, reasoning, activityID sql.NullString
	err := scan(&s.ID, &s.UserID, &s.ProviderEventID, &s.EventTitle, &s.EventStart, &s.EventEnd,
		&s.SuggestedTitle, &description, &s.SuggestedCategory, &tags, &s.ConfidenceScore,
		&reasoning, &s.Status, &activityID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return s, err
	}
	if description.Valid {
		s.SuggestedDescription = description.String
	}
	if reasoning.Valid {
		s.Reasoning = reasoning.String
	}
	if activityID.Valid {
		s.ActivityID = &activityID.String
	}
	s.SuggestedTags = []string{}
	if tags.Valid {
		if err := json.Unmarshal([]byte(tags.String), &s.SuggestedTags); err != nil {
			return s, fmt.Errorf("suggestion %s tags: %w", s.ID, err)
		}
	}
	return s, nil
}

func (r Repo) GetSuggestion(ctx context.Context, userID, id string) (domain.ActivitySuggestion, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+suggestionColumns+` FROM activity_suggestions WHERE id=? AND user_id=?`, id, userID)
	s, err := scanSuggestionRow(row.Scan)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	return s, err
}

func (r Repo) ListSuggestions(ctx context.Context, userID, status string, limit int) ([]domain.ActivitySuggestion, error) {
	clauses := []string{"user_id=?"}
	args := []any{userID}
	if status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, status)
	}
	query := `SELECT ` + suggestionColumns + ` FROM activity_suggestions WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY event_start DESC, id DESC`
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ActivitySuggestion
	for rows.Next() {
		s, err := scanSuggestionRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r Repo) UpdateSuggestionStatus(ctx context.Context, userID, id, status string, activityID *string, updatedAt string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE activity_suggestions SET status=?, activity_id=?, updated_at=? WHERE id=? AND user_id=?`,
		status, nullableStringPtr(activityID), updatedAt, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
