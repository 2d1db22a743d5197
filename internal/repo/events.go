package repo

import (
	"context"
	"database/sql"
	"strings"

	"worktrack/internal/domain"
)

func (r Repo) LatestEvents(ctx context.Context, ownerID, evtType, entityKind string, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	clauses := []string{"owner_id=?"}
	args := []any{ownerID}
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	if entityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, entityKind)
	}
	query := `SELECT id,ts,type,owner_id,entity_kind,entity_id,payload_json FROM events WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var owner, entityID sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &owner, &e.EntityKind, &entityID, &e.Payload); err != nil {
			return nil, err
		}
		if owner.Valid {
			e.OwnerID = owner.String
		}
		if entityID.Valid {
			e.EntityID = entityID.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
