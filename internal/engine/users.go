package engine

import (
	"context"
	"errors"

	"worktrack/internal/domain"
	"worktrack/internal/repo"
)

// UpdatePreferences replaces the user's preference document wholesale.
func (e Engine) UpdatePreferences(ctx context.Context, userID string, prefs map[string]any) (domain.User, error) {
	err := e.Repo.UpdateUserPreferences(ctx, userID, prefs, e.timestamp())
	if errors.Is(err, repo.ErrNotFound) {
		return domain.User{}, domain.NotFoundf("user %s not found", userID)
	}
	if err != nil {
		return domain.User{}, err
	}
	return e.Repo.GetUser(ctx, userID)
}
