package engine

import (
	"database/sql"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"worktrack/internal/ai"
	"worktrack/internal/config"
	"worktrack/internal/events"
	"worktrack/internal/repo"
)

// Engine holds the collaborators behind every service operation. Everything
// is injected; there is no package-level state.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	AI     *ai.Service
	Now    func() time.Time
	Logger *log.Logger
}

func New(db *sql.DB, cfg *config.Config, aiService *ai.Service, logger *log.Logger) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		AI:     aiService,
		Now:    time.Now,
		Logger: logger,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) timestamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

func newID() string {
	return uuid.New().String()
}

func (e Engine) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}

// NormalizeTags trims, lowercases and deduplicates tags, dropping blanks.
// First occurrence order is preserved.
func NormalizeTags(tags []string) []string {
	seen := map[string]bool{}
	res := []string{}
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		res = append(res, t)
	}
	return res
}

// rankSuggestions orders candidates containing partial, starts-with matches
// before contains matches, truncated to limit.
func rankSuggestions(candidates []string, partial string, limit int) []string {
	if limit <= 0 {
		limit = 10
	}
	needle := strings.ToLower(strings.TrimSpace(partial))
	var starts, contains []string
	seen := map[string]bool{}
	for _, c := range candidates {
		lc := strings.ToLower(c)
		if seen[lc] {
			continue
		}
		switch {
		case strings.HasPrefix(lc, needle):
			seen[lc] = true
			starts = append(starts, c)
		case strings.Contains(lc, needle):
			seen[lc] = true
			contains = append(contains, c)
		}
	}
	res := append(starts, contains...)
	if len(res) > limit {
		res = res[:limit]
	}
	return res
}
