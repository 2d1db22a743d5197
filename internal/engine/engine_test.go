package engine_test

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"worktrack/internal/config"
	"worktrack/internal/db"
	"worktrack/internal/domain"
	"worktrack/internal/engine"
	"worktrack/internal/migrate"
	"worktrack/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
	User   domain.User
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, config.Default(), nil, nil)
	eng.Now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	return testEnv{Engine: eng, Ctx: ctx, User: seedUser(t, ctx, eng.Repo, "tester")}
}

func seedUser(t *testing.T, ctx context.Context, r repo.Repo, name string) domain.User {
	t.Helper()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)
	u := domain.User{
		ID:        uuid.New().String(),
		Email:     name + "@example.com",
		Name:      name,
		Subject:   "test:" + name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.InsertUser(ctx, u); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return u
}

func intPtr(v int) *int { return &v }

func TestNormalizeTags(t *testing.T) {
	got := engine.NormalizeTags([]string{" Go ", "GO", "Kubernetes", "", "  ", "go", "kubernetes"})
	want := []string{"go", "kubernetes"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("normalize tags: got %v want %v", got, want)
	}
}

func TestCreateActivityNormalizesTags(t *testing.T) {
	env := newTestEnv(t)
	a, err := env.Engine.CreateActivity(env.Ctx, env.User.ID, engine.ActivityInput{
		Title:    "Customer workshop",
		Category: domain.CategoryCustomerEngagement,
		Tags:     []string{" AWS ", "aws", "Workshop"},
		Date:     "2024-05-10",
	})
	if err != nil {
		t.Fatalf("create activity: %v", err)
	}
	if !reflect.DeepEqual(a.Tags, []string{"aws", "workshop"}) {
		t.Fatalf("tags not normalized: %v", a.Tags)
	}
	fetched, err := env.Engine.GetActivity(env.Ctx, env.User.ID, a.ID)
	if err != nil {
		t.Fatalf("get activity: %v", err)
	}
	if len(fetched.Tags) != 2 {
		t.Fatalf("persisted tags: %v", fetched.Tags)
	}
}

func TestCreateActivityValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		name string
		in   engine.ActivityInput
	}{
		{"empty title", engine.ActivityInput{Title: "  ", Category: domain.CategoryLearning, Date: "2024-05-01"}},
		{"bad category", engine.ActivityInput{Title: "x", Category: "weekend", Date: "2024-05-01"}},
		{"impact too high", engine.ActivityInput{Title: "x", Category: domain.CategoryLearning, Date: "2024-05-01", ImpactLevel: intPtr(6)}},
		{"impact too low", engine.ActivityInput{Title: "x", Category: domain.CategoryLearning, Date: "2024-05-01", ImpactLevel: intPtr(0)}},
		{"missing date", engine.ActivityInput{Title: "x", Category: domain.CategoryLearning}},
	}
	for _, tc := range cases {
		_, err := env.Engine.CreateActivity(env.Ctx, env.User.ID, tc.in)
		if kind, ok := domain.KindOf(err); !ok || kind != domain.KindValidation {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestListActivitiesFiltersAndOrder(t *testing.T) {
	env := newTestEnv(t)
	seed := []struct {
		title  string
		date   string
		impact int
		tags   []string
	}{
		{"kafka migration", "2024-05-01", 5, []string{"kafka"}},
		{"team onboarding", "2024-05-03", 2, []string{"mentoring"}},
		{"incident review", "2024-05-02", 4, []string{"kafka", "oncall"}},
	}
	for _, s := range seed {
		if _, err := env.Engine.CreateActivity(env.Ctx, env.User.ID, engine.ActivityInput{
			Title:       s.title,
			Category:    domain.CategoryTechnicalConsultation,
			Date:        s.date,
			ImpactLevel: intPtr(s.impact),
			Tags:        s.tags,
		}); err != nil {
			t.Fatalf("seed %s: %v", s.title, err)
		}
	}

	all, err := env.Engine.ListActivities(env.Ctx, repo.ActivityFilters{UserID: env.User.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all.Total != 3 {
		t.Fatalf("total: %d", all.Total)
	}
	// Newest date first.
	if all.Items[0].Title != "team onboarding" || all.Items[2].Title != "kafka migration" {
		t.Fatalf("wrong order: %s .. %s", all.Items[0].Title, all.Items[2].Title)
	}

	high, err := env.Engine.ListActivities(env.Ctx, repo.ActivityFilters{UserID: env.User.ID, ImpactMin: 4})
	if err != nil {
		t.Fatalf("impact filter: %v", err)
	}
	if high.Total != 2 {
		t.Fatalf("impact_min total: %d", high.Total)
	}

	tagged, err := env.Engine.ListActivities(env.Ctx, repo.ActivityFilters{UserID: env.User.ID, Tags: []string{"kafka"}})
	if err != nil {
		t.Fatalf("tag filter: %v", err)
	}
	if tagged.Total != 2 {
		t.Fatalf("tag total: %d", tagged.Total)
	}

	searched, err := env.Engine.ListActivities(env.Ctx, repo.ActivityFilters{UserID: env.User.ID, Search: "incident"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if searched.Total != 1 || searched.Items[0].Title != "incident review" {
		t.Fatalf("search results: %+v", searched.Items)
	}
}

func TestActivityOwnerScoping(t *testing.T) {
	env := newTestEnv(t)
	other := seedUser(t, env.Ctx, env.Engine.Repo, "other")
	a, err := env.Engine.CreateActivity(env.Ctx, env.User.ID, engine.ActivityInput{
		Title:    "private",
		Category: domain.CategoryLearning,
		Date:     "2024-05-01",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = env.Engine.GetActivity(env.Ctx, other.ID, a.ID)
	if kind, ok := domain.KindOf(err); !ok || kind != domain.KindNotFound {
		t.Fatalf("expected not_found for foreign owner, got %v", err)
	}
	if err := env.Engine.DeleteActivity(env.Ctx, other.ID, a.ID); err == nil {
		t.Fatal("expected delete to fail for foreign owner")
	}
	// Still present for its owner.
	if _, err := env.Engine.GetActivity(env.Ctx, env.User.ID, a.ID); err != nil {
		t.Fatalf("owner get after foreign delete attempt: %v", err)
	}
}

func TestTagSuggestionsPrefixBeforeContains(t *testing.T) {
	env := newTestEnv(t)
	for i, tags := range [][]string{{"golang"}, {"django"}, {"go"}, {"mongodb"}} {
		if _, err := env.Engine.CreateActivity(env.Ctx, env.User.ID, engine.ActivityInput{
			Title:    "a" + strings.Repeat("x", i+1),
			Category: domain.CategoryLearning,
			Date:     "2024-05-01",
			Tags:     tags,
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	got, err := env.Engine.TagSuggestions(env.Ctx, env.User.ID, "go", 10)
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 matches, got %v", got)
	}
	// Prefix matches first, then substring matches.
	if got[0] != "go" || got[1] != "golang" {
		t.Fatalf("prefix tier wrong: %v", got)
	}
	for _, sub := range got[2:] {
		if strings.HasPrefix(sub, "go") {
			t.Fatalf("prefix match in contains tier: %v", got)
		}
	}
}

func TestCategorySummaryIncludesZeroes(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.CreateActivity(env.Ctx, env.User.ID, engine.ActivityInput{
		Title:    "talk",
		Category: domain.CategorySpeaking,
		Date:     "2024-05-01",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	summary, err := env.Engine.CategorySummary(env.Ctx, env.User.ID, "", "")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary) != len(domain.ActivityCategories) {
		t.Fatalf("expected all categories, got %v", summary)
	}
	if summary[domain.CategorySpeaking] != 1 || summary[domain.CategoryMentoring] != 0 {
		t.Fatalf("counts wrong: %v", summary)
	}
}

const meaningful = "a detailed description longer than twenty characters"

func TestStoryCompletenessGate(t *testing.T) {
	env := newTestEnv(t)
	s, err := env.Engine.CreateStory(env.Ctx, env.User.ID, engine.StoryInput{
		Title:     "Migration story",
		Situation: "short",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.Status != domain.StoryDraft {
		t.Fatalf("new story status: %s", s.Status)
	}

	_, err = env.Engine.SetStoryStatus(env.Ctx, env.User.ID, s.ID, domain.StoryComplete)
	if kind, ok := domain.KindOf(err); !ok || kind != domain.KindValidation {
		t.Fatalf("expected gate rejection, got %v", err)
	}
	if err.Error() != "story must be at least 80% complete to mark as complete" {
		t.Fatalf("gate message: %q", err.Error())
	}

	for _, patch := range []engine.StoryPatch{
		{Task: strPtr(meaningful)},
		{Action: strPtr(meaningful)},
		{Result: strPtr(meaningful)},
	} {
		if s, err = env.Engine.UpdateStory(env.Ctx, env.User.ID, s.ID, patch); err != nil {
			t.Fatalf("patch: %v", err)
		}
	}
	// 4/4 filled with 3 meaningful sections clears the 0.8 threshold and
	// auto-promotes the draft.
	if s.Status != domain.StoryComplete {
		t.Fatalf("expected auto-promotion, got %s (score %.2f)", s.Status, s.Completeness())
	}

	published, err := env.Engine.SetStoryStatus(env.Ctx, env.User.ID, s.ID, domain.StoryPublished)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if published.Status != domain.StoryPublished {
		t.Fatalf("publish status: %s", published.Status)
	}
}

func strPtr(s string) *string { return &s }

func TestStoryUpdateNeverDemotes(t *testing.T) {
	env := newTestEnv(t)
	s, err := env.Engine.CreateStory(env.Ctx, env.User.ID, engine.StoryInput{
		Title:     "Full story",
		Situation: meaningful,
		Task:      meaningful,
		Action:    meaningful,
		Result:    meaningful,
		Status:    domain.StoryComplete,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.Status != domain.StoryComplete {
		t.Fatalf("requested status not honored: %s", s.Status)
	}
	short := "tiny"
	s, err = env.Engine.UpdateStory(env.Ctx, env.User.ID, s.ID, engine.StoryPatch{Result: &short})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if s.Status != domain.StoryComplete {
		t.Fatalf("update demoted status to %s", s.Status)
	}
}

func TestStoryGuidance(t *testing.T) {
	env := newTestEnv(t)
	s, err := env.Engine.CreateStory(env.Ctx, env.User.ID, engine.StoryInput{
		Title:     "Guidance",
		Situation: meaningful,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	g, err := env.Engine.StoryGuidance(env.Ctx, env.User.ID, s.ID)
	if err != nil {
		t.Fatalf("guidance: %v", err)
	}
	if !reflect.DeepEqual(g.MissingElements, []string{"task", "action", "result"}) {
		t.Fatalf("missing elements: %v", g.MissingElements)
	}
	if len(g.Suggestions) != 3 {
		t.Fatalf("suggestions: %v", g.Suggestions)
	}
	if len(g.ImpactMetricsSuggestions) != 1 {
		t.Fatalf("metric suggestions: %v", g.ImpactMetricsSuggestions)
	}
}

func TestBulkStoryTagOperations(t *testing.T) {
	env := newTestEnv(t)
	mk := func(title string, tags []string) {
		t.Helper()
		if _, err := env.Engine.CreateStory(env.Ctx, env.User.ID, engine.StoryInput{Title: title, Tags: tags}); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}
	mk("one", []string{"k8s", "infra"})
	mk("two", []string{"k8s"})
	mk("three", []string{"infra"})

	renamed, err := env.Engine.BulkRenameStoryTag(env.Ctx, env.User.ID, "k8s", "kubernetes")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed != 2 {
		t.Fatalf("renamed count: %d", renamed)
	}
	list, err := env.Engine.ListStories(env.Ctx, repo.StoryFilters{UserID: env.User.ID, Tags: []string{"kubernetes"}})
	if err != nil {
		t.Fatalf("list by tag: %v", err)
	}
	if list.Total != 2 {
		t.Fatalf("kubernetes stories: %d", list.Total)
	}

	deleted, err := env.Engine.DeleteStoryTag(env.Ctx, env.User.ID, "infra")
	if err != nil {
		t.Fatalf("delete tag: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted count: %d", deleted)
	}
	left, err := env.Engine.ListStories(env.Ctx, repo.StoryFilters{UserID: env.User.ID, Tags: []string{"infra"}})
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if left.Total != 0 {
		t.Fatalf("infra stories remain: %d", left.Total)
	}
}

func TestGenerateReportWithoutAI(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.CreateActivity(env.Ctx, env.User.ID, engine.ActivityInput{
		Title:    "in period",
		Category: domain.CategoryLearning,
		Date:     "2024-05-15",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rep, err := env.Engine.GenerateReport(env.Ctx, env.User.ID, engine.ReportInput{
		Title:       "May report",
		ReportType:  domain.ReportMonthly,
		PeriodStart: "2024-05-01",
		PeriodEnd:   "2024-05-31",
	})
	if kind, ok := domain.KindOf(err); !ok || kind != domain.KindExternal {
		t.Fatalf("expected external error, got %v", err)
	}
	if rep.Status != domain.ReportFailed {
		t.Fatalf("report status: %s", rep.Status)
	}
	stored, err := env.Engine.GetReport(env.Ctx, env.User.ID, rep.ID)
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	if stored.Status != domain.ReportFailed {
		t.Fatalf("stored status: %s", stored.Status)
	}
	if len(stored.ActivitiesIncluded) != 1 {
		t.Fatalf("activities included: %v", stored.ActivitiesIncluded)
	}
}

func TestReportPeriodValidation(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.CreateReport(env.Ctx, env.User.ID, engine.ReportInput{
		Title:       "backwards",
		ReportType:  domain.ReportWeekly,
		PeriodStart: "2024-05-10",
		PeriodEnd:   "2024-05-01",
	})
	if kind, ok := domain.KindOf(err); !ok || kind != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMergeImpactMetrics(t *testing.T) {
	env := newTestEnv(t)
	s, err := env.Engine.CreateStory(env.Ctx, env.User.ID, engine.StoryInput{
		Title: "metrics",
		ImpactMetrics: domain.ImpactMetrics{
			Category:  domain.MetricsTechnical,
			Technical: &domain.TechnicalMetrics{PerformanceImprovement: "40%"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	merged, err := env.Engine.MergeImpactMetrics(env.Ctx, env.User.ID, s.ID, domain.ImpactMetrics{
		Category:  domain.MetricsTechnical,
		Technical: &domain.TechnicalMetrics{CostReduction: "$10k"},
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	m := merged.ImpactMetrics
	if m.Technical == nil || m.Technical.PerformanceImprovement != "40%" || m.Technical.CostReduction != "$10k" {
		t.Fatalf("merged metrics: %+v", m.Technical)
	}
}

func TestUpdatePreferences(t *testing.T) {
	env := newTestEnv(t)
	u, err := env.Engine.UpdatePreferences(env.Ctx, env.User.ID, map[string]any{"theme": "dark"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if u.Preferences["theme"] != "dark" {
		t.Fatalf("preferences: %v", u.Preferences)
	}
	_, err = env.Engine.UpdatePreferences(env.Ctx, "missing", nil)
	if kind, ok := domain.KindOf(err); !ok || kind != domain.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestProvisionUsersWithoutEmail(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)
	for _, subject := range []string{"cli:alice", "cli:bob"} {
		u := domain.User{
			ID:        uuid.New().String(),
			Name:      strings.TrimPrefix(subject, "cli:"),
			Subject:   subject,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := env.Engine.Repo.InsertUser(env.Ctx, u); err != nil {
			t.Fatalf("insert %s: %v", subject, err)
		}
	}
	for _, subject := range []string{"cli:alice", "cli:bob"} {
		u, err := env.Engine.Repo.GetUserBySubject(env.Ctx, subject)
		if err != nil {
			t.Fatalf("lookup %s: %v", subject, err)
		}
		if u.Email != "" {
			t.Fatalf("lookup %s: unexpected email %q", subject, u.Email)
		}
	}
	// Non-empty emails stay unique.
	dup := domain.User{
		ID:        uuid.New().String(),
		Email:     env.User.Email,
		Name:      "dup",
		Subject:   "cli:dup",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := env.Engine.Repo.InsertUser(env.Ctx, dup); err == nil {
		t.Fatal("expected duplicate email insert to fail")
	}
}

func TestListStoriesFilters(t *testing.T) {
	env := newTestEnv(t)
	seed := []engine.StoryInput{
		{Title: "Latency win", Situation: "Checkout was slow", Task: "Cut p99 latency", Action: "Profiled the hot path", Result: "p99 down 40%", Tags: []string{"performance", "go"}},
		{Title: "Onboarding revamp", Task: "Rewrite the onboarding runbook", Tags: []string{"docs"}},
		{Title: "Cluster upgrade", Action: "Drained nodes one by one", Tags: []string{"kubernetes"}},
	}
	ids := make([]string, len(seed))
	for i, in := range seed {
		s, err := env.Engine.CreateStory(env.Ctx, env.User.ID, in)
		if err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
		ids[i] = s.ID
	}
	s, err := env.Engine.GetStory(env.Ctx, env.User.ID, ids[0])
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	s.AIEnhanced = true
	if err := env.Engine.Repo.UpdateStory(env.Ctx, s); err != nil {
		t.Fatalf("mark enhanced: %v", err)
	}

	titles := func(l engine.StoryList) []string {
		out := make([]string, 0, len(l.Items))
		for _, it := range l.Items {
			out = append(out, it.Title)
		}
		sort.Strings(out)
		return out
	}

	// Any requested tag matches, and input tags are normalized first.
	list, err := env.Engine.ListStories(env.Ctx, repo.StoryFilters{UserID: env.User.ID, Tags: []string{" Docs ", "kubernetes"}})
	if err != nil {
		t.Fatalf("list by tags: %v", err)
	}
	if want := []string{"Cluster upgrade", "Onboarding revamp"}; !reflect.DeepEqual(titles(list), want) || list.Total != 2 {
		t.Fatalf("tags filter: got %v total %d", titles(list), list.Total)
	}

	enhanced := true
	list, err = env.Engine.ListStories(env.Ctx, repo.StoryFilters{UserID: env.User.ID, AIEnhanced: &enhanced})
	if err != nil {
		t.Fatalf("list enhanced: %v", err)
	}
	if want := []string{"Latency win"}; !reflect.DeepEqual(titles(list), want) {
		t.Fatalf("ai_enhanced filter: got %v", titles(list))
	}

	for needle, want := range map[string]string{
		"runbook": "Onboarding revamp",
		"drained": "Cluster upgrade",
		"p99":     "Latency win",
	} {
		list, err = env.Engine.ListStories(env.Ctx, repo.StoryFilters{UserID: env.User.ID, Search: needle})
		if err != nil {
			t.Fatalf("search %q: %v", needle, err)
		}
		if len(list.Items) != 1 || list.Items[0].Title != want {
			t.Fatalf("search %q: got %v", needle, titles(list))
		}
	}
}

func TestStorySummariesAndTags(t *testing.T) {
	env := newTestEnv(t)
	for i, in := range []engine.StoryInput{
		{Title: "First", Tags: []string{"go", "grpc"}},
		{Title: "Second", Tags: []string{"go", "sql"}},
		{Title: "Third"},
	} {
		if _, err := env.Engine.CreateStory(env.Ctx, env.User.ID, in); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	summaries, err := env.Engine.StorySummaries(env.Ctx, env.User.ID, 0)
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(summaries))
	}
	for _, s := range summaries {
		if s.ID == "" || s.Title == "" || s.Status != domain.StoryDraft {
			t.Fatalf("summary shape: %+v", s)
		}
	}
	summaries, err = env.Engine.StorySummaries(env.Ctx, env.User.ID, 2)
	if err != nil {
		t.Fatalf("summaries limited: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("limit not applied: got %d", len(summaries))
	}

	tags, err := env.Engine.StoryTags(env.Ctx, env.User.ID)
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	if want := []string{"go", "grpc", "sql"}; !reflect.DeepEqual(tags, want) {
		t.Fatalf("story tags: got %v want %v", tags, want)
	}
}

func TestTitleSuggestionsPrefixBeforeContains(t *testing.T) {
	env := newTestEnv(t)
	dates := []string{"2024-05-01", "2024-05-02", "2024-05-03"}
	for i, title := range []string{"Architecture sync", "Review architecture", "Sprint demo"} {
		if _, err := env.Engine.CreateActivity(env.Ctx, env.User.ID, engine.ActivityInput{
			Title:    title,
			Category: domain.CategoryLearning,
			Date:     dates[i],
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	got, err := env.Engine.TitleSuggestions(env.Ctx, env.User.ID, "arch", 10)
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	// Prefix matches first, then substring matches.
	want := []string{"Architecture sync", "Review architecture"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("title suggestions: got %v want %v", got, want)
	}
}
