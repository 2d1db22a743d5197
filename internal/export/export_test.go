package export_test

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktrack/internal/db"
	"worktrack/internal/domain"
	"worktrack/internal/export"
	"worktrack/internal/migrate"
	"worktrack/internal/repo"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func errKind(t *testing.T, err error) domain.ErrorKind {
	t.Helper()
	kind, ok := domain.KindOf(err)
	require.True(t, ok, "expected a tagged error, got %v", err)
	return kind
}

type testEnv struct {
	Svc  *export.Service
	Repo repo.Repo
	Ctx  context.Context
	User domain.User
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn))
	r := repo.Repo{DB: conn}
	ctx := context.Background()
	now := testNow.Format(time.RFC3339)
	u := domain.User{
		ID:        uuid.New().String(),
		Email:     "tester@example.com",
		Name:      "tester",
		Subject:   "test:tester",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, r.InsertUser(ctx, u))
	svc := &export.Service{
		Repo:          r,
		Dir:           filepath.Join(dir, "exports"),
		BackupDir:     filepath.Join(dir, "backups"),
		SigningSecret: "test-secret",
		Now:           func() time.Time { return testNow },
	}
	return testEnv{Svc: svc, Repo: r, Ctx: ctx, User: u}
}

func (env testEnv) seedActivity(t *testing.T, title, date string) domain.Activity {
	t.Helper()
	now := testNow.Format(time.RFC3339)
	a := domain.Activity{
		ID:        uuid.New().String(),
		UserID:    env.User.ID,
		Title:     title,
		Category:  domain.CategoryLearning,
		Tags:      []string{"export"},
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, env.Repo.InsertActivity(env.Ctx, a))
	return a
}

func (env testEnv) seedStory(t *testing.T, title string) domain.Story {
	t.Helper()
	now := testNow.Format(time.RFC3339)
	s := domain.Story{
		ID:        uuid.New().String(),
		UserID:    env.User.ID,
		Title:     title,
		Situation: "situation",
		Tags:      []string{"export"},
		Status:    domain.StoryDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, env.Repo.InsertStory(env.Ctx, s))
	return s
}

func (env testEnv) seedReport(t *testing.T, title, start, end string) domain.Report {
	t.Helper()
	now := testNow.Format(time.RFC3339)
	rep := domain.Report{
		ID:          uuid.New().String(),
		UserID:      env.User.ID,
		Title:       title,
		PeriodStart: start,
		PeriodEnd:   end,
		ReportType:  domain.ReportWeekly,
		Status:      domain.ReportDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, env.Repo.InsertReport(env.Ctx, rep))
	return rep
}

func allIncluded() export.Options {
	return export.Options{
		IncludeActivities:  true,
		IncludeStories:     true,
		IncludeReports:     true,
		IncludeUserProfile: true,
	}
}

func TestCollectWindowsActivitiesByDate(t *testing.T) {
	env := newTestEnv(t)
	env.seedActivity(t, "before", "2024-04-01")
	env.seedActivity(t, "inside", "2024-05-15")
	env.seedActivity(t, "after", "2024-06-20")

	opts := allIncluded()
	opts.DateFrom = "2024-05-01"
	opts.DateTo = "2024-05-31"
	snap, err := env.Svc.Collect(env.Ctx, env.User.ID, opts)
	require.NoError(t, err)
	require.Len(t, snap.Activities, 1)
	assert.Equal(t, "inside", snap.Activities[0].Title)
	assert.Equal(t, "2024-05-01", snap.ExportMetadata.Filters.DateFrom)
	assert.Equal(t, export.SnapshotVersion, snap.ExportMetadata.ExportVersion)
	assert.Equal(t, env.User.ID, snap.ExportMetadata.UserID)
	require.NotNil(t, snap.UserProfile)
	assert.Equal(t, env.User.ID, snap.UserProfile.ID)
}

func TestCollectEmptySectionsStayNonNil(t *testing.T) {
	env := newTestEnv(t)
	snap, err := env.Svc.Collect(env.Ctx, env.User.ID, export.Options{})
	require.NoError(t, err)
	assert.NotNil(t, snap.Activities)
	assert.NotNil(t, snap.Stories)
	assert.NotNil(t, snap.Reports)
	assert.Nil(t, snap.UserProfile)
}

func TestCreateExportRoundTripImport(t *testing.T) {
	env := newTestEnv(t)
	env.seedActivity(t, "talk prep", "2024-05-10")
	env.seedStory(t, "incident story")
	env.seedReport(t, "may report", "2024-05-01", "2024-05-31")

	desc, err := env.Svc.CreateExport(env.Ctx, env.User.ID, allIncluded())
	require.NoError(t, err)
	assert.Equal(t, "json", desc.Format)
	assert.Greater(t, desc.FileSizeBytes, 0)
	assert.Contains(t, desc.DownloadURL, "/api/v1/export/download/"+desc.ExportID+".json")

	data, err := os.ReadFile(filepath.Join(env.Svc.Dir, desc.ExportID+".json"))
	require.NoError(t, err)
	var snap export.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	require.Len(t, snap.Activities, 1)
	require.Len(t, snap.Stories, 1)
	require.Len(t, snap.Reports, 1)

	all := export.ImportOptions{ImportActivities: true, ImportStories: true, ImportReports: true}

	// Everything already exists, so nothing is written without overwrite.
	res := env.Svc.Import(env.Ctx, env.User.ID, snap, all)
	assert.Equal(t, "complete", res.Status)
	assert.Equal(t, 0, res.ImportedCounts["activities"])
	assert.Equal(t, 1, res.SkippedCounts["activities"])
	assert.Equal(t, 1, res.SkippedCounts["stories"])
	assert.Equal(t, 1, res.SkippedCounts["reports"])

	snap.Activities[0].Title = "talk prep updated"
	all.OverwriteExisting = true
	res = env.Svc.Import(env.Ctx, env.User.ID, snap, all)
	assert.Equal(t, "complete", res.Status)
	assert.Equal(t, 1, res.ImportedCounts["activities"])
	assert.Equal(t, 0, res.SkippedCounts["activities"])

	got, err := env.Repo.GetActivity(env.Ctx, env.User.ID, snap.Activities[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "talk prep updated", got.Title)
}

func TestImportOwnerMismatch(t *testing.T) {
	env := newTestEnv(t)
	snap := export.Snapshot{ExportMetadata: export.Metadata{UserID: "someone-else"}}
	res := env.Svc.Import(env.Ctx, env.User.ID, snap, export.ImportOptions{ImportActivities: true})
	assert.Equal(t, "failed", res.Status)
	require.Len(t, res.ValidationErrors, 1)
	assert.Equal(t, "import data belongs to different user: someone-else", res.ValidationErrors[0])
}

func TestImportMissingMetadata(t *testing.T) {
	env := newTestEnv(t)
	res := env.Svc.Import(env.Ctx, env.User.ID, export.Snapshot{}, export.ImportOptions{})
	assert.Equal(t, "failed", res.Status)
	require.Len(t, res.ValidationErrors, 1)
	assert.Equal(t, "missing export_metadata in import data", res.ValidationErrors[0])
}

func TestImportValidateOnly(t *testing.T) {
	env := newTestEnv(t)
	snap := export.Snapshot{ExportMetadata: export.Metadata{UserID: "someone-else"}}
	res := env.Svc.Import(env.Ctx, env.User.ID, snap, export.ImportOptions{ValidateOnly: true})
	assert.Equal(t, "validated", res.Status)
	assert.Len(t, res.ValidationErrors, 1)
}

func TestImportPartialOnBadRecord(t *testing.T) {
	env := newTestEnv(t)
	good := domain.Activity{
		ID:       uuid.New().String(),
		Title:    "good",
		Category: domain.CategoryLearning,
		Date:     "2024-05-10",
	}
	bad := domain.Activity{
		ID:       uuid.New().String(),
		Title:    "bad",
		Category: "not-a-category",
		Date:     "2024-05-11",
	}
	snap := export.Snapshot{
		ExportMetadata: export.Metadata{UserID: env.User.ID},
		Activities:     []domain.Activity{good, bad},
	}
	res := env.Svc.Import(env.Ctx, env.User.ID, snap, export.ImportOptions{ImportActivities: true})
	assert.Equal(t, "partial", res.Status)
	assert.Equal(t, 1, res.ImportedCounts["activities"])
	require.Len(t, res.ValidationErrors, 1)
	assert.Contains(t, res.ValidationErrors[0], bad.ID)
}

func TestMarshalCSVSections(t *testing.T) {
	env := newTestEnv(t)
	env.seedActivity(t, "csv activity", "2024-05-10")
	env.seedStory(t, "csv story")
	env.seedReport(t, "csv report", "2024-05-01", "2024-05-31")

	snap, err := env.Svc.Collect(env.Ctx, env.User.ID, allIncluded())
	require.NoError(t, err)
	data, err := export.MarshalCSV(snap)
	require.NoError(t, err)
	out := string(data)
	for _, section := range []string{"# Export Metadata", "# User Profile", "# Activities", "# Stories", "# Reports"} {
		assert.Contains(t, out, section+"\n")
	}
	assert.Contains(t, out, "# user_id: "+env.User.ID)
	assert.Contains(t, out, "csv activity")
	assert.Contains(t, out, "csv story")
	assert.Contains(t, out, "csv report")
}

func TestCreateExportRejectsUnknownFormat(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Svc.CreateExport(env.Ctx, env.User.ID, export.Options{Format: "xml"})
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, errKind(t, err))
}

func TestVerifyDownload(t *testing.T) {
	env := newTestEnv(t)
	desc, err := env.Svc.CreateExport(env.Ctx, env.User.ID, export.Options{IncludeActivities: true})
	require.NoError(t, err)

	name := desc.ExportID + ".json"
	u, err := url.Parse(desc.DownloadURL)
	require.NoError(t, err)
	expires, err := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	require.NoError(t, err)
	sig := u.Query().Get("sig")

	data, err := env.Svc.VerifyDownload(name, expires, sig)
	require.NoError(t, err)
	assert.Contains(t, string(data), "export_metadata")

	_, err = env.Svc.VerifyDownload(name, expires, "deadbeef")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, errKind(t, err))

	// An expired link fails even with a valid signature for that expiry.
	past := testNow.Add(-time.Hour)
	expired := env.Svc.SignedURL(name, past)
	pu, err := url.Parse(expired)
	require.NoError(t, err)
	pexp, _ := strconv.ParseInt(pu.Query().Get("expires"), 10, 64)
	_, err = env.Svc.VerifyDownload(name, pexp, pu.Query().Get("sig"))
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, errKind(t, err))

	// Path segments in the name are rejected even when correctly signed.
	evil := "../secrets.json"
	eu, err := url.Parse(env.Svc.SignedURL(evil, testNow.Add(time.Hour)))
	require.NoError(t, err)
	eexp, _ := strconv.ParseInt(eu.Query().Get("expires"), 10, 64)
	_, err = env.Svc.VerifyDownload(evil, eexp, eu.Query().Get("sig"))
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, errKind(t, err))
}

func TestBackupAndPrune(t *testing.T) {
	env := newTestEnv(t)
	env.seedActivity(t, "backed up", "2024-05-10")

	_, err := env.Svc.Backup(env.Ctx, env.User.ID, export.BackupOptions{BackupType: "hourly"})
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, errKind(t, err))

	res, err := env.Svc.Backup(env.Ctx, env.User.ID, export.BackupOptions{BackupType: "daily", IncludeUserData: true})
	require.NoError(t, err)
	assert.Equal(t, "complete", res.Status)
	assert.Contains(t, res.FilePath, filepath.Join("daily", env.User.ID))
	assert.Greater(t, res.FileSizeBytes, 0)
	wantExpiry := testNow.Add(30 * 24 * time.Hour).Format(time.RFC3339)
	assert.Equal(t, wantExpiry, res.ExpiresAt)

	info, err := os.Stat(res.FilePath)
	require.NoError(t, err)
	assert.EqualValues(t, res.FileSizeBytes, info.Size())

	removed, err := env.Svc.PruneBackups(env.User.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, err = os.Stat(res.FilePath)
	assert.True(t, os.IsNotExist(err))
}

func TestPruneKeepsFreshBackups(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.Svc.Backup(env.Ctx, env.User.ID, export.BackupOptions{BackupType: "weekly"})
	require.NoError(t, err)
	removed, err := env.Svc.PruneBackups(env.User.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	_, err = os.Stat(res.FilePath)
	assert.NoError(t, err)
}
