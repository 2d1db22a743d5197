package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"worktrack/internal/domain"
)

type BackupOptions struct {
	BackupType      string // daily, weekly, monthly
	IncludeUserData bool
	RetentionDays   int
}

type BackupResult struct {
	BackupID      string `json:"backup_id"`
	BackupType    string `json:"backup_type"`
	Status        string `json:"status"`
	FilePath      string `json:"file_path"`
	FileSizeBytes int    `json:"file_size_bytes"`
	CreatedAt     string `json:"created_at"`
	ExpiresAt     string `json:"expires_at"`
}

func validBackupType(t string) bool {
	switch t {
	case "daily", "weekly", "monthly":
		return true
	}
	return false
}

// Backup wraps a full JSON export with a retention expiry. The backup type
// only namespaces the storage path; nothing here schedules anything.
func (s *Service) Backup(ctx context.Context, ownerID string, opts BackupOptions) (BackupResult, error) {
	if !validBackupType(opts.BackupType) {
		return BackupResult{}, domain.FieldError("backup_type", "unknown backup type %q", opts.BackupType)
	}
	if opts.RetentionDays <= 0 {
		opts.RetentionDays = 30
	}
	backupID := uuid.New().String()
	created := s.now().UTC()
	res := BackupResult{
		BackupID:   backupID,
		BackupType: opts.BackupType,
		CreatedAt:  created.Format(time.RFC3339),
		ExpiresAt:  created.Add(time.Duration(opts.RetentionDays) * 24 * time.Hour).Format(time.RFC3339),
	}
	snap, err := s.Collect(ctx, ownerID, Options{
		Format:             "json",
		IncludeActivities:  true,
		IncludeStories:     true,
		IncludeReports:     true,
		IncludeUserProfile: opts.IncludeUserData,
	})
	if err != nil {
		res.Status = "failed"
		res.ExpiresAt = res.CreatedAt
		return res, err
	}
	data, err := MarshalJSON(snap)
	if err != nil {
		res.Status = "failed"
		res.ExpiresAt = res.CreatedAt
		return res, err
	}
	name := fmt.Sprintf("%s_%s.json", created.Format("20060102_150405"), backupID)
	dir := filepath.Join(s.BackupDir, opts.BackupType, ownerID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		res.Status = "failed"
		res.ExpiresAt = res.CreatedAt
		return res, err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		res.Status = "failed"
		res.ExpiresAt = res.CreatedAt
		return res, err
	}
	res.Status = "complete"
	res.FilePath = path
	res.FileSizeBytes = len(data)
	return res, nil
}

// PruneBackups deletes backup files for the owner older than their retention
// window, returning the number removed.
func (s *Service) PruneBackups(ownerID string, olderThan time.Time) (int, error) {
	removed := 0
	for _, backupType := range []string{"daily", "weekly", "monthly"} {
		dir := filepath.Join(s.BackupDir, backupType, ownerID)
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return removed, err
		}
		for _, entry := range entries {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().Before(olderThan) {
				if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
					return removed, err
				}
				removed++
			}
		}
	}
	return removed, nil
}
