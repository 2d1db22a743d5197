package export

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"worktrack/internal/domain"
	"worktrack/internal/repo"
)

const SnapshotVersion = "1.0"

// Service builds, serializes and stores export snapshots.
type Service struct {
	Repo          repo.Repo
	Dir           string
	BackupDir     string
	SigningSecret string
	DownloadTTL   time.Duration
	Now           func() time.Time
	Logger        *log.Logger
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) ttl() time.Duration {
	if s.DownloadTTL <= 0 {
		return 24 * time.Hour
	}
	return s.DownloadTTL
}

type Options struct {
	Format             string // "json" or "csv"
	IncludeActivities  bool
	IncludeStories     bool
	IncludeReports     bool
	IncludeUserProfile bool
	DateFrom           string
	DateTo             string
}

// Metadata is embedded in every snapshot and checked again on import.
type Metadata struct {
	ExportVersion string  `json:"export_version"`
	ExportDate    string  `json:"export_date"`
	UserID        string  `json:"user_id"`
	Filters       Filters `json:"filters"`
}

type Filters struct {
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`
}

// Snapshot is the on-demand aggregate; it is serialized and discarded, never
// stored as an entity.
type Snapshot struct {
	ExportMetadata Metadata          `json:"export_metadata"`
	UserProfile    *domain.User      `json:"user_profile,omitempty"`
	Activities     []domain.Activity `json:"activities"`
	Stories        []domain.Story    `json:"stories"`
	Reports        []domain.Report   `json:"reports"`
}

// Descriptor describes a stored export file and its signed download URL.
type Descriptor struct {
	ExportID      string `json:"export_id"`
	DownloadURL   string `json:"download_url"`
	ExpiresAt     string `json:"expires_at"`
	FileSizeBytes int    `json:"file_size_bytes"`
	Format        string `json:"format"`
	CreatedAt     string `json:"created_at"`
}

// Collect gathers the owner's data per the options. Activities are windowed
// by their date, stories by creation time, reports by period overlap.
func (s *Service) Collect(ctx context.Context, ownerID string, opts Options) (Snapshot, error) {
	snap := Snapshot{
		ExportMetadata: Metadata{
			ExportVersion: SnapshotVersion,
			ExportDate:    s.now().UTC().Format(time.RFC3339),
			UserID:        ownerID,
			Filters:       Filters{DateFrom: opts.DateFrom, DateTo: opts.DateTo},
		},
		Activities: []domain.Activity{},
		Stories:    []domain.Story{},
		Reports:    []domain.Report{},
	}
	if opts.IncludeUserProfile {
		u, err := s.Repo.GetUser(ctx, ownerID)
		if err == nil {
			snap.UserProfile = &u
		} else if err != repo.ErrNotFound {
			return snap, err
		}
	}
	if opts.IncludeActivities {
		activities, err := s.Repo.ListActivities(ctx, repo.ActivityFilters{
			UserID:   ownerID,
			DateFrom: opts.DateFrom,
			DateTo:   opts.DateTo,
		})
		if err != nil {
			return snap, err
		}
		if activities != nil {
			snap.Activities = activities
		}
	}
	if opts.IncludeStories {
		stories, err := s.Repo.StoriesCreatedBetween(ctx, ownerID, opts.DateFrom, opts.DateTo)
		if err != nil {
			return snap, err
		}
		if stories != nil {
			snap.Stories = stories
		}
	}
	if opts.IncludeReports {
		reports, err := s.Repo.ReportsOverlapping(ctx, ownerID, opts.DateFrom, opts.DateTo)
		if err != nil {
			return snap, err
		}
		if reports != nil {
			snap.Reports = reports
		}
	}
	return snap, nil
}

// CreateExport collects, serializes and stores a snapshot, returning the
// signed download descriptor.
func (s *Service) CreateExport(ctx context.Context, ownerID string, opts Options) (Descriptor, error) {
	switch opts.Format {
	case "json", "csv":
	case "":
		opts.Format = "json"
	default:
		return Descriptor{}, domain.FieldError("format", "unsupported export format %q", opts.Format)
	}
	snap, err := s.Collect(ctx, ownerID, opts)
	if err != nil {
		return Descriptor{}, err
	}
	var data []byte
	if opts.Format == "json" {
		data, err = MarshalJSON(snap)
	} else {
		data, err = MarshalCSV(snap)
	}
	if err != nil {
		return Descriptor{}, err
	}
	exportID := uuid.New().String()
	name := exportID + "." + opts.Format
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return Descriptor{}, err
	}
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return Descriptor{}, err
	}
	created := s.now().UTC()
	expires := created.Add(s.ttl())
	return Descriptor{
		ExportID:      exportID,
		DownloadURL:   s.SignedURL(name, expires),
		ExpiresAt:     expires.Format(time.RFC3339),
		FileSizeBytes: len(data),
		Format:        opts.Format,
		CreatedAt:     created.Format(time.RFC3339),
	}, nil
}

// MarshalJSON serializes the snapshot with two-space indentation.
func MarshalJSON(snap Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// SignedURL builds the download path with an expiry and an HMAC signature.
func (s *Service) SignedURL(name string, expires time.Time) string {
	exp := expires.Unix()
	return fmt.Sprintf("/api/v1/export/download/%s?expires=%d&sig=%s", name, exp, s.sign(name, exp))
}

func (s *Service) sign(name string, expires int64) string {
	mac := hmac.New(sha256.New, []byte(s.SigningSecret))
	fmt.Fprintf(mac, "%s|%d", name, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyDownload checks the signature and expiry for a download request and
// returns the stored file.
func (s *Service) VerifyDownload(name string, expires int64, sig string) ([]byte, error) {
	if s.now().UTC().Unix() > expires {
		return nil, domain.Validationf("download link expired")
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(name, expires))) {
		return nil, domain.Validationf("invalid download signature")
	}
	if filepath.Base(name) != name {
		return nil, domain.Validationf("invalid export name")
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, name))
	if os.IsNotExist(err) {
		return nil, domain.NotFoundf("export %s not found", name)
	}
	return data, err
}
