package export

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"worktrack/internal/domain"
	"worktrack/internal/repo"
)

type ImportOptions struct {
	ValidateOnly      bool
	OverwriteExisting bool
	ImportActivities  bool
	ImportStories     bool
	ImportReports     bool
}

// ImportResult reports per-type counts alongside human-readable errors.
// Partial failure is expected: a bad record does not stop the rest.
type ImportResult struct {
	ImportID         string         `json:"import_id"`
	Status           string         `json:"status"` // validated, complete, partial, failed
	ValidationErrors []string       `json:"validation_errors"`
	ImportedCounts   map[string]int `json:"imported_counts"`
	SkippedCounts    map[string]int `json:"skipped_counts"`
	CreatedAt        string         `json:"created_at"`
}

// Import replays a snapshot into the owner's data. The snapshot's embedded
// owner must match the importing user; ids are preserved verbatim.
func (s *Service) Import(ctx context.Context, ownerID string, snap Snapshot, opts ImportOptions) ImportResult {
	res := ImportResult{
		ImportID:         uuid.New().String(),
		ValidationErrors: []string{},
		ImportedCounts:   map[string]int{"activities": 0, "stories": 0, "reports": 0},
		SkippedCounts:    map[string]int{"activities": 0, "stories": 0, "reports": 0},
		CreatedAt:        s.now().UTC().Format(time.RFC3339),
	}
	if snap.ExportMetadata.UserID == "" {
		res.ValidationErrors = append(res.ValidationErrors, "missing export_metadata in import data")
	} else if snap.ExportMetadata.UserID != ownerID {
		res.ValidationErrors = append(res.ValidationErrors,
			fmt.Sprintf("import data belongs to different user: %s", snap.ExportMetadata.UserID))
	}
	if opts.ValidateOnly {
		res.Status = "validated"
		return res
	}
	if len(res.ValidationErrors) > 0 {
		res.Status = "failed"
		return res
	}

	if opts.ImportActivities {
		for _, a := range snap.Activities {
			a.UserID = ownerID
			if err := s.importActivity(ctx, ownerID, a, opts.OverwriteExisting, &res); err != nil {
				res.ValidationErrors = append(res.ValidationErrors,
					fmt.Sprintf("Failed to import activity %s: %v", a.ID, err))
			}
		}
	}
	if opts.ImportStories {
		for _, st := range snap.Stories {
			st.UserID = ownerID
			if err := s.importStory(ctx, ownerID, st, opts.OverwriteExisting, &res); err != nil {
				res.ValidationErrors = append(res.ValidationErrors,
					fmt.Sprintf("Failed to import story %s: %v", st.ID, err))
			}
		}
	}
	if opts.ImportReports {
		for _, rep := range snap.Reports {
			rep.UserID = ownerID
			if err := s.importReport(ctx, ownerID, rep, opts.OverwriteExisting, &res); err != nil {
				res.ValidationErrors = append(res.ValidationErrors,
					fmt.Sprintf("Failed to import report %s: %v", rep.ID, err))
			}
		}
	}

	if len(res.ValidationErrors) == 0 {
		res.Status = "complete"
	} else if res.ImportedCounts["activities"]+res.ImportedCounts["stories"]+res.ImportedCounts["reports"] > 0 {
		res.Status = "partial"
	} else {
		res.Status = "failed"
	}
	return res
}

func (s *Service) importActivity(ctx context.Context, ownerID string, a domain.Activity, overwrite bool, res *ImportResult) error {
	if a.ID == "" || a.Title == "" {
		return fmt.Errorf("id and title are required")
	}
	if !domain.ValidCategory(a.Category) {
		return fmt.Errorf("unknown category %q", a.Category)
	}
	_, err := s.Repo.GetActivity(ctx, ownerID, a.ID)
	switch {
	case err == nil && !overwrite:
		res.SkippedCounts["activities"]++
		return nil
	case err == nil:
		if uerr := s.Repo.UpdateActivity(ctx, a); uerr != nil {
			return uerr
		}
	case err == repo.ErrNotFound:
		if ierr := s.Repo.InsertActivity(ctx, a); ierr != nil {
			return ierr
		}
	default:
		return err
	}
	res.ImportedCounts["activities"]++
	return nil
}

func (s *Service) importStory(ctx context.Context, ownerID string, st domain.Story, overwrite bool, res *ImportResult) error {
	if st.ID == "" || st.Title == "" {
		return fmt.Errorf("id and title are required")
	}
	_, err := s.Repo.GetStory(ctx, ownerID, st.ID)
	switch {
	case err == nil && !overwrite:
		res.SkippedCounts["stories"]++
		return nil
	case err == nil:
		if uerr := s.Repo.UpdateStory(ctx, st); uerr != nil {
			return uerr
		}
	case err == repo.ErrNotFound:
		if ierr := s.Repo.InsertStory(ctx, st); ierr != nil {
			return ierr
		}
	default:
		return err
	}
	res.ImportedCounts["stories"]++
	return nil
}

func (s *Service) importReport(ctx context.Context, ownerID string, rep domain.Report, overwrite bool, res *ImportResult) error {
	if rep.ID == "" || rep.Title == "" {
		return fmt.Errorf("id and title are required")
	}
	if !domain.ValidReportType(rep.ReportType) {
		return fmt.Errorf("unknown report type %q", rep.ReportType)
	}
	_, err := s.Repo.GetReport(ctx, ownerID, rep.ID)
	switch {
	case err == nil && !overwrite:
		res.SkippedCounts["reports"]++
		return nil
	case err == nil:
		if uerr := s.Repo.UpdateReport(ctx, rep); uerr != nil {
			return uerr
		}
	case err == repo.ErrNotFound:
		if ierr := s.Repo.InsertReport(ctx, rep); ierr != nil {
			return ierr
		}
	default:
		return err
	}
	res.ImportedCounts["reports"]++
	return nil
}
