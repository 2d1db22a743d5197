package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"worktrack/internal/export"
)

type CreateExportRequest struct {
	Format             string `json:"format,omitempty" enum:",json,csv"`
	IncludeActivities  *bool  `json:"include_activities,omitempty"`
	IncludeStories     *bool  `json:"include_stories,omitempty"`
	IncludeReports     *bool  `json:"include_reports,omitempty"`
	IncludeUserProfile *bool  `json:"include_user_profile,omitempty"`
	DateFrom           string `json:"date_from,omitempty" format:"date"`
	DateTo             string `json:"date_to,omitempty" format:"date"`
}

type ImportRequest struct {
	Data              export.Snapshot `json:"data"`
	ValidateOnly      bool            `json:"validate_only,omitempty"`
	OverwriteExisting bool            `json:"overwrite_existing,omitempty"`
	ImportActivities  *bool           `json:"import_activities,omitempty"`
	ImportStories     *bool           `json:"import_stories,omitempty"`
	ImportReports     *bool           `json:"import_reports,omitempty"`
}

type BackupRequest struct {
	BackupType      string `json:"backup_type,omitempty" enum:",daily,weekly,monthly"`
	IncludeUserData *bool  `json:"include_user_data,omitempty"`
	RetentionDays   int    `json:"retention_days,omitempty"`
}

// orTrue defaults the include toggles to on, matching the snapshot shape of
// the export format.
func orTrue(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}

func registerExport(api huma.API, svc *export.Service) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-export",
		Method:        http.MethodPost,
		Path:          "/export",
		Summary:       "Export user data to a signed download",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body CreateExportRequest `json:"body"`
	}) (*struct {
		Body export.Descriptor `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		desc, err := svc.CreateExport(ctx, userID, export.Options{
			Format:             input.Body.Format,
			IncludeActivities:  orTrue(input.Body.IncludeActivities),
			IncludeStories:     orTrue(input.Body.IncludeStories),
			IncludeReports:     orTrue(input.Body.IncludeReports),
			IncludeUserProfile: orTrue(input.Body.IncludeUserProfile),
			DateFrom:           input.Body.DateFrom,
			DateTo:             input.Body.DateTo,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body export.Descriptor `json:"body"`
		}{Body: desc}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "download-export",
		Method:      http.MethodGet,
		Path:        "/export/download/{name}",
		Summary:     "Download a signed export file",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Name    string `path:"name"`
		Expires int64  `query:"expires"`
		Sig     string `query:"sig"`
	}) (*struct {
		ContentType string `header:"Content-Type"`
		Body        []byte `json:"body"`
	}, error) {
		data, err := svc.VerifyDownload(input.Name, input.Expires, input.Sig)
		if err != nil {
			return nil, handleError(err)
		}
		contentType := "application/json"
		if strings.HasSuffix(input.Name, ".csv") {
			contentType = "text/csv"
		}
		return &struct {
			ContentType string `header:"Content-Type"`
			Body        []byte `json:"body"`
		}{ContentType: contentType, Body: data}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "import-data",
		Method:      http.MethodPost,
		Path:        "/import",
		Summary:     "Import a previously exported snapshot",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body ImportRequest `json:"body"`
	}) (*struct {
		Body export.ImportResult `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res := svc.Import(ctx, userID, input.Body.Data, export.ImportOptions{
			ValidateOnly:      input.Body.ValidateOnly,
			OverwriteExisting: input.Body.OverwriteExisting,
			ImportActivities:  orTrue(input.Body.ImportActivities),
			ImportStories:     orTrue(input.Body.ImportStories),
			ImportReports:     orTrue(input.Body.ImportReports),
		})
		return &struct {
			Body export.ImportResult `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-backup",
		Method:        http.MethodPost,
		Path:          "/backup",
		Summary:       "Create a server-side backup",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body BackupRequest `json:"body"`
	}) (*struct {
		Body export.BackupResult `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		backupType := input.Body.BackupType
		if backupType == "" {
			backupType = "daily"
		}
		res, err := svc.Backup(ctx, userID, export.BackupOptions{
			BackupType:      backupType,
			IncludeUserData: orTrue(input.Body.IncludeUserData),
			RetentionDays:   input.Body.RetentionDays,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body export.BackupResult `json:"body"`
		}{Body: res}, nil
	})
}
