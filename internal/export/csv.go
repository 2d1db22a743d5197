package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// MarshalCSV flattens the snapshot into comment-delimited sections: a
// metadata block, then one section per included entity type, each with its
// own header row. List cells are comma-joined.
func MarshalCSV(snap Snapshot) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Export Metadata\n")
	fmt.Fprintf(&buf, "# export_version: %s\n", snap.ExportMetadata.ExportVersion)
	fmt.Fprintf(&buf, "# export_date: %s\n", snap.ExportMetadata.ExportDate)
	fmt.Fprintf(&buf, "# user_id: %s\n", snap.ExportMetadata.UserID)
	fmt.Fprintf(&buf, "# date_from: %s\n", snap.ExportMetadata.Filters.DateFrom)
	fmt.Fprintf(&buf, "# date_to: %s\n", snap.ExportMetadata.Filters.DateTo)
	buf.WriteString("\n")

	if snap.UserProfile != nil {
		buf.WriteString("# User Profile\n")
		w := csv.NewWriter(&buf)
		w.Write([]string{"id", "email", "name", "created_at", "updated_at"})
		w.Write([]string{snap.UserProfile.ID, snap.UserProfile.Email, snap.UserProfile.Name, snap.UserProfile.CreatedAt, snap.UserProfile.UpdatedAt})
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		buf.WriteString("\n")
	}

	if len(snap.Activities) > 0 {
		buf.WriteString("# Activities\n")
		w := csv.NewWriter(&buf)
		w.Write([]string{"id", "title", "description", "category", "tags", "impact_level", "date", "duration_minutes", "created_at"})
		for _, a := range snap.Activities {
			w.Write([]string{
				a.ID, a.Title, a.Description, a.Category,
				strings.Join(a.Tags, ","),
				intPtrCell(a.ImpactLevel),
				a.Date,
				intPtrCell(a.DurationMinutes),
				a.CreatedAt,
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		buf.WriteString("\n")
	}

	if len(snap.Stories) > 0 {
		buf.WriteString("# Stories\n")
		w := csv.NewWriter(&buf)
		w.Write([]string{"id", "title", "situation", "task", "action", "result", "tags", "status", "ai_enhanced", "created_at"})
		for _, s := range snap.Stories {
			w.Write([]string{
				s.ID, s.Title, s.Situation, s.Task, s.Action, s.Result,
				strings.Join(s.Tags, ","),
				s.Status,
				strconv.FormatBool(s.AIEnhanced),
				s.CreatedAt,
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		buf.WriteString("\n")
	}

	if len(snap.Reports) > 0 {
		buf.WriteString("# Reports\n")
		w := csv.NewWriter(&buf)
		w.Write([]string{"id", "title", "period_start", "period_end", "report_type", "status", "generated_by_ai", "created_at"})
		for _, r := range snap.Reports {
			w.Write([]string{
				r.ID, r.Title, r.PeriodStart, r.PeriodEnd, r.ReportType,
				r.Status,
				strconv.FormatBool(r.GeneratedByAI),
				r.CreatedAt,
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func intPtrCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
