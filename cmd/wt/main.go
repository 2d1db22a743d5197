package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"worktrack/internal/ai"
	"worktrack/internal/calendar"
	"worktrack/internal/config"
	"worktrack/internal/db"
	"worktrack/internal/domain"
	"worktrack/internal/engine"
	"worktrack/internal/export"
	"worktrack/internal/migrate"
	"worktrack/internal/repo"
	"worktrack/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "wt",
	Short: "Worktrack CLI",
	Long: `Worktrack records professional activities, STAR impact stories, and
periodic reports. Data stays in a local SQLite workspace; the serve command
exposes the same operations over HTTP.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("WORKTRACK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("user", "local-user", "user identifier for CLI operations")
	rootCmd.PersistentFlags().String("config", "", "path to worktrack.yml (defaults to <workspace>/worktrack.yml)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func registerCommands() {
	rootCmd.AddCommand(activityCmd())
	rootCmd.AddCommand(storyCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(backupCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func configPath() string {
	if p := viper.GetString("config"); p != "" {
		return p
	}
	return filepath.Join(viper.GetString("workspace"), "worktrack.yml")
}

func buildAI(cfg *config.Config) *ai.Service {
	if !cfg.AI.Enabled {
		return nil
	}
	return &ai.Service{
		Client: &ai.HTTPClient{
			BaseURL: cfg.AI.BaseURL,
			Model:   cfg.AI.Model,
			APIKey:  cfg.AI.APIKey,
		},
		MaxRetries: cfg.AI.MaxRetries,
		BaseDelay:  time.Duration(cfg.AI.BaseDelayS * float64(time.Second)),
	}
}

func buildExport(cfg *config.Config, r repo.Repo) *export.Service {
	ttl, _ := cfg.DownloadTTL()
	workspace := viper.GetString("workspace")
	dir := cfg.Export.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(workspace, dir)
	}
	backupDir := cfg.Export.BackupDir
	if !filepath.IsAbs(backupDir) {
		backupDir = filepath.Join(workspace, backupDir)
	}
	return &export.Service{
		Repo:          r,
		Dir:           dir,
		BackupDir:     backupDir,
		SigningSecret: cfg.Export.SigningSecret,
		DownloadTTL:   ttl,
	}
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	conn, err := db.Open(db.Config{Workspace: viper.GetString("workspace")})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.Load(configPath())
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg, buildAI(cfg), nil)
	return fn(ctx, e)
}

// ensureLocalUser resolves the --user flag to a user row, creating it on
// first use so CLI data has an owner without any auth ceremony.
func ensureLocalUser(ctx context.Context, r repo.Repo, name string) (domain.User, error) {
	subject := "cli:" + name
	u, err := r.GetUserBySubject(ctx, subject)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return domain.User{}, err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	u = domain.User{
		ID:        uuid.New().String(),
		Name:      name,
		Subject:   subject,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.InsertUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func withUser(ctx context.Context, fn func(context.Context, engine.Engine, domain.User) error) error {
	return withEngine(ctx, func(ctx context.Context, e engine.Engine) error {
		u, err := ensureLocalUser(ctx, e.Repo, viper.GetString("user"))
		if err != nil {
			return err
		}
		return fn(ctx, e, u)
	})
}

func activityCmd() *cobra.Command {
	act := &cobra.Command{Use: "activity", Short: "Manage activities"}
	act.AddCommand(activityListCmd())
	act.AddCommand(activityCreateCmd())
	act.AddCommand(activityShowCmd())
	act.AddCommand(activityDeleteCmd())
	act.AddCommand(activitySummaryCmd())
	act.AddCommand(activityTagsCmd())
	return act
}

func activityListCmd() *cobra.Command {
	var category, dateFrom, dateTo, search string
	var tags []string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				list, err := e.ListActivities(ctx, repo.ActivityFilters{
					UserID:   u.ID,
					Category: category,
					Tags:     tags,
					DateFrom: dateFrom,
					DateTo:   dateTo,
					Search:   search,
					Limit:    limit,
					Offset:   offset,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(list)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Date", "Title", "Category", "Impact", "Tags"})
				for _, a := range list.Items {
					impact := ""
					if a.ImpactLevel != nil {
						impact = fmt.Sprintf("%d", *a.ImpactLevel)
					}
					tw.AppendRow(table.Row{a.ID, a.Date, a.Title, a.Category, impact, strings.Join(a.Tags, ",")})
				}
				tw.Render()
				fmt.Printf("total: %d\n", list.Total)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "filter by tag (repeatable)")
	cmd.Flags().StringVar(&dateFrom, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dateTo, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&search, "search", "", "search title and description")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}

func activityCreateCmd() *cobra.Command {
	var title, description, category, date string
	var tags []string
	var impact, duration int
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record an activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				in := engine.ActivityInput{
					Title:       title,
					Description: description,
					Category:    category,
					Tags:        tags,
					Date:        date,
				}
				if cmd.Flags().Changed("impact") {
					in.ImpactLevel = &impact
				}
				if cmd.Flags().Changed("duration") {
					in.DurationMinutes = &duration
				}
				a, err := e.CreateActivity(ctx, u.ID, in)
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "activity title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().StringVar(&date, "date", time.Now().UTC().Format("2006-01-02"), "activity date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&impact, "impact", 0, "impact level 1-5")
	cmd.Flags().IntVar(&duration, "duration", 0, "duration in minutes")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func activityShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				a, err := e.GetActivity(ctx, u.ID, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	return cmd
}

func activityDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				return e.DeleteActivity(ctx, u.ID, args[0])
			})
		},
	}
	return cmd
}

func activitySummaryCmd() *cobra.Command {
	var dateFrom, dateTo string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Activity counts per category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				summary, err := e.CategorySummary(ctx, u.ID, dateFrom, dateTo)
				if err != nil {
					return err
				}
				return printJSONOrTable(summary)
			})
		},
	}
	cmd.Flags().StringVar(&dateFrom, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dateTo, "to", "", "end date (YYYY-MM-DD)")
	return cmd
}

func activityTagsCmd() *cobra.Command {
	var partial string
	var limit int
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Suggest tags from history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				tags, err := e.TagSuggestions(ctx, u.ID, partial, limit)
				if err != nil {
					return err
				}
				return printJSONOrTable(tags)
			})
		},
	}
	cmd.Flags().StringVar(&partial, "partial", "", "prefix or substring to match")
	cmd.Flags().IntVar(&limit, "limit", 0, "max suggestions")
	return cmd
}

func storyTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List distinct story tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				tags, err := e.StoryTags(ctx, u.ID)
				if err != nil {
					return err
				}
				return printJSONOrTable(tags)
			})
		},
	}
}

func storyCmd() *cobra.Command {
	st := &cobra.Command{Use: "story", Short: "Manage STAR stories"}
	st.AddCommand(storyListCmd())
	st.AddCommand(storyCreateCmd())
	st.AddCommand(storyShowCmd())
	st.AddCommand(storyStatusCmd())
	st.AddCommand(storyGuidanceCmd())
	st.AddCommand(storyTemplatesCmd())
	st.AddCommand(storyTagsCmd())
	st.AddCommand(storyDeleteCmd())
	return st
}

func storyListCmd() *cobra.Command {
	var status, search string
	var tags []string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				list, err := e.ListStories(ctx, repo.StoryFilters{
					UserID: u.ID,
					Status: status,
					Tags:   tags,
					Search: search,
					Limit:  limit,
					Offset: offset,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(list)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Completeness", "Tags"})
				for _, s := range list.Items {
					tw.AppendRow(table.Row{s.ID, s.Title, s.Status, fmt.Sprintf("%.2f", s.Completeness()), strings.Join(s.Tags, ",")})
				}
				tw.Render()
				fmt.Printf("total: %d\n", list.Total)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "filter by tag, repeatable (any match)")
	cmd.Flags().StringVar(&search, "search", "", "search title and sections")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}

func storyCreateCmd() *cobra.Command {
	var title, situation, task, action, result string
	var tags []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a story",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				s, err := e.CreateStory(ctx, u.ID, engine.StoryInput{
					Title:     title,
					Situation: situation,
					Task:      task,
					Action:    action,
					Result:    result,
					Tags:      tags,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "story title")
	cmd.Flags().StringVar(&situation, "situation", "", "situation section")
	cmd.Flags().StringVar(&task, "task", "", "task section")
	cmd.Flags().StringVar(&action, "action", "", "action section")
	cmd.Flags().StringVar(&result, "result", "", "result section")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func storyShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				s, err := e.GetStory(ctx, u.ID, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	return cmd
}

func storyStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <id> <draft|complete|published>",
		Short: "Change story status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				s, err := e.SetStoryStatus(ctx, u.ID, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	return cmd
}

func storyGuidanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guidance <id>",
		Short: "Completion guidance for a story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				g, err := e.StoryGuidance(ctx, u.ID, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(g)
			})
		},
	}
	return cmd
}

func storyTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List built-in story templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSONOrTable(engine.StoryTemplates())
		},
	}
	return cmd
}

func storyDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				return e.DeleteStory(ctx, u.ID, args[0])
			})
		},
	}
	return cmd
}

func reportCmd() *cobra.Command {
	rep := &cobra.Command{Use: "report", Short: "Manage reports"}
	rep.AddCommand(reportListCmd())
	rep.AddCommand(reportGenerateCmd())
	rep.AddCommand(reportShowCmd())
	rep.AddCommand(reportDeleteCmd())
	return rep
}

func reportListCmd() *cobra.Command {
	var reportType, status string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				list, err := e.ListReports(ctx, repo.ReportFilters{
					UserID:     u.ID,
					ReportType: reportType,
					Status:     status,
					Limit:      limit,
					Offset:     offset,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(list)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Type", "Period", "Status", "AI"})
				for _, r := range list.Items {
					tw.AppendRow(table.Row{r.ID, r.Title, r.ReportType, r.PeriodStart + ".." + r.PeriodEnd, r.Status, r.GeneratedByAI})
				}
				tw.Render()
				fmt.Printf("total: %d\n", list.Total)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reportType, "type", "", "filter by report type")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}

func reportGenerateCmd() *cobra.Command {
	var title, reportType, periodStart, periodEnd string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate report content from the period's activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				r, err := e.GenerateReport(ctx, u.ID, engine.ReportInput{
					Title:       title,
					ReportType:  reportType,
					PeriodStart: periodStart,
					PeriodEnd:   periodEnd,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(r)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "report title")
	cmd.Flags().StringVar(&reportType, "type", "weekly", "report type")
	cmd.Flags().StringVar(&periodStart, "start", "", "period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&periodEnd, "end", "", "period end (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func reportShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				r, err := e.GetReport(ctx, u.ID, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(r)
				}
				fmt.Printf("%s (%s, %s..%s, %s)\n\n", r.Title, r.ReportType, r.PeriodStart, r.PeriodEnd, r.Status)
				fmt.Println(r.Content)
				return nil
			})
		},
	}
	return cmd
}

func reportDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				return e.DeleteReport(ctx, u.ID, args[0])
			})
		},
	}
	return cmd
}

func exportCmd() *cobra.Command {
	var format, dateFrom, dateTo string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export user data to a file with a signed download URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				svc := buildExport(e.Config, e.Repo)
				desc, err := svc.CreateExport(ctx, u.ID, export.Options{
					Format:             format,
					IncludeActivities:  true,
					IncludeStories:     true,
					IncludeReports:     true,
					IncludeUserProfile: true,
					DateFrom:           dateFrom,
					DateTo:             dateTo,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(desc)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "export format (json or csv)")
	cmd.Flags().StringVar(&dateFrom, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dateTo, "to", "", "end date (YYYY-MM-DD)")
	return cmd
}

func importCmd() *cobra.Command {
	var filePath string
	var validateOnly, overwrite bool
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON export snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return err
			}
			var snap export.Snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				return fmt.Errorf("parse snapshot: %w", err)
			}
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				svc := buildExport(e.Config, e.Repo)
				res := svc.Import(ctx, u.ID, snap, export.ImportOptions{
					ValidateOnly:      validateOnly,
					OverwriteExisting: overwrite,
					ImportActivities:  true,
					ImportStories:     true,
					ImportReports:     true,
				})
				return printJSONOrTable(res)
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to exported JSON snapshot")
	cmd.Flags().BoolVar(&validateOnly, "validate-only", false, "validate without writing")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite records with matching ids")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func backupCmd() *cobra.Command {
	var backupType string
	var retention int
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a full JSON backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				svc := buildExport(e.Config, e.Repo)
				res, err := svc.Backup(ctx, u.ID, export.BackupOptions{
					BackupType:      backupType,
					IncludeUserData: true,
					RetentionDays:   retention,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
	}
	cmd.Flags().StringVar(&backupType, "type", "daily", "backup type (daily, weekly, monthly)")
	cmd.Flags().IntVar(&retention, "retention", 30, "retention in days")
	return cmd
}

func calendarCmd() *cobra.Command {
	cal := &cobra.Command{Use: "calendar", Short: "Calendar-derived activity suggestions"}
	cal.AddCommand(calendarSyncCmd())
	cal.AddCommand(calendarSuggestionsCmd())
	cal.AddCommand(calendarDecideCmd())
	return cal
}

func buildCalendar(e engine.Engine, source calendar.EventSource) *calendar.Service {
	return &calendar.Service{
		Engine:    e,
		Source:    source,
		Threshold: e.Config.Calendar.ConfidenceThreshold,
	}
}

func calendarSyncCmd() *cobra.Command {
	var filePath, dateFrom, dateTo string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Turn calendar events from a JSON file into suggestions",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return err
			}
			var eventsList []domain.CalendarEvent
			if err := json.Unmarshal(data, &eventsList); err != nil {
				return fmt.Errorf("parse events: %w", err)
			}
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				svc := buildCalendar(e, calendar.StaticSource{List: eventsList})
				now := time.Now().UTC()
				from := now.AddDate(0, 0, -7)
				to := now
				if t, err := time.Parse("2006-01-02", dateFrom); err == nil {
					from = t
				}
				if t, err := time.Parse("2006-01-02", dateTo); err == nil {
					to = t
				}
				items, err := svc.Sync(ctx, u.ID, from, to)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to a JSON array of calendar events")
	cmd.Flags().StringVar(&dateFrom, "from", "", "window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dateTo, "to", "", "window end (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func calendarSuggestionsCmd() *cobra.Command {
	var status string
	var limit int
	cmd := &cobra.Command{
		Use:   "suggestions",
		Short: "List activity suggestions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				items, err := e.Repo.ListSuggestions(ctx, u.ID, status, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Event", "Suggested title", "Category", "Confidence", "Status"})
				for _, s := range items {
					tw.AppendRow(table.Row{s.ID, s.EventTitle, s.SuggestedTitle, s.SuggestedCategory, fmt.Sprintf("%.2f", s.ConfidenceScore), s.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().IntVar(&limit, "limit", 0, "max results")
	return cmd
}

func calendarDecideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decide <id> <accept|modify|reject>",
		Short: "Apply a decision to a suggestion",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				svc := buildCalendar(e, calendar.StaticSource{})
				sug, err := svc.Decide(ctx, u.ID, args[0], calendar.Decision{Action: args[1]})
				if err != nil {
					return err
				}
				return printJSONOrTable(sug)
			})
		},
	}
	return cmd
}

func apikeyCmd() *cobra.Command {
	key := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	key.AddCommand(apikeyCreateCmd())
	key.AddCommand(apikeyListCmd())
	key.AddCommand(apikeyDeleteCmd())
	return key
}

func apikeyCreateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key (printed once)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				raw := make([]byte, 32)
				if _, err := rand.Read(raw); err != nil {
					return err
				}
				secret := "wt_" + hex.EncodeToString(raw)
				k := domain.APIKey{
					ID:        uuid.New().String(),
					UserID:    u.ID,
					Name:      name,
					KeyHash:   repo.HashAPIKey(secret),
					CreatedAt: time.Now().UTC().Format(time.RFC3339),
				}
				if err := e.Repo.InsertAPIKey(ctx, k); err != nil {
					return err
				}
				fmt.Printf("API key created (store it now, it is not shown again):\n%s\n", secret)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "key label")
	return cmd
}

func apikeyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				keys, err := e.Repo.ListAPIKeys(ctx, u.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Created"})
				for _, k := range keys {
					tw.AppendRow(table.Row{k.ID, k.Name, k.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func apikeyDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				return e.Repo.DeleteAPIKey(ctx, u.ID, args[0])
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	lg := &cobra.Command{Use: "log", Short: "Event log"}
	lg.AddCommand(logTailCmd())
	return lg
}

func logTailCmd() *cobra.Command {
	var evtType, entityKind string
	var limit int
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				items, err := e.Repo.LatestEvents(ctx, u.ID, evtType, entityKind, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				for i := len(items) - 1; i >= 0; i-- {
					ev := items[i]
					fmt.Printf("%s %s %s/%s %s\n", ev.TS, ev.Type, ev.EntityKind, ev.EntityID, ev.Payload)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&evtType, "type", "", "filter by event type")
	cmd.Flags().StringVar(&entityKind, "entity", "", "filter by entity kind")
	cmd.Flags().IntVar(&limit, "limit", 50, "max events")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := config.Load(configPath())
			if err != nil {
				return err
			}
			jwtSecret := cfg.Server.JWTSecret
			if env := os.Getenv("WORKTRACK_JWT_SECRET"); env != "" {
				jwtSecret = env
			}
			if jwtSecret == "" {
				return fmt.Errorf("server.jwt_secret (or WORKTRACK_JWT_SECRET) is required for bearer auth")
			}
			e := engine.New(conn, cfg, buildAI(cfg), nil)
			exportSvc := buildExport(cfg, e.Repo)
			calSvc := buildCalendar(e, calendar.StaticSource{})
			if addr == "" {
				addr = cfg.Server.Addr
			}
			handler, err := server.New(server.Config{
				Engine:   e,
				Export:   exportSvc,
				Calendar: calSvc,
				BasePath: basePath,
				Auth:     server.AuthConfig{JWTSecret: jwtSecret},
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Worktrack API on http://%s%s (OpenAPI at openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to config server.addr)")
	cmd.Flags().StringVar(&basePath, "base-path", "/api/v1", "API base path")
	return cmd
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
