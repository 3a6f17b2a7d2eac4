package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vowline/internal/app"
	"vowline/internal/config"
	"vowline/internal/db"
	"vowline/internal/domain"
	"vowline/internal/engine"
	"vowline/internal/migrate"
	"vowline/internal/patch"
	"vowline/internal/repo"
	"vowline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "vow",
	Short: "Vowline CLI",
	Long: `Vowline plans wedding days on a shared minute-level timeline.
Core concepts:
- Workspace: the .vowline directory holding the database; vowline.yml holds config.
- Wedding: one wedding day, its lanes, events, budget and members.
- Window: the editable day runs venue-local 3AM to 3AM, DST-aware.
- Lanes: parallel tracks (photo, ceremony, meal, ...) that events live in.
- Publish: edits ship as an op batch against a base version; a stale base
  is rejected with the current snapshot so nobody overwrites anybody.
- Bands: read-only backdrop (golden hour, sunset) pushed by external tools.
- Log: an audit trail of everything, view with 'vow log tail'.`,
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
	viper.SetEnvPrefix("VOWLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("wedding", "", "wedding id (defaults to the workspace's single wedding)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("wedding", rootCmd.PersistentFlags().Lookup("wedding"))
}

func registerCommands() {
	rootCmd.AddCommand(weddingCmd())
	rootCmd.AddCommand(timelineCmd())
	rootCmd.AddCommand(budgetCmd())
	rootCmd.AddCommand(memberCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

// --- wedding ---

func weddingCmd() *cobra.Command {
	wed := &cobra.Command{Use: "wedding", Short: "Manage weddings"}
	wed.AddCommand(weddingCreateCmd())
	wed.AddCommand(weddingListCmd())
	wed.AddCommand(weddingShowCmd())
	wed.AddCommand(weddingUpdateCmd())
	wed.AddCommand(weddingDeleteCmd())
	return wed
}

func weddingCreateCmd() *cobra.Command {
	var id, couple, date, tz, venue string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a wedding",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				w, err := e.CreateWedding(ctx, engine.WeddingCreateOptions{
					ID:            id,
					CoupleNames:   couple,
					WeddingDate:   date,
					VenueTimezone: tz,
					VenueName:     venue,
					ActorID:       viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(w)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "wedding id (generated if omitted)")
	cmd.Flags().StringVar(&couple, "couple", "", "couple names")
	cmd.Flags().StringVar(&date, "date", "", "wedding date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&tz, "timezone", "", "venue IANA timezone")
	cmd.Flags().StringVar(&venue, "venue", "", "venue name")
	_ = cmd.MarkFlagRequired("couple")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("timezone")
	return cmd
}

func weddingListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List weddings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListWeddings(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Couple", "Date", "Timezone", "Version"})
				for _, w := range items {
					tw.AppendRow(table.Row{w.ID, w.CoupleNames, w.WeddingDate, w.VenueTimezone, w.TimelineVersion})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func weddingShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show a wedding",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWedding(cmd.Context(), func(ctx context.Context, e engine.Engine, weddingID string) error {
				w, err := e.Repo.GetWedding(ctx, weddingID)
				if err != nil {
					return err
				}
				return printJSONOrTable(w)
			})
		},
	}
}

func weddingUpdateCmd() *cobra.Command {
	var couple, venue string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a wedding",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWedding(cmd.Context(), func(ctx context.Context, e engine.Engine, weddingID string) error {
				var couplePtr, venuePtr *string
				if cmd.Flags().Changed("couple") {
					couplePtr = &couple
				}
				if cmd.Flags().Changed("venue") {
					venuePtr = &venue
				}
				if err := e.Repo.UpdateWedding(ctx, weddingID, couplePtr, venuePtr); err != nil {
					return err
				}
				w, err := e.Repo.GetWedding(ctx, weddingID)
				if err != nil {
					return err
				}
				return printJSONOrTable(w)
			})
		},
	}
	cmd.Flags().StringVar(&couple, "couple", "", "couple names")
	cmd.Flags().StringVar(&venue, "venue", "", "venue name")
	return cmd
}

func weddingDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete a wedding",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWedding(cmd.Context(), func(ctx context.Context, e engine.Engine, weddingID string) error {
				return e.Repo.DeleteWedding(ctx, weddingID)
			})
		},
	}
}

// --- timeline ---

func timelineCmd() *cobra.Command {
	tl := &cobra.Command{Use: "timeline", Short: "View and publish the timeline"}
	tl.AddCommand(timelineShowCmd())
	tl.AddCommand(timelinePublishCmd())
	tl.AddCommand(timelineExportCmd())
	tl.AddCommand(timelineBandsCmd())
	return tl
}

func timelineShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the canonical snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWedding(cmd.Context(), func(ctx context.Context, e engine.Engine, weddingID string) error {
				snap, err := e.GetTimeline(ctx, weddingID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(snap)
				}
				fmt.Printf("Wedding %s  version %d  window %s .. %s\n",
					snap.WeddingID, snap.Version,
					snap.WindowStartUTC.Format(time.RFC3339), snap.WindowEndUTC.Format(time.RFC3339))
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Lane", "Event", "Title", "Start", "End", "Status"})
				laneNames := map[string]string{}
				for _, l := range snap.Lanes {
					laneNames[l.ID] = l.Name
				}
				for _, ev := range snap.Events {
					tw.AppendRow(table.Row{
						laneNames[ev.LaneID], ev.ID, ev.Title,
						ev.StartUTC.Format("15:04"), ev.EndUTC.Format("15:04"), ev.Status,
					})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func timelinePublishCmd() *cobra.Command {
	var opsFile string
	var baseVersion int64
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish an op batch from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(opsFile)
			if err != nil {
				return err
			}
			var ops []patch.Op
			if err := json.Unmarshal(data, &ops); err != nil {
				return fmt.Errorf("parse ops: %w", err)
			}
			return withWedding(cmd.Context(), func(ctx context.Context, e engine.Engine, weddingID string) error {
				base := baseVersion
				if !cmd.Flags().Changed("base-version") {
					w, err := e.Repo.GetWedding(ctx, weddingID)
					if err != nil {
						return err
					}
					base = w.TimelineVersion
				}
				snap, err := e.PublishTimeline(ctx, weddingID, base, ops, viper.GetString("actor-id"))
				if err != nil {
					var conflict engine.ConflictError
					if errors.As(err, &conflict) {
						fmt.Printf("conflict: canonical version is now %d; re-fetch and retry\n", conflict.CurrentVersion)
					}
					return err
				}
				return printJSONOrTable(snap)
			})
		},
	}
	cmd.Flags().StringVar(&opsFile, "file", "", "JSON file with an array of ops")
	cmd.Flags().Int64Var(&baseVersion, "base-version", 0, "base version (defaults to the current one)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func timelineExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the timeline as iCalendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWedding(cmd.Context(), func(ctx context.Context, e engine.Engine, weddingID string) error {
				w, err := e.Repo.GetWedding(ctx, weddingID)
				if err != nil {
					return err
				}
				snap, err := e.GetTimeline(ctx, weddingID)
				if err != nil {
					return err
				}
				ics := server.TimelineICS(w, snap)
				if out == "" {
					fmt.Print(ics)
					return nil
				}
				return os.WriteFile(out, []byte(ics), 0o644)
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file (stdout if omitted)")
	return cmd
}

func timelineBandsCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "set-bands",
		Short: "Replace background bands from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var bands []domain.BackgroundBand
			if err := json.Unmarshal(data, &bands); err != nil {
				return fmt.Errorf("parse bands: %w", err)
			}
			return withWedding(cmd.Context(), func(ctx context.Context, e engine.Engine, weddingID string) error {
				return e.SetBands(ctx, weddingID, bands, viper.GetString("actor-id"))
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with an array of bands")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// --- budget ---

func budgetCmd() *cobra.Command {
	b := &cobra.Command{Use: "budget", Short: "Track the wedding budget"}
	b.AddCommand(budgetAddCmd())
	b.AddCommand(budgetListCmd())
	b.AddCommand(budgetUpdateCmd())
	b.AddCommand(budgetDeleteCmd())
	b.AddCommand(budgetSummaryCmd())
	return b
}

func budgetEntryFlags(cmd *cobra.Command, category, vendor, dueDate, notes *string, planned, actual *int64, paid *bool) {
	cmd.Flags().StringVar(category, "category", "", "budget category")
	cmd.Flags().StringVar(vendor, "vendor", "", "vendor name")
	cmd.Flags().Int64Var(planned, "planned", 0, "planned amount in cents")
	cmd.Flags().Int64Var(actual, "actual", 0, "actual amount in cents")
	cmd.Flags().BoolVar(paid, "paid", false, "mark as paid")
	cmd.Flags().StringVar(dueDate, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(notes, "notes", "", "notes")
}

func budgetOptionsFromFlags(cmd *cobra.Command, category, vendor, dueDate, notes string, planned, actual int64, paid bool) engine.BudgetEntryOptions {
	var opts engine.BudgetEntryOptions
	if cmd.Flags().Changed("category") {
		opts.Category = &category
	}
	if cmd.Flags().Changed("vendor") {
		opts.Vendor = &vendor
	}
	if cmd.Flags().Changed("planned") {
		opts.PlannedCents = &planned
	}
	if cmd.Flags().Changed("actual") {
		opts.ActualCents = &actual
	}
	if cmd.Flags().Changed("paid") {
		opts.Paid = &paid
	}
	if cmd.Flags().Changed("due") {
		opts.DueDate = &dueDate
	}
	if cmd.Flags().Changed("notes") {
		opts.Notes = &notes
	}
	return opts
}

func budgetAddCmd() *cobra.Command {
	var category, vendor, dueDate, notes string
	var planned, actual int64
	var paid bool
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a budget entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := budgetOptionsFromFlags(cmd, category, vendor, dueDate, notes, planned, actual, paid)
			return withWedding(cmd.Context(), func(ctx context.Context, e engine.Engine, weddingID string) error {
				entry, err := e.AddBudgetEntry(ctx, weddingID, opts, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(entry)
			})
		},
	}
	budgetEntryFlags(cmd, &category, &vendor, &dueDate, &notes, &planned, &actual, &paid)
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func budgetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List budget entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWedding(cmd.Context(), func(ctx context.Context, e engine.Engine, weddingID string) error {
				items, err := e.ListBudgetEntries(ctx, weddingID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Category", "Vendor", "Planned", "Actual", "Paid"})
				for _, it := range items {
					tw.AppendRow(table.Row{it.ID, it.Category, it.Vendor, centsToDollars(it.PlannedCents), centsToDollars(it.ActualCents), it.Paid})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func budgetUpdateCmd() *cobra.Command {
	var id, category, vendor, dueDate, notes string
	var planned, actual int64
	var paid bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a budget entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := budgetOptionsFromFlags(cmd, category, vendor, dueDate, notes, planned, actual, paid)
			return withWedding(cmd.Context(), func(ctx context.Context, e engine.Engine, weddingID string) error {
				entry, err := e.UpdateBudgetEntry(ctx, weddingID, id, opts, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(entry)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "entry id")
	budgetEntryFlags(cmd, &category, &vendor, &dueDate, &notes, &planned, &actual, &paid)
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func budgetDeleteCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a budget entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWedding(cmd.Context(), func(ctx context.Context, e engine.Engine, weddingID string) error {
				return e.DeleteBudgetEntry(ctx, weddingID, id, viper.GetString("actor-id"))
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "entry id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func budgetSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Budget totals by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWedding(cmd.Context(), func(ctx context.Context, e engine.Engine, weddingID string) error {
				sum, err := e.BudgetSummary(ctx, weddingID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(sum)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Category", "Planned", "Actual", "Paid", "Entries"})
				for _, c := range sum.Categories {
					tw.AppendRow(table.Row{c.Category, centsToDollars(c.PlannedCents), centsToDollars(c.ActualCents), centsToDollars(c.PaidCents), c.Entries})
				}
				tw.AppendFooter(table.Row{"total", centsToDollars(sum.PlannedCents), centsToDollars(sum.ActualCents), centsToDollars(sum.PaidCents), ""})
				tw.Render()
				return nil
			})
		},
	}
}

// --- members ---

func memberCmd() *cobra.Command {
	m := &cobra.Command{Use: "member", Short: "Manage wedding members"}
	m.AddCommand(memberAddCmd())
	m.AddCommand(memberListCmd())
	m.AddCommand(memberRemoveCmd())
	return m
}

func memberAddCmd() *cobra.Command {
	var actor, role string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a member with a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWedding(cmd.Context(), func(ctx context.Context, e engine.Engine, weddingID string) error {
				m, err := e.AddMember(ctx, weddingID, actor, role, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "actor id")
	cmd.Flags().StringVar(&role, "role", "", "role (couple, planner, vendor)")
	_ = cmd.MarkFlagRequired("actor")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func memberListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List members",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWedding(cmd.Context(), func(ctx context.Context, e engine.Engine, weddingID string) error {
				items, err := e.Repo.ListMembers(ctx, weddingID)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
}

func memberRemoveCmd() *cobra.Command {
	var actor, role string
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a member role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWedding(cmd.Context(), func(ctx context.Context, e engine.Engine, weddingID string) error {
				tx, err := e.DB.BeginTx(ctx, nil)
				if err != nil {
					return err
				}
				defer tx.Rollback()
				if err := e.Repo.RemoveMember(ctx, tx, weddingID, actor, role); err != nil {
					return err
				}
				return tx.Commit()
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "actor id")
	cmd.Flags().StringVar(&role, "role", "", "role")
	_ = cmd.MarkFlagRequired("actor")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

// --- api keys ---

func apikeyCmd() *cobra.Command {
	k := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	k.AddCommand(apikeyCreateCmd())
	k.AddCommand(apikeyListCmd())
	k.AddCommand(apikeyDeleteCmd())
	return k
}

func apikeyCreateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for the current actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				raw := uuid.New().String()
				key := domain.APIKey{
					ID:      uuid.New().String(),
					ActorID: viper.GetString("actor-id"),
					Name:    name,
					KeyHash: repo.HashAPIKey(raw),
				}
				if err := r.InsertAPIKey(ctx, nil, key); err != nil {
					return err
				}
				// Shown once; only the hash is stored.
				fmt.Printf("api key: %s\n", raw)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "key label")
	return cmd
}

func apikeyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				keys, err := r.ListAPIKeys(ctx, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(keys)
			})
		},
	}
}

func apikeyDeleteCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteAPIKey(ctx, id)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "key id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

// --- log ---

func logCmd() *cobra.Command {
	l := &cobra.Command{Use: "log", Short: "Audit log"}
	l.AddCommand(logTailCmd())
	return l
}

func logTailCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show recent log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWedding(cmd.Context(), func(ctx context.Context, e engine.Engine, weddingID string) error {
				entries, _, err := e.Repo.ListLog(ctx, weddingID, n, "")
				if err != nil {
					return err
				}
				return printJSONOrTable(entries)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of entries")
	return cmd
}

// --- serve ---

func serveCmd() *cobra.Command {
	var addr, basePath string
	var corsOrigins []string
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
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("VOWLINE_JWT_SECRET")}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("VOWLINE_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{
				Engine:      e,
				BasePath:    basePath,
				Auth:        authCfg,
				CORSOrigins: corsOrigins,
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
			fmt.Printf("Serving Vowline API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	cmd.Flags().StringSliceVar(&corsOrigins, "cors-origin", nil, "allowed CORS origins")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	return fn(ctx, engine.New(conn, cfg))
}

func withWedding(ctx context.Context, fn func(context.Context, engine.Engine, string) error) error {
	return withEngine(ctx, func(ctx context.Context, e engine.Engine) error {
		weddingID, err := app.ResolveWedding(ctx, viper.GetString("wedding"), e.Repo)
		if err != nil {
			return err
		}
		return fn(ctx, e, weddingID)
	})
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
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

func centsToDollars(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
