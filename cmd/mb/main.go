package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"missionboard/internal/app"
	"missionboard/internal/config"
	"missionboard/internal/discovery"
	"missionboard/internal/domain"
	"missionboard/internal/engine"
	"missionboard/internal/repo"
	"missionboard/internal/server"
)

var logger = zap.NewNop()

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mb",
		Short: "Mission board CLI",
		Long: `mb browses the mission marketplace: search and filter missions, inspect
rewards and payouts, resolve mission illustrations and serve the HTTP API.

Data comes from the embedded seed set unless --seed-dir points elsewhere.
Board settings (page size, taxonomy, image sets) come from missionboard.yml
when present.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			switch {
			case viper.GetBool("verbose"):
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			case cmd.Name() == "serve":
				cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
			default:
				cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			}
			l, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	cobra.OnInitialize(initConfig)
	addPersistentFlags(root)
	root.AddCommand(missionsCmd())
	root.AddCommand(homeCmd())
	root.AddCommand(taxonomyCmd())
	root.AddCommand(imageCmd())
	root.AddCommand(paymentsCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(configCmd())
	root.AddCommand(serveCmd())
	return root
}

func initConfig() {
	viper.SetEnvPrefix("MISSIONBOARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags(root *cobra.Command) {
	root.PersistentFlags().StringP("config", "c", "", "config file, or directory holding "+config.FileName)
	root.PersistentFlags().String("seed-dir", "", "directory with missions.yaml, payments.yaml and stats.yaml")
	root.PersistentFlags().Bool("json", false, "output JSON")
	root.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
	_ = viper.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("seed-dir", root.PersistentFlags().Lookup("seed-dir"))
	_ = viper.BindPFlag("json", root.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
}

func missionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "missions",
		Aliases: []string{"m"},
		Short:   "Browse missions",
	}
	cmd.AddCommand(missionsListCmd())
	cmd.AddCommand(missionsShowCmd())
	return cmd
}

func missionsListCmd() *cobra.Command {
	var (
		f                      discovery.Query
		status, typ, diff, srt string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search, filter, sort and paginate missions",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := discovery.NewQuery().
				WithSearch(f.Search).
				WithCategory(f.Category).
				WithStatus(domain.MissionStatus(status)).
				WithType(domain.MissionType(typ)).
				WithDifficulty(domain.Difficulty(diff)).
				WithMainCategory(f.MainCategory).
				WithSubcategory(f.Subcategory)
			if srt != "" {
				k, ok := discovery.ParseSortKey(srt)
				if !ok {
					return fmt.Errorf("unknown sort %q (newest, highest_reward, nearest_deadline)", srt)
				}
				q = q.WithSort(k)
			}
			q = q.WithPage(f.Page)
			q.PageSize = f.PageSize
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				l, err := e.Discover(ctx, q)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if viper.GetBool("json") {
					return printJSON(out, l)
				}
				renderCards(out, l.Items, e.Config.Board.Currency)
				fmt.Fprintln(out, rangeLine(l))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&f.Search, "search", "s", "", "text matched against title, description and tags")
	cmd.Flags().StringVar(&f.Category, "category", "", "exact mission category")
	cmd.Flags().StringVar(&status, "status", "", "open, in_progress, completed or cancelled")
	cmd.Flags().StringVar(&typ, "type", "", "short or long")
	cmd.Flags().StringVar(&diff, "difficulty", "", "easy, medium, hard (or beginner, intermediate, expert)")
	cmd.Flags().StringVar(&f.MainCategory, "main-category", "", "taxonomy main category id")
	cmd.Flags().StringVar(&f.Subcategory, "subcategory", "", "taxonomy specialty label")
	cmd.Flags().StringVar(&srt, "sort", "", "newest, highest_reward or nearest_deadline")
	cmd.Flags().IntVarP(&f.Page, "page", "p", 1, "page number")
	cmd.Flags().IntVar(&f.PageSize, "page-size", 0, "page size (defaults to board.page_size)")
	return cmd
}

func rangeLine(l engine.Listing) string {
	if l.TotalCount == 0 {
		return "No missions match."
	}
	if len(l.Items) == 0 {
		return fmt.Sprintf("Page %d is past the last page (%d) of %d missions.", l.Page, l.TotalPages, l.TotalCount)
	}
	return fmt.Sprintf("Showing %d-%d of %d (page %d/%d)", l.RangeStart+1, l.RangeEnd, l.TotalCount, l.Page, l.TotalPages)
}

func renderCards(out io.Writer, cards []engine.MissionCard, currency string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(table.Row{"ID", "Title", "Category", "Reward", "Status", "Level", "Deadline", "Spots"})
	for _, c := range cards {
		tw.AppendRow(table.Row{
			c.ID,
			c.Title,
			c.Category,
			fmt.Sprintf("%.2f %s", c.Reward, currency),
			c.Status,
			c.DifficultyLabel,
			c.Deadline.Format("2006-01-02"),
			fmt.Sprintf("%d/%d", c.CurrentCandidates, c.MaxCandidates),
		})
	}
	tw.Render()
}

func missionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a mission with payout, steps and related missions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, err := e.Mission(ctx, args[0])
				if errors.Is(err, repo.ErrNotFound) {
					return fmt.Errorf("mission %s not found", args[0])
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if viper.GetBool("json") {
					return printJSON(out, d)
				}
				cur := e.Config.Board.Currency
				m := d.Mission
				tw := table.NewWriter()
				tw.SetOutputMirror(out)
				tw.AppendRows([]table.Row{
					{"ID", m.ID},
					{"Title", m.Title},
					{"Category", m.Category},
					{"Tags", strings.Join(m.Tags, ", ")},
					{"Status", m.Status},
					{"Type", m.Type},
					{"Difficulty", m.DifficultyLabel},
					{"Deadline", m.Deadline.Format(time.RFC3339)},
					{"Candidates", fmt.Sprintf("%d/%d (%d left)", m.CurrentCandidates, m.MaxCandidates, m.SpotsLeft)},
					{"Immediate payout", fmt.Sprintf("%.2f %s", d.Payout.Immediate, cur)},
					{"Deferred payout", fmt.Sprintf("%.2f %s (+%.0f%%)", d.Payout.Deferred, cur, d.Payout.BonusPercentage)},
					{"Image", m.ImageURL},
				})
				tw.Render()
				if m.Description != "" {
					fmt.Fprintln(out, m.Description)
				}
				if len(m.Steps) > 0 {
					st := table.NewWriter()
					st.SetOutputMirror(out)
					st.SetTitle(fmt.Sprintf("Steps %d/%d done", d.Steps.Completed, d.Steps.Total))
					st.AppendHeader(table.Row{"#", "Step", "Reward", "Status", "Deadline"})
					for i, s := range m.Steps {
						st.AppendRow(table.Row{i + 1, s.Title, fmt.Sprintf("%.2f", s.Reward), s.Status, s.Deadline.Format("2006-01-02")})
					}
					st.Render()
				}
				if len(d.Related) > 0 {
					fmt.Fprintln(out, "Related:")
					renderCards(out, d.Related, cur)
				}
				return nil
			})
		},
	}
}

func homeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show the landing page summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				h, err := e.Home(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if viper.GetBool("json") {
					return printJSON(out, h)
				}
				fmt.Fprintf(out, "%s: %d missions, %d open, %d active users, %.2f %s paid\n",
					h.Board, h.Stats.TotalMissions, h.Stats.OpenMissions, h.Stats.ActiveUsers, h.Stats.TotalRewardsPaid, h.Currency)
				fmt.Fprintln(out, "Featured:")
				renderCards(out, h.Featured, h.Currency)
				fmt.Fprintln(out, "Latest:")
				renderCards(out, h.Latest, h.Currency)
				ct := table.NewWriter()
				ct.SetOutputMirror(out)
				ct.AppendHeader(table.Row{"Category", "Missions"})
				for _, c := range h.Categories {
					ct.AppendRow(table.Row{c.Name, c.Count})
				}
				ct.Render()
				return nil
			})
		},
	}
}

func taxonomyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "taxonomy",
		Short: "List main categories and specialty labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cats := e.Taxonomy()
				out := cmd.OutOrStdout()
				if viper.GetBool("json") {
					return printJSON(out, cats)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(out)
				tw.AppendHeader(table.Row{"ID", "Name", "Specialties"})
				for _, c := range cats {
					tw.AppendRow(table.Row{c.ID, c.Name, strings.Join(c.Subcategories, ", ")})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func imageCmd() *cobra.Command {
	var category, title string
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Resolve the illustration URL for a category and title",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(viper.GetString("config"))
			if err != nil {
				return err
			}
			e, err := engine.New(repo.Repo{}, cfg, logger)
			if err != nil {
				return err
			}
			url := e.ResolveImage(category, title)
			out := cmd.OutOrStdout()
			if viper.GetBool("json") {
				return printJSON(out, server.ImageResponse{
					Category: category,
					Title:    title,
					URL:      url,
					Fallback: !e.Images.Known(category),
				})
			}
			fmt.Fprintln(out, url)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "mission category")
	cmd.Flags().StringVar(&title, "title", "", "mission title")
	return cmd
}

func paymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Inspect reward payments",
	}
	cmd.AddCommand(paymentsListCmd())
	return cmd
}

func paymentsListCmd() *cobra.Command {
	var f repo.PaymentFilters
	var status, typ string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List payments, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Status = domain.PaymentStatus(status)
			f.Type = domain.PaymentType(typ)
			if f.Status != "" && !f.Status.Valid() {
				return fmt.Errorf("invalid status %q (pending, completed, failed)", status)
			}
			if f.Type != "" && !f.Type.Valid() {
				return fmt.Errorf("invalid type %q (immediate, deferred)", typ)
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				ps, err := e.Payments(ctx, f)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if viper.GetBool("json") {
					return printJSON(out, ps)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(out)
				tw.AppendHeader(table.Row{"ID", "Mission", "User", "Amount", "Type", "Status", "Unlocked", "Created"})
				for _, p := range ps {
					tw.AppendRow(table.Row{
						p.ID, p.MissionID, p.UserID,
						fmt.Sprintf("%.2f %s", p.Amount, e.Config.Board.Currency),
						p.Type, p.Status, p.Unlocked, p.CreatedAt.Format("2006-01-02"),
					})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.UserID, "user", "", "recipient user id")
	cmd.Flags().StringVar(&f.MissionID, "mission", "", "mission id")
	cmd.Flags().StringVar(&status, "status", "", "pending, completed or failed")
	cmd.Flags().StringVar(&typ, "type", "", "immediate or deferred")
	return cmd
}

func statsCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show board statistics, or one contributor's with --user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				out := cmd.OutOrStdout()
				if userID != "" {
					s, err := e.UserStats(ctx, userID)
					if errors.Is(err, repo.ErrNotFound) {
						return fmt.Errorf("no stats for user %s", userID)
					}
					if err != nil {
						return err
					}
					return printJSONOrTable(out, s, []table.Row{
						{"User", s.UserID},
						{"Rank", s.Rank},
						{"Completed", s.CompletedMissions},
						{"In progress", s.InProgressMissions},
						{"Earned", s.TotalEarned},
						{"Pending", s.PendingRewards},
						{"Success rate", fmt.Sprintf("%.1f%%", s.SuccessRate)},
					})
				}
				s, err := e.DashboardStats(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(out, s, []table.Row{
					{"Missions", s.TotalMissions},
					{"Open", s.OpenMissions},
					{"Active users", s.ActiveUsers},
					{"Rewards paid", s.TotalRewardsPaid},
					{"Average reward", s.AverageReward},
					{"Completion rate", fmt.Sprintf("%.2f%%", s.CompletionRate)},
				})
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "contributor id")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect board config",
		Long:  "Config sets the board name and currency, listing page size, API address, the main category taxonomy and the curated image sets. Generate a starting file with 'mb config default > missionboard.yml'.",
	}
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configDefaultCmd())
	return cfg
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(viper.GetString("config"))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cfg)
		},
	}
}

func configDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default",
		Short: "Print the default config as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), config.GenerateDefault())
			return err
		},
	}
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cfg, err := app.Build(appOptions())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") && cfg.Server.Addr != "" {
				addr = cfg.Server.Addr
			}
			if !cmd.Flags().Changed("base-path") && cfg.Server.BasePath != "" {
				basePath = cfg.Server.BasePath
			}
			handler, err := server.New(server.Config{
				Engine:      e,
				BasePath:    basePath,
				CORSOrigins: cfg.Server.CORSOrigins,
				Logger:      logger,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "Serving mission board API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

func appOptions() app.Options {
	return app.Options{
		ConfigPath: viper.GetString("config"),
		SeedDir:    viper.GetString("seed-dir"),
		Logger:     logger,
	}
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	e, _, err := app.Build(appOptions())
	if err != nil {
		return err
	}
	return fn(ctx, e)
}

func printJSONOrTable(out io.Writer, v any, rows []table.Row) error {
	if viper.GetBool("json") {
		return printJSON(out, v)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendRows(rows)
	tw.Render()
	return nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
