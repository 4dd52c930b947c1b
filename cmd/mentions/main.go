// Command mentions is a terminal dashboard for brand mentions collected
// from social platforms and RSS feeds.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/abelbrown/mentions/internal/classify"
	"github.com/abelbrown/mentions/internal/config"
	"github.com/abelbrown/mentions/internal/fetch"
	"github.com/abelbrown/mentions/internal/filter"
	"github.com/abelbrown/mentions/internal/logging"
	"github.com/abelbrown/mentions/internal/otel"
	"github.com/abelbrown/mentions/internal/store"
	"github.com/abelbrown/mentions/internal/ui"
)

var version = "0.3.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	envFile    string
}

// load reads the env file first so its values can override the config file.
func (o *globalOptions) load() (*config.Config, error) {
	if err := config.LoadEnvFile(o.envFile); err != nil {
		return nil, err
	}
	return config.Load(o.configPath)
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "mentions",
		Short: "Brand mention dashboard",
		Long: "Mentions loads posts from the mentions backend and configured RSS feeds and\n" +
			"shows them as a daily sentiment chart above a filterable post list.",
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runDashboard(cmd.Context(), cfg)
		},
	}
	rootCmd.SetVersionTemplate("mentions version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default ~/.mentions/config.json)")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Env file loaded before the config")

	rootCmd.AddCommand(newOverrideCmd(opts))
	rootCmd.AddCommand(newClassifyCmd(opts))
	rootCmd.AddCommand(newEventsCmd())

	return rootCmd
}

// runDashboard wires the stores and the loaders into the TUI and blocks
// until the user quits.
func runDashboard(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := logging.Init("", cfg.UI.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
	}
	defer logging.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ring := otel.NewRingBuffer(0)
	events := openEvents()
	events.SetRingBuffer(ring)
	events.SetMinLevel(otel.Level(cfg.UI.LogLevel))
	defer events.Close()
	events.Info(otel.KindStartup, "main", "mentions "+version)

	overrides, closeStore := openOverrides(cfg, events)
	defer closeStore()

	classifier := classify.New(overrides)
	engine := filter.New(classifier, filter.Options{
		PageSize:        cfg.Dashboard.PageSize,
		Location:        loc,
		KeywordFallback: cfg.Dashboard.KeywordFallback,
	})
	loader := newLoader(cfg, events)

	m := ui.New(ui.Options{
		Engine:      engine,
		Classifier:  classifier,
		Load:        loader.Load,
		Events:      events,
		Ring:        ring,
		DoubleClick: cfg.DoubleClick(),
		VisibleDays: cfg.UI.VisibleDays,
		Refresh:     cfg.RefreshInterval(),
		ShowDebug:   cfg.UI.ShowDebug,
	})

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
	)
	start := time.Now()
	_, err = p.Run()
	events.Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindShutdown,
		Comp:  "main",
		Dur:   time.Since(start),
	})
	if err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}

// openEvents opens the JSONL event log, falling back to a discarding
// logger so the dashboard still starts on a read-only home directory.
func openEvents() *otel.Logger {
	path, err := otel.DefaultPath()
	if err != nil {
		logging.Warn("Event log disabled", "error", err)
		return otel.NewNullLogger()
	}
	events, err := otel.OpenFile(path)
	if err != nil {
		logging.Warn("Event log disabled", "path", path, "error", err)
		return otel.NewNullLogger()
	}
	return events
}

// openOverrides loads the persistent override layer. When the store cannot
// be opened the dashboard keeps running with memory-only overrides.
func openOverrides(cfg *config.Config, events *otel.Logger) (*classify.Overrides, func()) {
	st, err := openStore(cfg)
	if err != nil {
		logging.Error("Override store unavailable", "error", err)
		events.Error(otel.KindStoreError, "main", err)
		overrides, _ := classify.NewOverrides(nil)
		return overrides, func() {}
	}

	overrides, err := classify.NewOverrides(st)
	if err != nil {
		logging.Error("Failed to load overrides", "error", err)
		events.Error(otel.KindStoreError, "main", err)
	}
	return overrides, func() { st.Close() }
}

func openStore(cfg *config.Config) (*store.Store, error) {
	path := cfg.StorePath
	if path == "" {
		var err error
		if path, err = store.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return store.Open(path)
}

func newLoader(cfg *config.Config, events *otel.Logger) *fetch.Loader {
	loader := &fetch.Loader{Limit: cfg.Backend.PostLimit}
	if cfg.Backend.URL != "" {
		loader.Backend = fetch.NewBackend(fetch.BackendOptions{
			BaseURL: cfg.Backend.URL,
			Token:   cfg.Backend.Token,
			Timeout: cfg.Timeout(),
			Every:   cfg.MinInterval(),
			Events:  events,
		})
	}
	for _, fc := range cfg.EnabledFeeds() {
		loader.Feeds = append(loader.Feeds, fetch.NewFeedSource(fc, cfg.Timeout(), events))
	}
	return loader
}
