package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"xtractor/pkg/config"
	"xtractor/pkg/logger"
	"xtractor/pkg/models"
	"xtractor/pkg/scraper"
	"xtractor/pkg/ui"
)

var (
	// Run command flags
	targetCount int
	headless    bool
	outputDir   string
	randomSeed  int64
	assumeYes   bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <topic> [topic...]",
	Short: "Collect posts for one or more topics",
	Long: `Collect posts from each topic's chronological feed.

Topics are processed strictly in sequence through a single browser
window. The first run requires an interactive login; afterwards the
saved session is reused until it expires.`,
	Example: `  # Collect 50 posts each for two topics
  xtractor run golang rustlang

  # Collect 200 posts per topic into a custom directory
  xtractor run golang --count 200 --output ./data

  # Headless run without the confirmation prompt
  xtractor run golang --headless --yes`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVarP(&targetCount, "count", "n", 0, "target posts per topic (default from config)")
	runCmd.Flags().BoolVar(&headless, "headless", false, "run the browser without a window")
	runCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for collected data")
	runCmd.Flags().Int64Var(&randomSeed, "seed", 0, "randomness seed for reproducible behavior (0 = time-seeded)")
	runCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
}

func runCollect(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	if targetCount > 0 {
		flags["count"] = targetCount
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if randomSeed != 0 {
		flags["seed"] = randomSeed
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logging", err.Error())
		return err
	}
	logger.WithField("version", version).Info("Starting up")

	topics := make([]models.Topic, 0, len(args))
	seen := make(map[string]struct{})
	for _, arg := range args {
		topic := models.NewTopic(arg, cfg.Scrape.TargetPerTopic)
		if topic.Tag == "" {
			continue
		}
		if _, dup := seen[topic.Tag]; dup {
			continue
		}
		seen[topic.Tag] = struct{}{}
		topics = append(topics, topic)
	}
	if len(topics) == 0 {
		return errors.New("no usable topics given")
	}

	tags := make([]string, len(topics))
	for i, t := range topics {
		tags[i] = "#" + t.Tag
	}
	ui.PrintInfo("Topics", strings.Join(tags, " "))
	ui.PrintInfo("Posts per topic", fmt.Sprintf("%d", cfg.Scrape.TargetPerTopic))
	ui.PrintInfo("Output directory", cfg.Output.BaseDirectory)

	if !assumeYes {
		ok, err := ui.Confirm("Proceed with collection?")
		if err != nil {
			return err
		}
		if !ok {
			ui.PrintWarning("Aborted")
			return nil
		}
	}

	// Ctrl-C cancels the run; the session is saved on the way out
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := scraper.New(cfg)
	summary, err := s.Run(ctx, topics)

	if summary != nil {
		printSummary(summary)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			ui.PrintWarning("Run interrupted, partial results were saved")
			return nil
		}
		logger.WithError(err).Error("Run failed")
		ui.PrintError("COLLECTION FAILED", err.Error())
		return err
	}

	ui.PrintSuccess("[COLLECTION COMPLETED]")
	return nil
}

func printSummary(summary *scraper.RunSummary) {
	if len(summary.Outcomes) == 0 {
		return
	}

	fmt.Println()
	for _, o := range summary.Outcomes {
		ui.PrintInfo("#"+o.Topic.Tag, fmt.Sprintf("%d posts (%s, %d scrolls)",
			o.Collected, o.Reason, o.ScrollAttempts))
		if o.CSVPath != "" {
			fmt.Println(ui.Dim("  " + o.CSVPath))
		}
	}
	ui.PrintHighlight(fmt.Sprintf("Total: %d posts in %s",
		summary.TotalCollected(), summary.Finished.Sub(summary.Started).Round(time.Second)))
}
