package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"auxmark.dev/pkg/auxmark/internal/controller"
	"auxmark.dev/pkg/auxmark/internal/detectors/imagelocal"
	"auxmark.dev/pkg/auxmark/internal/detectors/xembed"
	"auxmark.dev/pkg/auxmark/internal/domain"
	m "auxmark.dev/pkg/auxmark/internal/model"
)

const moduleAliasHelp = "tweet, x (tweet_downloader), image (image_localizer)"

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP(dryRunFlagName, "n", viper.GetBool(dryRunConfigKey), "preview changes without writing, renaming or downloading")
	bindFlagToConfig(cmd.Flags().Lookup(dryRunFlagName), dryRunConfigKey)

	cmd.Flags().StringSliceP(moduleFlagName, "m", viper.GetStringSlice(moduleSelectKey), "modules to run, repeatable or comma separated; aliases: "+moduleAliasHelp)
	bindFlagToConfig(cmd.Flags().Lookup(moduleFlagName), moduleSelectKey)

	cmd.Flags().IntP(parallelFlagName, "p", viper.GetInt(maxWorkersKey), "maximum number of concurrent jobs")
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), maxWorkersKey)

	cmd.Flags().Float64(rateLimitFlagName, viper.GetFloat64(rateLimitDelayKey), "minimum seconds between job starts")
	bindFlagToConfig(cmd.Flags().Lookup(rateLimitFlagName), rateLimitDelayKey)

	cmd.Flags().String(reportFlagName, viper.GetString(reportPathKey), "write a YAML run report to this path")
	bindFlagToConfig(cmd.Flags().Lookup(reportFlagName), reportPathKey)
}

// runPipeline runs one maintenance pass over the repository containing the
// working directory.
func runPipeline(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	runID := uuid.NewString()
	slog.SetDefault(slog.Default().With("run_id", runID))

	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	scanner := domain.NewScanner(gitAdapter, fsAdapter, viper.GetString(extensionConfigKey))

	root, err := scanner.Root(ctx, m.Path(dir))
	if err != nil {
		return err
	}

	loaded, err := readRepositoryConfig(viper.GetViper(), root)
	if err != nil {
		return err
	}

	if loaded {
		configureLogger("", viper.GetBool(verboseConfigKey))
		slog.SetDefault(slog.Default().With("run_id", runID))

		scanner = domain.NewScanner(gitAdapter, fsAdapter, viper.GetString(extensionConfigKey))
	}

	registry, err := selectDetectors(cmd, root, viper.GetStringSlice(moduleSelectKey))
	if err != nil {
		return err
	}

	verbose := viper.GetBool(verboseConfigKey)
	dryRun := viper.GetBool(dryRunConfigKey)
	interactive := controller.IsTTY(cmd.OutOrStdout()) && !verbose && !dryRun

	workflow := domain.NewWorkflow(scanner, transformer, fsAdapter, controller.NewUI(cmd, interactive), registry)

	summary, err := workflow.Run(ctx, domain.RunArgs{
		Root:           root,
		RunID:          runID,
		DryRun:         dryRun,
		Verbose:        verbose,
		MaxWorkers:     viper.GetInt(maxWorkersKey),
		RateLimitDelay: rateLimitDelay(),
	})
	if err != nil {
		return err
	}

	if reportPath := viper.GetString(reportPathKey); reportPath != "" {
		if err := reportStore.SaveReport(m.Path(reportPath), summary); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if failed := domain.CountWriteFailures(summary); failed > 0 {
		return fmt.Errorf("%d file(s) could not be written or renamed", failed)
	}

	return nil
}

// catalogEntry describes one available detector.
type catalogEntry struct {
	detector    domain.Detector
	description string
	enabled     bool
}

func detectorCatalog(root m.Path) ([]catalogEntry, error) {
	tweetCfg, err := tweetConfig()
	if err != nil {
		return nil, err
	}

	imageCfg, err := imageConfig()
	if err != nil {
		return nil, err
	}

	return []catalogEntry{
		{
			detector:    xembed.New(root, tweetCfg, fsAdapter),
			description: "Cache X/Twitter embeds locally",
			enabled:     tweetCfg.Enabled,
		},
		{
			detector:    imagelocal.New(imageCfg, fsAdapter),
			description: "Download external images into page bundles",
			enabled:     imageCfg.Enabled,
		},
	}, nil
}

// selectDetectors builds the registry for a run. Without an explicit
// selection only enabled modules run; an explicit selection may name any
// module.
func selectDetectors(cmd *cobra.Command, root m.Path, requested []string) (*domain.Registry, error) {
	catalog, err := detectorCatalog(root)
	if err != nil {
		return nil, err
	}

	var detectors []domain.Detector

	for _, entry := range catalog {
		if entry.enabled || len(requested) > 0 {
			detectors = append(detectors, entry.detector)
		}
	}

	if len(detectors) == 0 {
		return nil, fmt.Errorf("no modules are enabled")
	}

	registry, err := domain.NewRegistry(detectors...)
	if err != nil {
		return nil, err
	}

	selected, unknown, err := registry.Select(requested)
	if len(unknown) > 0 {
		slog.Warn("Unknown modules requested", "modules", unknown)
		cmd.PrintErrf("Warning: unknown module(s) %s (available: %s)\n", strings.Join(unknown, ", "), strings.Join(registry.Names(), ", "))
	}

	if err != nil {
		return nil, err
	}

	slog.Info("Active modules", "modules", selected.Names())

	return selected, nil
}
