// Package cmd provides the root command and CLI setup for auxmark.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"auxmark.dev/pkg/auxmark/internal/adapter"
	"auxmark.dev/pkg/auxmark/internal/domain"
)

var gitAdapter adapter.GitAdapter
var fsAdapter adapter.SourceFSAdapter
var reportStore adapter.ReportStore
var transformer domain.Transformer

var configFileFlag string

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	gitAdapter = adapter.NewLocalGitAdapter()
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	reportStore = adapter.NewReportStore()
	transformer = domain.NewTransformer(gitAdapter, fsAdapter)
}

const rootLongDescription = `auxmark maintains the Markdown content of a Hugo site stored in git.

It scans the tracked Markdown files, lets each enabled module inspect every
line, runs the modules' background work (caching X embeds, downloading
external images) with bounded concurrency, and rewrites the files in place.
Pages that need their own directory are turned into page bundles with
git mv so their history is preserved.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auxmark",
		Short: "Markdown content maintenance pipeline",
		Long:  rootLongDescription,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfigFile(configFileFlag); err != nil {
				return err
			}

			configureLogger("", viper.GetBool(verboseConfigKey))

			return nil
		},
		RunE: runPipeline,
	}
}

func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&configFileFlag, configFlagName, "", "config file (default: ./.auxmark.toml or themes/chaos/.auxmark.toml)")

	cmd.PersistentFlags().BoolP(verboseFlagName, "v", viper.GetBool(verboseConfigKey), "report every decision and job")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), verboseConfigKey)

	configureRunFlags(cmd)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
