package main

import (
	"os"
	"strings"

	"github.com/omnipm/omnipm/pkg/cmd"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Globals for Debug logging flag and version reporting.
var (
	debug   bool
	version string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "omnipm",
		Short: "Omnipm",
		Long:  "Omnipm: one front end for the system and application package managers",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debug {
				log.SetLevel(log.DebugLevel)
			}
		},
		RunE: func(c *cobra.Command, _ []string) error {
			return c.Usage()
		},
		SilenceUsage: true,
		Version:      version,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&debug, "debug", false, "enable debug level logging")

	rootCmd.AddCommand(
		cmd.NewListCmd(),
		cmd.NewUpdatesCmd(),
		cmd.NewCountCmd(),
		cmd.NewSearchCmd(),
		cmd.NewInstallCmd(),
		cmd.NewUpgradeCmd(),
		cmd.NewRemoveCmd(),
		cmd.NewDetectCmd(),
	)
	return rootCmd
}

func initConfig() {
	viper.SetEnvPrefix("omnipm")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func main() {
	cobra.OnInitialize(initConfig)
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		log.Errorf("Error: %v", err)
		os.Exit(1)
	}
}
