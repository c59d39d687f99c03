package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/fabsync/cmd/fabsync/commands"
	"github.com/walteh/fabsync/cmd/fabsync/opts"
)

var (
	// Flags
	configFile      string
	debug           bool
	targetWorkspace string
	sourceWorkspace string
	repoPath        string
	token           string
)

func newRootCmd() *cobra.Command {
	ro := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:   "fabsync",
		Short: "Migrate and organize Fabric workspace artifacts",
		Long: `fabsync pushes locally exported Fabric artifacts (data pipelines,
notebooks) into a target workspace and organizes workspace items into a
folder hierarchy matching the local directory structure.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			return ro.Init(cmd.Context(), opts.Flags{
				ConfigFile:      configFile,
				TargetWorkspace: targetWorkspace,
				SourceWorkspace: sourceWorkspace,
				RepoPath:        repoPath,
				Token:           token,
				Debug:           debug,
			})
		},
	}

	addRootFlags(cmd)
	cmd.AddCommand(commands.NewDeployCmd(ro))
	cmd.AddCommand(commands.NewOrganizeCmd(ro))
	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", ".fabsync.yaml", "config file path")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&targetWorkspace, "target-workspace", "", "target workspace id")
	cmd.PersistentFlags().StringVar(&sourceWorkspace, "source-workspace", "", "source workspace id")
	cmd.PersistentFlags().StringVar(&repoPath, "repo-path", "", "root of the local artifact export")
	cmd.PersistentFlags().StringVar(&token, "token", "", "authentication token")
}

// setupLogging configures zerolog based on flags
func setupLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
}
