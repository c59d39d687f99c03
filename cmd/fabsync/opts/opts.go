package opts

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/walteh/fabsync/pkg/config"
	"github.com/walteh/fabsync/pkg/fabric"
	"github.com/walteh/fabsync/pkg/folders"
	"github.com/walteh/fabsync/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// RootOpts contains shared options used by all commands.
type RootOpts struct {
	Config       *config.Config
	Client       fabric.Client
	Report       *log.Logger
	FolderSettle folders.SettlePolicy
	ItemSettle   folders.SettlePolicy
}

// Flags carries the command-line overrides into Init.
type Flags struct {
	ConfigFile      string
	TargetWorkspace string
	SourceWorkspace string
	RepoPath        string
	Token           string
	Debug           bool
}

// Init resolves the configuration layers (file, env, flags) and builds the
// shared collaborators. Validation of required fields happens per command,
// since commands differ in what they need.
func (o *RootOpts) Init(ctx context.Context, flags Flags) error {
	cfg, err := config.LoadOptional(flags.ConfigFile)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	cfg.ApplyEnv()

	// Flags win over file and env.
	if flags.TargetWorkspace != "" {
		cfg.TargetWorkspaceID = flags.TargetWorkspace
	}
	if flags.SourceWorkspace != "" {
		cfg.SourceWorkspaceID = flags.SourceWorkspace
	}
	if flags.RepoPath != "" {
		cfg.RepoPath = flags.RepoPath
	}
	if flags.Token != "" {
		cfg.Token = flags.Token
	}

	var clientOpts []fabric.Option
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, fabric.WithBaseURL(cfg.BaseURL))
	}

	level := zerolog.InfoLevel
	if flags.Debug {
		level = zerolog.DebugLevel
	}

	o.Config = cfg
	o.Client = fabric.NewClient(cfg.Token, clientOpts...)
	o.Report = log.New(os.Stdout, level)
	o.FolderSettle = folders.DefaultFolderSettle()
	o.ItemSettle = folders.DefaultItemSettle()
	return nil
}
