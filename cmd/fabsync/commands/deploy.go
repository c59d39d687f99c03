package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/fabsync/cmd/fabsync/opts"
	"github.com/walteh/fabsync/pkg/deploy"
	"gitlab.com/tozd/go/errors"
)

// NewDeployCmd creates the deploy command group.
func NewDeployCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Push local artifacts into the target workspace",
	}
	cmd.AddCommand(newDeployNotebooksCmd(ro))
	cmd.AddCommand(newDeployPipelinesCmd(ro))
	return cmd
}

func newDeployNotebooksCmd(ro *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "notebooks",
		Short: "Upsert every local notebook, preserving folder structure",
		Long: `Walks the repo path for exported notebook directories (.platform +
notebook-content.py), recreates their folder hierarchy in the target
workspace, and creates or updates each notebook by display name.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := ro.Config.Validate(false, true); err != nil {
				return errors.Errorf("validating config: %w", err)
			}

			flow := &deploy.Flow{
				Client:       ro.Client,
				Config:       ro.Config,
				Report:       ro.Report,
				FolderSettle: ro.FolderSettle,
				ItemSettle:   ro.ItemSettle,
			}
			if _, err := flow.Notebooks(ctx); err != nil {
				return errors.Errorf("deploying notebooks: %w", err)
			}
			return nil
		},
	}
}

func newDeployPipelinesCmd(ro *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "pipelines",
		Short: "Remap notebook references and upsert every local pipeline",
		Long: `Walks the repo path for exported pipeline directories, fetches each
pipeline's definition from the source workspace, rewrites its notebook
references to the same-named notebooks in the target workspace, and
creates or updates the pipeline there.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := ro.Config.Validate(true, true); err != nil {
				return errors.Errorf("validating config: %w", err)
			}

			flow := &deploy.Flow{
				Client:       ro.Client,
				Config:       ro.Config,
				Report:       ro.Report,
				FolderSettle: ro.FolderSettle,
				ItemSettle:   ro.ItemSettle,
			}
			if _, err := flow.Pipelines(ctx); err != nil {
				return errors.Errorf("deploying pipelines: %w", err)
			}
			return nil
		},
	}
}
