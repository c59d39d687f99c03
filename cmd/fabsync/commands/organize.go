package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/fabsync/cmd/fabsync/opts"
	"github.com/walteh/fabsync/pkg/organize"
	"gitlab.com/tozd/go/errors"
)

// NewOrganizeCmd creates the organize command group.
func NewOrganizeCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Place workspace items into a folder hierarchy",
	}
	cmd.AddCommand(newOrganizeMappingCmd(ro))
	cmd.AddCommand(newOrganizeSourceCmd(ro))
	return cmd
}

func newOrganizeMappingCmd(ro *opts.RootOpts) *cobra.Command {
	var mappingFile string

	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Organize items by a declarative mapping file",
		Long: `Reads a JSON array of {"itemName": ..., "folderPath": ...} records and
moves each named workspace item into its folder path, creating missing
folders along the way.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := ro.Config.Validate(false, false); err != nil {
				return errors.Errorf("validating config: %w", err)
			}

			flow := &organize.Flow{
				Client:       ro.Client,
				Config:       ro.Config,
				Report:       ro.Report,
				FolderSettle: ro.FolderSettle,
			}
			if _, err := flow.ByMapping(ctx, mappingFile); err != nil {
				return errors.Errorf("organizing by mapping: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mappingFile, "file", "", "path to JSON mapping file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newOrganizeSourceCmd(ro *opts.RootOpts) *cobra.Command {
	var sourceDir string

	cmd := &cobra.Command{
		Use:   "source",
		Short: "Organize items by mirroring a local directory structure",
		Long: `Scans a local export for notebook directories and moves each same-named
workspace item into the folder path matching the directory's location.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := ro.Config.Validate(false, false); err != nil {
				return errors.Errorf("validating config: %w", err)
			}

			flow := &organize.Flow{
				Client:       ro.Client,
				Config:       ro.Config,
				Report:       ro.Report,
				FolderSettle: ro.FolderSettle,
			}
			if _, err := flow.BySource(ctx, sourceDir); err != nil {
				return errors.Errorf("organizing by source structure: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceDir, "dir", "", "path to source directory")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}
