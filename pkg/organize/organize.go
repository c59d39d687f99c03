// Package organize places existing workspace items into a folder
// hierarchy, either driven by a declarative mapping file or by mirroring
// the structure of a local export. It never creates or modifies items,
// only folders and parent-folder attributes.
package organize

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/fabsync/pkg/config"
	"github.com/walteh/fabsync/pkg/fabric"
	"github.com/walteh/fabsync/pkg/folders"
	"github.com/walteh/fabsync/pkg/inventory"
	"github.com/walteh/fabsync/pkg/log"
	"github.com/walteh/fabsync/pkg/scan"
	"gitlab.com/tozd/go/errors"
)

// Flow bundles the collaborators of one organize run.
type Flow struct {
	Client       fabric.Client
	Config       *config.Config
	Report       *log.Logger
	FolderSettle folders.SettlePolicy
}

// ByMapping moves workspace items into folders according to a JSON mapping
// file of {itemName, folderPath} records. Items the workspace doesn't have
// are reported and skipped; a record with an empty folderPath leaves its
// item alone.
func (f *Flow) ByMapping(ctx context.Context, mappingPath string) (map[string]int, error) {
	ws := f.Config.TargetWorkspaceID

	mappings, err := config.LoadFolderMappings(mappingPath)
	if err != nil {
		return nil, errors.Errorf("loading folder mappings: %w", err)
	}

	f.Report.StartRun("organizing workspace " + ws + " by mapping file")

	items, memo := f.listWorkspace(ctx, ws)
	ensurer := &folders.Ensurer{Client: f.Client, WorkspaceID: ws, Settle: f.FolderSettle}

	for _, mapping := range mappings {
		f.placeByName(ctx, ensurer, items, memo, mapping.ItemName, mapping.FolderPath)
	}

	return f.Report.FinishRun(), nil
}

// BySource mirrors a local export's directory structure onto the workspace
// folder hierarchy: every notebook directory found locally has its
// same-named workspace item moved into the matching folder path.
func (f *Flow) BySource(ctx context.Context, dir string) (map[string]int, error) {
	ws := f.Config.TargetWorkspaceID

	f.Report.StartRun("organizing workspace " + ws + " from " + dir)

	items, memo := f.listWorkspace(ctx, ws)
	ensurer := &folders.Ensurer{Client: f.Client, WorkspaceID: ws, Settle: f.FolderSettle}

	scanner := &scan.Scanner{
		Root:           dir,
		ContentFile:    scan.NotebookContentFile,
		IgnorePatterns: f.Config.IgnorePatterns,
	}
	artifacts, err := scanner.Scan(ctx)
	if err != nil {
		return nil, errors.Errorf("scanning source structure: %w", err)
	}

	for _, artifact := range artifacts {
		f.placeByName(ctx, ensurer, items, memo, artifact.DisplayName, artifact.RelPath)
	}

	return f.Report.FinishRun(), nil
}

// listWorkspace lists the target workspace once, yielding the untyped item
// inventory and the folder memo. A listing failure degrades to empty.
func (f *Flow) listWorkspace(ctx context.Context, ws string) (*inventory.Inventory, map[string]string) {
	listing, err := f.Client.ListItems(ctx, ws)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("workspace", ws).Msg("listing workspace failed, continuing with empty inventory")
		listing = nil
	}
	items := inventory.New(ctx, ws, "", listing)
	memo := inventory.New(ctx, ws, fabric.TypeFolder, listing).FolderMemo()
	return items, memo
}

// placeByName ensures the folder path and moves every workspace item with
// the given display name into it.
func (f *Flow) placeByName(ctx context.Context, ensurer *folders.Ensurer, items *inventory.Inventory, memo map[string]string, itemName, folderPath string) {
	logger := zerolog.Ctx(ctx)

	matching := items.AllByName(itemName)
	// Folders list as items too; moving a folder into itself makes no sense.
	matching = withoutFolders(matching)
	if len(matching) == 0 {
		f.report(itemName, "", folderPath, "skipped", "not found in workspace")
		return
	}

	if folderPath == "" {
		f.report(itemName, matching[0].Type, folderPath, "skipped", "no folder path specified")
		return
	}

	folderID, err := ensurer.EnsurePath(ctx, folderPath, memo)
	if err != nil {
		logger.Warn().Err(err).Str("item", itemName).Str("path", folderPath).Msg("folder path could not be created")
		f.report(itemName, matching[0].Type, folderPath, "skipped", "folder path could not be created")
		return
	}

	for _, item := range matching {
		if err := f.Client.MoveItemToFolder(ctx, items.WorkspaceID(), item, folderID); err != nil {
			logger.Error().Err(err).Str("item", item.DisplayName).Str("id", item.ID).Msg("moving item failed")
			f.report(itemName, item.Type, folderPath, "failed", err.Error())
			continue
		}
		f.report(itemName, item.Type, folderPath, "moved", "")
	}
}

func withoutFolders(items []fabric.Item) []fabric.Item {
	out := items[:0:0]
	for _, item := range items {
		if item.Type != fabric.TypeFolder {
			out = append(out, item)
		}
	}
	return out
}

func (f *Flow) report(name, itemType, folderPath, outcome, detail string) {
	f.Report.LogArtifact(log.ArtifactOperation{
		Name:       name,
		Type:       itemType,
		FolderPath: folderPath,
		Outcome:    outcome,
		Detail:     detail,
	})
}
