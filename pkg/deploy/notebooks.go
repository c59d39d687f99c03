package deploy

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/walteh/fabsync/pkg/config"
	"github.com/walteh/fabsync/pkg/fabric"
	"github.com/walteh/fabsync/pkg/folders"
	"github.com/walteh/fabsync/pkg/inventory"
	"github.com/walteh/fabsync/pkg/log"
	"github.com/walteh/fabsync/pkg/scan"
	"gitlab.com/tozd/go/errors"
)

// Flow bundles the collaborators the deploy flows run against. One Flow is
// built per invocation; nothing in it persists across runs.
type Flow struct {
	Client       fabric.Client
	Config       *config.Config
	Report       *log.Logger
	FolderSettle folders.SettlePolicy
	ItemSettle   folders.SettlePolicy
}

// Notebooks discovers every exported notebook under the repo path and
// upserts it into the target workspace, recreating the local directory
// structure as workspace folders. Per-artifact failures are logged and do
// not stop the batch.
func (f *Flow) Notebooks(ctx context.Context) (map[string]int, error) {
	logger := zerolog.Ctx(ctx)
	ws := f.Config.TargetWorkspaceID

	f.Report.StartRun("deploying notebooks to workspace " + ws)

	// One listing feeds both the notebook inventory and the folder memo.
	items, err := f.Client.ListItems(ctx, ws)
	if err != nil {
		logger.Error().Err(err).Str("workspace", ws).Msg("listing target workspace failed, continuing with empty inventory")
		items = nil
	}
	notebooks := inventory.New(ctx, ws, fabric.TypeNotebook, items)
	memo := inventory.New(ctx, ws, fabric.TypeFolder, items).FolderMemo()

	scanner := &scan.Scanner{
		Root:           f.Config.RepoPath,
		ContentFile:    scan.NotebookContentFile,
		IgnorePatterns: f.Config.IgnorePatterns,
	}
	artifacts, err := scanner.Scan(ctx)
	if err != nil {
		return nil, errors.Errorf("scanning for notebooks: %w", err)
	}

	ensurer := &folders.Ensurer{Client: f.Client, WorkspaceID: ws, Settle: f.FolderSettle}
	deployer := &Deployer{Client: f.Client, Report: f.Report, Settle: f.ItemSettle}

	for _, artifact := range artifacts {
		f.deployNotebook(ctx, deployer, ensurer, notebooks, memo, artifact)
	}

	return f.Report.FinishRun(), nil
}

func (f *Flow) deployNotebook(ctx context.Context, deployer *Deployer, ensurer *folders.Ensurer, notebooks *inventory.Inventory, memo map[string]string, artifact scan.Artifact) {
	logger := zerolog.Ctx(ctx)
	req := UpsertRequest{
		ItemType:    fabric.TypeNotebook,
		DisplayName: artifact.DisplayName,
		FolderPath:  artifact.RelPath,
	}

	// Folder placement is best-effort: a failed path resolution skips the
	// placement, not the notebook.
	if artifact.RelPath != "" {
		folderID, err := ensurer.EnsurePath(ctx, artifact.RelPath, memo)
		if err != nil {
			logger.Warn().Err(err).Str("notebook", artifact.DisplayName).Str("path", artifact.RelPath).
				Msg("folder path could not be created, deploying without placement")
		} else {
			req.ParentFolderID = folderID
		}
	}

	sidecar, err := os.ReadFile(artifact.SidecarPath())
	if err != nil {
		deployer.Skip(req, "reading sidecar: "+err.Error())
		return
	}
	content, err := os.ReadFile(artifact.ContentPath(scan.NotebookContentFile))
	if err != nil {
		deployer.Skip(req, "reading content: "+err.Error())
		return
	}

	req.Parts = []fabric.DefinitionPart{
		fabric.NewInlineBase64Part(scan.NotebookContentFile, content),
		fabric.NewInlineBase64Part(scan.SidecarFile, sidecar),
	}

	deployer.Upsert(ctx, notebooks, req)
}
