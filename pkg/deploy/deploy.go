// Package deploy pushes locally discovered artifacts into a target
// workspace. Each artifact is either created (name absent from the target
// inventory) or has its definition replaced (name present). Failures are
// per-artifact: they are logged and the batch continues.
package deploy

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/walteh/fabsync/pkg/fabric"
	"github.com/walteh/fabsync/pkg/folders"
	"github.com/walteh/fabsync/pkg/inventory"
	"github.com/walteh/fabsync/pkg/log"
)

// Outcome is the terminal state of one artifact within a run.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Deployer decides create vs update per artifact and issues the calls.
type Deployer struct {
	Client fabric.Client
	Report *log.Logger
	// Settle is the wait after a successful creation, before the next
	// dependent call.
	Settle folders.SettlePolicy
}

// UpsertRequest carries everything needed to push one artifact.
type UpsertRequest struct {
	ItemType       string
	DisplayName    string
	FolderPath     string // for reporting only
	Parts          []fabric.DefinitionPart
	ParentFolderID string // only honored on the create path
}

// Upsert pushes one artifact into the target workspace. The decision is
// keyed purely on the presence of the display name in the target
// inventory. Returns the artifact's terminal outcome; errors are absorbed
// into OutcomeFailed after logging.
func (d *Deployer) Upsert(ctx context.Context, target *inventory.Inventory, req UpsertRequest) Outcome {
	logger := zerolog.Ctx(ctx)
	def := &fabric.ItemDefinition{Parts: req.Parts}

	if existing, ok := target.ByName(req.DisplayName); ok {
		if err := d.Client.UpdateItemDefinition(ctx, target.WorkspaceID(), existing.ID, def); err != nil {
			logger.Error().Err(err).Str("item", req.DisplayName).Str("id", existing.ID).Msg("updating item definition failed")
			d.report(req, OutcomeFailed, err.Error())
			return OutcomeFailed
		}
		d.report(req, OutcomeUpdated, "")
		return OutcomeUpdated
	}

	created, err := d.Client.CreateItem(ctx, target.WorkspaceID(), fabric.CreateItemRequest{
		Type:           req.ItemType,
		DisplayName:    req.DisplayName,
		Description:    describe(req.ItemType, req.DisplayName),
		Definition:     def,
		ParentFolderID: req.ParentFolderID,
	})
	if err != nil {
		logger.Error().Err(err).Str("item", req.DisplayName).Msg("creating item failed")
		d.report(req, OutcomeFailed, err.Error())
		return OutcomeFailed
	}

	logger.Info().Str("item", req.DisplayName).Str("id", created.ID).Msg("created item")
	// The remote system needs a settle window after creation before the
	// next dependent call.
	d.Settle.Wait()
	d.report(req, OutcomeCreated, "")
	return OutcomeCreated
}

// Skip reports an artifact that never reached the upsert stage.
func (d *Deployer) Skip(req UpsertRequest, reason string) Outcome {
	d.report(req, OutcomeSkipped, reason)
	return OutcomeSkipped
}

func (d *Deployer) report(req UpsertRequest, outcome Outcome, detail string) {
	if d.Report == nil {
		return
	}
	d.Report.LogArtifact(log.ArtifactOperation{
		Name:       req.DisplayName,
		Type:       req.ItemType,
		FolderPath: req.FolderPath,
		Outcome:    string(outcome),
		Detail:     detail,
	})
}

func describe(itemType, name string) string {
	switch itemType {
	case fabric.TypeDataPipeline:
		return fmt.Sprintf("Pipeline: %s", name)
	case fabric.TypeNotebook:
		return fmt.Sprintf("Notebook: %s", name)
	default:
		return fmt.Sprintf("%s: %s", itemType, name)
	}
}
