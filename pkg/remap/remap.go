// Package remap rewrites cross-workspace notebook references inside a
// pipeline definition. A pipeline's activity graph may contain
// TridentNotebook activities whose typeProperties point at a notebook id
// in the source workspace; remapping replaces that pointer with the id of
// the same-named notebook in the target workspace.
package remap

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/fabsync/pkg/inventory"
)

// notebookActivityType tags the activity nodes that carry a notebook
// reference.
const notebookActivityType = "TridentNotebook"

// MissReason says which half of the two-step resolution failed.
type MissReason string

const (
	// MissUnknownSourceID: the referenced id is not a notebook in the
	// source workspace.
	MissUnknownSourceID MissReason = "unknown-source-id"
	// MissNameNotInTarget: the notebook name exists in the source but not
	// in the target workspace.
	MissNameNotInTarget MissReason = "name-not-in-target"
)

// Rewrite records one successfully remapped activity.
type Rewrite struct {
	Activity     string
	NotebookName string
	OldID        string
	NewID        string
	WorkspaceID  string
}

// Miss records one activity left untouched and why.
type Miss struct {
	Activity     string
	NotebookID   string
	NotebookName string // empty when the source id was unknown
	Reason       MissReason
}

// Result describes what the remap did to one decoded definition.
type Result struct {
	Modified              bool
	HasNotebookActivities bool
	Rewrites              []Rewrite
	Misses                []Miss
}

// NotebookReferences traverses the decoded pipeline content and rewrites
// every resolvable TridentNotebook reference in place. Unresolvable
// references are left exactly as found and reported as misses; they are
// warnings, not errors. Re-running over an already remapped definition is
// a no-op when the inventories are unchanged, since names resolve to the
// ids they already carry.
func NotebookReferences(ctx context.Context, content map[string]any, source, target *inventory.Inventory) Result {
	logger := zerolog.Ctx(ctx)
	var res Result

	for _, activity := range activities(content) {
		if typeOf(activity) != notebookActivityType {
			continue
		}
		res.HasNotebookActivities = true

		name, _ := activity["name"].(string)
		props, ok := activity["typeProperties"].(map[string]any)
		if !ok {
			continue
		}
		oldID, _ := props["notebookId"].(string)

		notebookName, ok := source.NameByID(oldID)
		if !ok {
			res.Misses = append(res.Misses, Miss{
				Activity:   name,
				NotebookID: oldID,
				Reason:     MissUnknownSourceID,
			})
			logger.Warn().Str("activity", name).Str("notebook_id", oldID).
				Msg("notebook id not found in source workspace, reference left unchanged")
			continue
		}

		item, ok := target.ByName(notebookName)
		if !ok {
			res.Misses = append(res.Misses, Miss{
				Activity:     name,
				NotebookID:   oldID,
				NotebookName: notebookName,
				Reason:       MissNameNotInTarget,
			})
			logger.Warn().Str("activity", name).Str("notebook", notebookName).
				Msg("notebook not found in target workspace, reference left unchanged")
			continue
		}

		props["notebookId"] = item.ID
		props["workspaceId"] = item.WorkspaceID
		res.Modified = true
		res.Rewrites = append(res.Rewrites, Rewrite{
			Activity:     name,
			NotebookName: notebookName,
			OldID:        oldID,
			NewID:        item.ID,
			WorkspaceID:  item.WorkspaceID,
		})
		logger.Info().
			Str("activity", name).
			Str("notebook", notebookName).
			Str("new_id", item.ID).
			Str("new_workspace", item.WorkspaceID).
			Msg("remapped notebook reference")
	}

	return res
}

func activities(content map[string]any) []map[string]any {
	props, ok := content["properties"].(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := props["activities"].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, a := range raw {
		if m, ok := a.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func typeOf(activity map[string]any) string {
	t, _ := activity["type"].(string)
	return t
}
