// Package inventory builds the per-run name and id mappings for one
// workspace and one item type. Mappings are rebuilt fresh each run and
// never cached across runs.
package inventory

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/fabsync/pkg/fabric"
	"gitlab.com/tozd/go/errors"
)

// Inventory is a snapshot of the items of one type in one workspace.
type Inventory struct {
	workspaceID string
	itemType    string
	items       []fabric.Item
	byName      map[string]fabric.Item
	byID        map[string]fabric.Item
}

// Fetch lists the workspace and keeps the items matching itemType. An empty
// itemType keeps everything. A listing failure degrades to an empty
// inventory: the error is logged and callers treat it as "nothing matched".
func Fetch(ctx context.Context, client fabric.Client, workspaceID, itemType string) *Inventory {
	items, err := client.ListItems(ctx, workspaceID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Str("workspace", workspaceID).
			Str("type", itemType).
			Msg("listing workspace items failed, continuing with empty inventory")
		items = nil
	}
	return build(ctx, workspaceID, itemType, items)
}

func build(ctx context.Context, workspaceID, itemType string, items []fabric.Item) *Inventory {
	inv := &Inventory{
		workspaceID: workspaceID,
		itemType:    itemType,
		byName:      map[string]fabric.Item{},
		byID:        map[string]fabric.Item{},
	}
	for _, item := range items {
		if itemType != "" && item.Type != itemType {
			continue
		}
		inv.items = append(inv.items, item)
		// Display names are not guaranteed unique by the remote system.
		// First match in listing order wins; later duplicates are reported.
		if prev, dup := inv.byName[item.DisplayName]; dup {
			zerolog.Ctx(ctx).Warn().
				Str("name", item.DisplayName).
				Str("kept_id", prev.ID).
				Str("ignored_id", item.ID).
				Msg("duplicate display name in workspace, keeping first match")
		} else {
			inv.byName[item.DisplayName] = item
		}
		inv.byID[item.ID] = item
	}
	return inv
}

// New builds an inventory from an already-fetched item list. Used when one
// listing feeds multiple typed views.
func New(ctx context.Context, workspaceID, itemType string, items []fabric.Item) *Inventory {
	return build(ctx, workspaceID, itemType, items)
}

// WorkspaceID returns the workspace this inventory was listed from.
func (inv *Inventory) WorkspaceID() string { return inv.workspaceID }

// Len returns the number of items of the inventory's type.
func (inv *Inventory) Len() int { return len(inv.items) }

// Items returns the items in listing order.
func (inv *Inventory) Items() []fabric.Item { return inv.items }

// ByName resolves a display name to an item.
func (inv *Inventory) ByName(name string) (fabric.Item, bool) {
	item, ok := inv.byName[name]
	return item, ok
}

// NameByID resolves an item id to its display name.
func (inv *Inventory) NameByID(id string) (string, bool) {
	item, ok := inv.byID[id]
	if !ok {
		return "", false
	}
	return item.DisplayName, true
}

// AllByName returns every item carrying the given display name, in listing
// order. The organize flows move all of them rather than picking one when
// duplicates exist.
func (inv *Inventory) AllByName(name string) []fabric.Item {
	var out []fabric.Item
	for _, item := range inv.items {
		if item.DisplayName == name {
			out = append(out, item)
		}
	}
	return out
}

// FolderMemo seeds a path-keyed folder memo from a Folder-typed inventory.
// Top-level folders are keyed by their bare display name, matching how
// folder paths are built segment by segment.
func (inv *Inventory) FolderMemo() map[string]string {
	memo := map[string]string{}
	for _, item := range inv.items {
		if item.Type != fabric.TypeFolder {
			continue
		}
		memo[item.DisplayName] = item.ID
	}
	return memo
}

// FetchFolders lists the workspace's folders as a memo for path ensurance.
func FetchFolders(ctx context.Context, client fabric.Client, workspaceID string) map[string]string {
	return Fetch(ctx, client, workspaceID, fabric.TypeFolder).FolderMemo()
}

// RequireNonEmpty is a convenience guard for flows that cannot make
// progress at all without an inventory (e.g. pipeline remap needs the
// source listing). It does not abort the run by itself.
func (inv *Inventory) RequireNonEmpty() error {
	if len(inv.items) == 0 {
		return errors.Errorf("no %s items found in workspace %s", inv.itemType, inv.workspaceID)
	}
	return nil
}
