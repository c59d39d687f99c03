// Package fabrictest provides a scriptable in-memory fabric.Client for
// tests. Every method records its call and delegates to an optional
// override; without an override it succeeds with a synthetic result.
package fabrictest

import (
	"context"
	"fmt"

	"github.com/walteh/fabsync/pkg/fabric"
)

// FolderCall records one CreateFolder invocation.
type FolderCall struct {
	WorkspaceID    string
	DisplayName    string
	ParentFolderID string
}

// UpdateCall records one UpdateItemDefinition invocation.
type UpdateCall struct {
	WorkspaceID string
	ItemID      string
	Definition  *fabric.ItemDefinition
}

// MoveCall records one MoveItemToFolder invocation.
type MoveCall struct {
	WorkspaceID string
	Item        fabric.Item
	FolderID    string
}

// FakeClient implements fabric.Client for tests.
type FakeClient struct {
	ListItemsFunc            func(ctx context.Context, workspaceID string) ([]fabric.Item, error)
	GetItemDefinitionFunc    func(ctx context.Context, workspaceID, itemID string) (*fabric.ItemDefinition, error)
	UpdateItemDefinitionFunc func(ctx context.Context, workspaceID, itemID string, def *fabric.ItemDefinition) error
	CreateItemFunc           func(ctx context.Context, workspaceID string, req fabric.CreateItemRequest) (*fabric.Item, error)
	CreateFolderFunc         func(ctx context.Context, workspaceID, displayName, parentFolderID string) (*fabric.Folder, error)
	MoveItemToFolderFunc     func(ctx context.Context, workspaceID string, item fabric.Item, folderID string) error

	ListCalls   int
	Created     []fabric.CreateItemRequest
	Updated     []UpdateCall
	FolderCalls []FolderCall
	Moves       []MoveCall
}

var _ fabric.Client = (*FakeClient)(nil)

func (f *FakeClient) ListItems(ctx context.Context, workspaceID string) ([]fabric.Item, error) {
	f.ListCalls++
	if f.ListItemsFunc != nil {
		return f.ListItemsFunc(ctx, workspaceID)
	}
	return nil, nil
}

func (f *FakeClient) GetItemDefinition(ctx context.Context, workspaceID, itemID string) (*fabric.ItemDefinition, error) {
	if f.GetItemDefinitionFunc != nil {
		return f.GetItemDefinitionFunc(ctx, workspaceID, itemID)
	}
	return &fabric.ItemDefinition{}, nil
}

func (f *FakeClient) UpdateItemDefinition(ctx context.Context, workspaceID, itemID string, def *fabric.ItemDefinition) error {
	f.Updated = append(f.Updated, UpdateCall{WorkspaceID: workspaceID, ItemID: itemID, Definition: def})
	if f.UpdateItemDefinitionFunc != nil {
		return f.UpdateItemDefinitionFunc(ctx, workspaceID, itemID, def)
	}
	return nil
}

func (f *FakeClient) CreateItem(ctx context.Context, workspaceID string, req fabric.CreateItemRequest) (*fabric.Item, error) {
	f.Created = append(f.Created, req)
	if f.CreateItemFunc != nil {
		return f.CreateItemFunc(ctx, workspaceID, req)
	}
	return &fabric.Item{
		ID:          fmt.Sprintf("created-%d", len(f.Created)),
		DisplayName: req.DisplayName,
		Type:        req.Type,
		WorkspaceID: workspaceID,
	}, nil
}

func (f *FakeClient) CreateFolder(ctx context.Context, workspaceID, displayName, parentFolderID string) (*fabric.Folder, error) {
	f.FolderCalls = append(f.FolderCalls, FolderCall{WorkspaceID: workspaceID, DisplayName: displayName, ParentFolderID: parentFolderID})
	if f.CreateFolderFunc != nil {
		return f.CreateFolderFunc(ctx, workspaceID, displayName, parentFolderID)
	}
	return &fabric.Folder{
		ID:             fmt.Sprintf("folder-%d", len(f.FolderCalls)),
		DisplayName:    displayName,
		ParentFolderID: parentFolderID,
	}, nil
}

func (f *FakeClient) MoveItemToFolder(ctx context.Context, workspaceID string, item fabric.Item, folderID string) error {
	f.Moves = append(f.Moves, MoveCall{WorkspaceID: workspaceID, Item: item, FolderID: folderID})
	if f.MoveItemToFolderFunc != nil {
		return f.MoveItemToFolderFunc(ctx, workspaceID, item, folderID)
	}
	return nil
}
