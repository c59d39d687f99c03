package organize

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/fabsync/pkg/config"
	"github.com/walteh/fabsync/pkg/fabric"
	"github.com/walteh/fabsync/pkg/fabric/fabrictest"
	"github.com/walteh/fabsync/pkg/log"
	"github.com/walteh/fabsync/pkg/scan"
	"gitlab.com/tozd/go/errors"
)

func testFlow(client fabric.Client) *Flow {
	return &Flow{
		Client: client,
		Config: &config.Config{TargetWorkspaceID: "ws-2"},
		Report: log.New(io.Discard, zerolog.Disabled),
	}
}

func workspaceListing() []fabric.Item {
	return []fabric.Item{
		{ID: "nb-1", DisplayName: "Notebook A", Type: "Notebook"},
		{ID: "rp-1", DisplayName: "Sales", Type: "Report"},
		{ID: "f-1", DisplayName: "etl", Type: "Folder"},
	}
}

func writeMappingFile(t *testing.T, records string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapping.json")
	require.NoError(t, os.WriteFile(path, []byte(records), 0o644))
	return path
}

func TestByMapping_MovesItems(t *testing.T) {
	client := &fabrictest.FakeClient{
		ListItemsFunc: func(ctx context.Context, ws string) ([]fabric.Item, error) {
			return workspaceListing(), nil
		},
	}

	path := writeMappingFile(t, `[
		{"itemName": "Notebook A", "folderPath": "etl/daily"},
		{"itemName": "Sales", "folderPath": "reports"}
	]`)

	counts, err := testFlow(client).ByMapping(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, counts["moved"])

	// "etl" already exists as a workspace folder; only "daily" and
	// "reports" get created.
	require.Len(t, client.FolderCalls, 2)
	assert.Equal(t, "daily", client.FolderCalls[0].DisplayName)
	assert.Equal(t, "f-1", client.FolderCalls[0].ParentFolderID)
	assert.Equal(t, "reports", client.FolderCalls[1].DisplayName)

	require.Len(t, client.Moves, 2)
	assert.Equal(t, "nb-1", client.Moves[0].Item.ID)
	assert.Equal(t, "rp-1", client.Moves[1].Item.ID)
}

func TestByMapping_MissingItemIsSkipped(t *testing.T) {
	client := &fabrictest.FakeClient{
		ListItemsFunc: func(ctx context.Context, ws string) ([]fabric.Item, error) {
			return workspaceListing(), nil
		},
	}

	path := writeMappingFile(t, `[{"itemName": "Nope", "folderPath": "x"}]`)

	counts, err := testFlow(client).ByMapping(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, counts["skipped"])
	assert.Empty(t, client.Moves)
	assert.Empty(t, client.FolderCalls, "no folder is created for an unmatched item")
}

func TestByMapping_EmptyFolderPathLeavesItemAlone(t *testing.T) {
	client := &fabrictest.FakeClient{
		ListItemsFunc: func(ctx context.Context, ws string) ([]fabric.Item, error) {
			return workspaceListing(), nil
		},
	}

	path := writeMappingFile(t, `[{"itemName": "Sales", "folderPath": ""}]`)

	counts, err := testFlow(client).ByMapping(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, counts["skipped"])
	assert.Empty(t, client.Moves)
}

func TestByMapping_MalformedFileIsFatal(t *testing.T) {
	client := &fabrictest.FakeClient{}
	path := writeMappingFile(t, `[{"itemName": "X", "surprise": true}]`)

	_, err := testFlow(client).ByMapping(context.Background(), path)
	require.Error(t, err)
	assert.Empty(t, client.Moves)
}

func TestByMapping_FolderFailureSkipsRecord(t *testing.T) {
	client := &fabrictest.FakeClient{
		ListItemsFunc: func(ctx context.Context, ws string) ([]fabric.Item, error) {
			return workspaceListing(), nil
		},
		CreateFolderFunc: func(ctx context.Context, ws, name, parent string) (*fabric.Folder, error) {
			return nil, errors.New("denied")
		},
	}

	path := writeMappingFile(t, `[{"itemName": "Sales", "folderPath": "reports"}]`)

	counts, err := testFlow(client).ByMapping(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, counts["skipped"])
	assert.Empty(t, client.Moves, "no move without a folder id")
}

func TestBySource_MirrorsDirectoryStructure(t *testing.T) {
	dir := t.TempDir()
	nbDir := filepath.Join(dir, "etl", "daily", "Notebook A.Notebook")
	require.NoError(t, os.MkdirAll(nbDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nbDir, scan.SidecarFile),
		[]byte(`{"metadata": {"displayName": "Notebook A"}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(nbDir, scan.NotebookContentFile), []byte("# code"), 0o644))

	client := &fabrictest.FakeClient{
		ListItemsFunc: func(ctx context.Context, ws string) ([]fabric.Item, error) {
			return workspaceListing(), nil
		},
	}

	counts, err := testFlow(client).BySource(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, counts["moved"])
	require.Len(t, client.Moves, 1)
	assert.Equal(t, "nb-1", client.Moves[0].Item.ID)

	// etl exists; daily and the artifact segment get created.
	require.Len(t, client.FolderCalls, 2)
	assert.Equal(t, "daily", client.FolderCalls[0].DisplayName)
	assert.Equal(t, "Notebook A.Notebook", client.FolderCalls[1].DisplayName)
}

func TestBySource_UnknownNotebookIsSkipped(t *testing.T) {
	dir := t.TempDir()
	nbDir := filepath.Join(dir, "sub", "Ghost.Notebook")
	require.NoError(t, os.MkdirAll(nbDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nbDir, scan.SidecarFile),
		[]byte(`{"metadata": {"displayName": "Ghost"}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(nbDir, scan.NotebookContentFile), []byte("# code"), 0o644))

	client := &fabrictest.FakeClient{
		ListItemsFunc: func(ctx context.Context, ws string) ([]fabric.Item, error) {
			return workspaceListing(), nil
		},
	}

	counts, err := testFlow(client).BySource(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, counts["skipped"])
	assert.Empty(t, client.Moves)
}
