package deploy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/fabsync/pkg/config"
	"github.com/walteh/fabsync/pkg/fabric"
	"github.com/walteh/fabsync/pkg/fabric/fabrictest"
	"github.com/walteh/fabsync/pkg/scan"
	"gitlab.com/tozd/go/errors"
)

func writeNotebook(t *testing.T, dir, displayName string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	sidecar := `{"metadata": {"displayName": "` + displayName + `", "type": "Notebook"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, scan.SidecarFile), []byte(sidecar), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, scan.NotebookContentFile), []byte("# code"), 0o644))
}

func notebookFlow(client fabric.Client, repo string) *Flow {
	return &Flow{
		Client: client,
		Config: &config.Config{TargetWorkspaceID: "ws-2", RepoPath: repo},
		Report: quietReport(),
	}
}

func TestNotebooks_OneCreateOneUpdate(t *testing.T) {
	repo := t.TempDir()
	writeNotebook(t, filepath.Join(repo, "Existing.Notebook"), "Existing")
	writeNotebook(t, filepath.Join(repo, "Fresh.Notebook"), "Fresh")

	client := &fabrictest.FakeClient{
		ListItemsFunc: func(ctx context.Context, ws string) ([]fabric.Item, error) {
			return []fabric.Item{
				{ID: "nb-1", DisplayName: "Existing", Type: "Notebook", WorkspaceID: "ws-2"},
			}, nil
		},
	}

	counts, err := notebookFlow(client, repo).Notebooks(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, counts["created"])
	assert.Equal(t, 1, counts["updated"])
	assert.Zero(t, counts["failed"])

	require.Len(t, client.Updated, 1)
	assert.Equal(t, "nb-1", client.Updated[0].ItemID)
	require.Len(t, client.Created, 1)

	// The create payload carries identity fields the update payload never
	// does: the update call is keyed on the item id alone.
	created := client.Created[0]
	assert.Equal(t, "Fresh", created.DisplayName)
	assert.Equal(t, "Notebook", created.Type)
	require.NotNil(t, created.Definition)
	assert.Len(t, created.Definition.Parts, 2)
}

func TestNotebooks_CreatesFolderPathAndAttaches(t *testing.T) {
	repo := t.TempDir()
	writeNotebook(t, filepath.Join(repo, "etl", "daily", "Job.Notebook"), "Job")

	client := &fabrictest.FakeClient{}
	flow := notebookFlow(client, repo)

	_, err := flow.Notebooks(context.Background())
	require.NoError(t, err)

	// etl, etl/daily, etl/daily/Job.Notebook created top-down.
	require.Len(t, client.FolderCalls, 3)
	assert.Equal(t, "etl", client.FolderCalls[0].DisplayName)
	assert.Equal(t, "daily", client.FolderCalls[1].DisplayName)

	require.Len(t, client.Created, 1)
	assert.Equal(t, "folder-3", client.Created[0].ParentFolderID)
}

func TestNotebooks_FolderFailureSkipsPlacementNotArtifact(t *testing.T) {
	repo := t.TempDir()
	writeNotebook(t, filepath.Join(repo, "etl", "Job.Notebook"), "Job")

	client := &fabrictest.FakeClient{
		CreateFolderFunc: func(ctx context.Context, ws, name, parent string) (*fabric.Folder, error) {
			return nil, errors.New("folder conflict")
		},
	}

	counts, err := notebookFlow(client, repo).Notebooks(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, counts["created"], "notebook still deploys without placement")
	require.Len(t, client.Created, 1)
	assert.Empty(t, client.Created[0].ParentFolderID)
}

func TestNotebooks_EmptyInventoryMeansEverythingCreates(t *testing.T) {
	repo := t.TempDir()
	writeNotebook(t, filepath.Join(repo, "A.Notebook"), "A")

	client := &fabrictest.FakeClient{
		ListItemsFunc: func(ctx context.Context, ws string) ([]fabric.Item, error) {
			return nil, errors.New("network down")
		},
	}

	counts, err := notebookFlow(client, repo).Notebooks(context.Background())
	require.NoError(t, err, "listing failure degrades, it does not abort")
	assert.Equal(t, 1, counts["created"])
}
