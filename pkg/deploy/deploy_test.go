package deploy

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/fabsync/pkg/fabric"
	"github.com/walteh/fabsync/pkg/fabric/fabrictest"
	"github.com/walteh/fabsync/pkg/folders"
	"github.com/walteh/fabsync/pkg/inventory"
	"github.com/walteh/fabsync/pkg/log"
	"gitlab.com/tozd/go/errors"
)

func quietReport() *log.Logger {
	return log.New(io.Discard, zerolog.Disabled)
}

func recordingSettle(waits *int) folders.SettlePolicy {
	return folders.SettlePolicy{
		After: time.Second,
		Sleep: func(time.Duration) { *waits++ },
	}
}

func targetWith(items ...fabric.Item) *inventory.Inventory {
	return inventory.New(context.Background(), "ws-2", fabric.TypeNotebook, items)
}

func TestUpsert_UpdatesWhenNamePresent(t *testing.T) {
	client := &fabrictest.FakeClient{}
	var waits int
	d := &Deployer{Client: client, Report: quietReport(), Settle: recordingSettle(&waits)}

	target := targetWith(fabric.Item{ID: "nb-5", DisplayName: "Notebook A", Type: "Notebook"})
	outcome := d.Upsert(context.Background(), target, UpsertRequest{
		ItemType:    fabric.TypeNotebook,
		DisplayName: "Notebook A",
		Parts:       []fabric.DefinitionPart{fabric.NewInlineBase64Part("notebook-content.py", []byte("x"))},
	})

	assert.Equal(t, OutcomeUpdated, outcome)
	require.Len(t, client.Updated, 1)
	assert.Equal(t, "nb-5", client.Updated[0].ItemID)
	assert.Empty(t, client.Created, "update path must never create")
	assert.Zero(t, waits, "no settle after update")
}

func TestUpsert_CreatesWhenNameAbsent(t *testing.T) {
	client := &fabrictest.FakeClient{}
	var waits int
	d := &Deployer{Client: client, Report: quietReport(), Settle: recordingSettle(&waits)}

	outcome := d.Upsert(context.Background(), targetWith(), UpsertRequest{
		ItemType:       fabric.TypeNotebook,
		DisplayName:    "Notebook B",
		Parts:          []fabric.DefinitionPart{fabric.NewInlineBase64Part("notebook-content.py", []byte("x"))},
		ParentFolderID: "f-1",
	})

	assert.Equal(t, OutcomeCreated, outcome)
	assert.Empty(t, client.Updated, "create path must never update")
	require.Len(t, client.Created, 1)

	req := client.Created[0]
	assert.Equal(t, "Notebook", req.Type)
	assert.Equal(t, "Notebook B", req.DisplayName)
	assert.Equal(t, "Notebook: Notebook B", req.Description)
	assert.Equal(t, "f-1", req.ParentFolderID)
	assert.Equal(t, 1, waits, "one settle after creation")
}

func TestUpsert_FailureIsAbsorbed(t *testing.T) {
	tests := []struct {
		name   string
		client *fabrictest.FakeClient
		target *inventory.Inventory
	}{
		{
			name: "update_fails",
			client: &fabrictest.FakeClient{
				UpdateItemDefinitionFunc: func(ctx context.Context, ws, id string, def *fabric.ItemDefinition) error {
					return errors.New("boom")
				},
			},
			target: targetWith(fabric.Item{ID: "nb-5", DisplayName: "Notebook A", Type: "Notebook"}),
		},
		{
			name: "create_fails",
			client: &fabrictest.FakeClient{
				CreateItemFunc: func(ctx context.Context, ws string, req fabric.CreateItemRequest) (*fabric.Item, error) {
					return nil, errors.New("boom")
				},
			},
			target: targetWith(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var waits int
			d := &Deployer{Client: tt.client, Report: quietReport(), Settle: recordingSettle(&waits)}

			outcome := d.Upsert(context.Background(), tt.target, UpsertRequest{
				ItemType:    fabric.TypeNotebook,
				DisplayName: "Notebook A",
			})

			assert.Equal(t, OutcomeFailed, outcome)
			assert.Zero(t, waits, "no settle after a failed call")
		})
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Pipeline: Ingest", describe(fabric.TypeDataPipeline, "Ingest"))
	assert.Equal(t, "Notebook: Clean", describe(fabric.TypeNotebook, "Clean"))
	assert.Equal(t, "Report: Sales", describe("Report", "Sales"))
}
