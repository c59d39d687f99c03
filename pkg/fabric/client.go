package fabric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultBaseURL is the production Fabric REST endpoint.
const DefaultBaseURL = "https://api.fabric.microsoft.com/v1"

// Client is the surface of the Fabric REST API this tool depends on.
// Flows and tests take the interface; httpClient is the real thing.
type Client interface {
	// ListItems returns every item visible in the workspace.
	ListItems(ctx context.Context, workspaceID string) ([]Item, error)
	// GetItemDefinition fetches the structured definition of an item.
	GetItemDefinition(ctx context.Context, workspaceID, itemID string) (*ItemDefinition, error)
	// UpdateItemDefinition replaces the definition of an existing item.
	UpdateItemDefinition(ctx context.Context, workspaceID, itemID string, def *ItemDefinition) error
	// CreateItem creates a new item in the workspace.
	CreateItem(ctx context.Context, workspaceID string, req CreateItemRequest) (*Item, error)
	// CreateFolder creates a folder, optionally under a parent folder.
	CreateFolder(ctx context.Context, workspaceID, displayName, parentFolderID string) (*Folder, error)
	// MoveItemToFolder patches an item's parent-folder attribute.
	MoveItemToFolder(ctx context.Context, workspaceID string, item Item, folderID string) error
}

// APIError carries the status code and response body of a non-success
// response so callers can log the remote system's explanation.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fabric api returned %d: %s", e.StatusCode, e.Body)
}

type httpClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures the HTTP client.
type Option func(*httpClient)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// NewClient creates a Fabric client that authenticates every call with
// the given bearer token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		token:   token,
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// listItemsResponse is the envelope the items listing comes back in.
type listItemsResponse struct {
	Value []Item `json:"value"`
}

func (c *httpClient) ListItems(ctx context.Context, workspaceID string) ([]Item, error) {
	var out listItemsResponse
	url := fmt.Sprintf("%s/workspaces/%s/items", c.baseURL, workspaceID)
	if err := c.do(ctx, http.MethodGet, url, nil, &out, okDefault); err != nil {
		return nil, errors.Errorf("listing workspace items: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("workspace", workspaceID).Int("count", len(out.Value)).Msg("listed workspace items")
	return out.Value, nil
}

func (c *httpClient) GetItemDefinition(ctx context.Context, workspaceID, itemID string) (*ItemDefinition, error) {
	var out struct {
		Definition ItemDefinition `json:"definition"`
	}
	url := fmt.Sprintf("%s/workspaces/%s/items/%s/getDefinition", c.baseURL, workspaceID, itemID)
	if err := c.do(ctx, http.MethodPost, url, nil, &out, okDefault); err != nil {
		return nil, errors.Errorf("getting item definition: %w", err)
	}
	return &out.Definition, nil
}

func (c *httpClient) UpdateItemDefinition(ctx context.Context, workspaceID, itemID string, def *ItemDefinition) error {
	body := map[string]any{"definition": def}
	url := fmt.Sprintf("%s/workspaces/%s/items/%s/updateDefinition", c.baseURL, workspaceID, itemID)
	if err := c.do(ctx, http.MethodPost, url, body, nil, okItemWrite); err != nil {
		return errors.Errorf("updating item definition: %w", err)
	}
	return nil
}

func (c *httpClient) CreateItem(ctx context.Context, workspaceID string, req CreateItemRequest) (*Item, error) {
	var out Item
	url := fmt.Sprintf("%s/workspaces/%s/items", c.baseURL, workspaceID)
	if err := c.do(ctx, http.MethodPost, url, req, &out, okItemWrite); err != nil {
		return nil, errors.Errorf("creating item %q: %w", req.DisplayName, err)
	}
	return &out, nil
}

func (c *httpClient) CreateFolder(ctx context.Context, workspaceID, displayName, parentFolderID string) (*Folder, error) {
	body := map[string]any{"displayName": displayName}
	if parentFolderID != "" {
		body["parentFolderId"] = parentFolderID
	}
	var out Folder
	url := fmt.Sprintf("%s/workspaces/%s/folders", c.baseURL, workspaceID)
	if err := c.do(ctx, http.MethodPost, url, body, &out, okCreated); err != nil {
		return nil, errors.Errorf("creating folder %q: %w", displayName, err)
	}
	zerolog.Ctx(ctx).Info().Str("folder", displayName).Str("id", out.ID).Msg("created folder")
	return &out, nil
}

// moveEndpoints maps item types to the type-specific collection used for
// the parent-folder patch.
var moveEndpoints = map[string]string{
	strings.ToLower(TypeNotebook): "notebooks",
	"dataflow":                    "dataflows",
	"dataset":                     "datasets",
	"report":                      "reports",
	"dashboard":                   "dashboards",
}

func (c *httpClient) MoveItemToFolder(ctx context.Context, workspaceID string, item Item, folderID string) error {
	collection, ok := moveEndpoints[strings.ToLower(item.Type)]
	if !ok {
		return errors.Errorf("unsupported item type %q for folder move", item.Type)
	}
	body := map[string]any{"parentFolderId": folderID}
	url := fmt.Sprintf("%s/workspaces/%s/%s/%s", c.baseURL, workspaceID, collection, item.ID)
	if err := c.do(ctx, http.MethodPatch, url, body, nil, okMove); err != nil {
		return errors.Errorf("moving %s %q to folder: %w", item.Type, item.DisplayName, err)
	}
	zerolog.Ctx(ctx).Info().Str("item", item.DisplayName).Str("folder_id", folderID).Msg("moved item to folder")
	return nil
}

// Accepted status sets follow the remote system's per-endpoint behavior.
func okDefault(code int) bool { return code == http.StatusOK }
func okCreated(code int) bool { return code == http.StatusOK || code == http.StatusCreated }
func okItemWrite(code int) bool {
	return code == http.StatusOK || code == http.StatusCreated || code == http.StatusAccepted
}
func okMove(code int) bool {
	return okItemWrite(code) || code == http.StatusNoContent
}

func (c *httpClient) do(ctx context.Context, method, url string, body, out any, accept func(int) bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return errors.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Errorf("calling %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Errorf("reading response body: %w", err)
	}

	if !accept(resp.StatusCode) {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return errors.Errorf("decoding response body: %w", err)
		}
	}
	return nil
}
