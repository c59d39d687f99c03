package fabric

import (
	"encoding/base64"

	"gitlab.com/tozd/go/errors"
)

// Item type tags used by the Fabric API.
const (
	TypeDataPipeline = "DataPipeline"
	TypeNotebook     = "Notebook"
	TypeFolder       = "Folder"
)

// PayloadTypeInlineBase64 is the only payload transport this tool uses:
// definition parts are carried inline, base64-encoded.
const PayloadTypeInlineBase64 = "InlineBase64"

// Item is a workspace item as returned by the items listing.
type Item struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Type        string `json:"type"`
	WorkspaceID string `json:"workspaceId,omitempty"`
	Description string `json:"description,omitempty"`
}

// Folder is a workspace folder. Display names are only unique within the
// path being built, not workspace-wide.
type Folder struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName"`
	ParentFolderID string `json:"parentFolderId,omitempty"`
}

// DefinitionPart is one named content part of an item definition.
type DefinitionPart struct {
	Path        string `json:"path"`
	Payload     string `json:"payload"`
	PayloadType string `json:"payloadType"`
}

// ItemDefinition is the structured definition of an item, an ordered
// collection of content parts.
type ItemDefinition struct {
	Parts []DefinitionPart `json:"parts"`
}

// CreateItemRequest is the body for item creation. Definition and
// ParentFolderID are optional.
type CreateItemRequest struct {
	Type           string          `json:"type"`
	DisplayName    string          `json:"displayName"`
	Description    string          `json:"description,omitempty"`
	Definition     *ItemDefinition `json:"definition,omitempty"`
	ParentFolderID string          `json:"parentFolderId,omitempty"`
}

// NewInlineBase64Part encodes raw bytes into an inline part destined for
// the given path inside the item definition.
func NewInlineBase64Part(path string, raw []byte) DefinitionPart {
	return DefinitionPart{
		Path:        path,
		Payload:     base64.StdEncoding.EncodeToString(raw),
		PayloadType: PayloadTypeInlineBase64,
	}
}

// Decode returns the raw bytes of an inline base64 part.
func (p DefinitionPart) Decode() ([]byte, error) {
	if p.PayloadType != PayloadTypeInlineBase64 {
		return nil, errors.Errorf("unsupported payload type %q for part %q", p.PayloadType, p.Path)
	}
	raw, err := base64.StdEncoding.DecodeString(p.Payload)
	if err != nil {
		return nil, errors.Errorf("decoding base64 payload of part %q: %w", p.Path, err)
	}
	return raw, nil
}

// Part returns the definition part with the given path, if present.
func (d *ItemDefinition) Part(path string) (DefinitionPart, bool) {
	for _, p := range d.Parts {
		if p.Path == path {
			return p, true
		}
	}
	return DefinitionPart{}, false
}
