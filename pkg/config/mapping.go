package config

import (
	"bytes"
	"encoding/json"
	"os"

	"gitlab.com/tozd/go/errors"
)

// FolderMapping is one record of the declarative name-to-folder mapping
// file used by the organize command.
type FolderMapping struct {
	ItemName   string `json:"itemName"`
	FolderPath string `json:"folderPath"`
}

// LoadFolderMappings reads a JSON array of folder mapping records. An empty
// folderPath means "leave the item where it is". Unknown fields are
// rejected so typos surface instead of silently doing nothing.
func LoadFolderMappings(path string) ([]FolderMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading mapping file: %w", err)
	}

	var mappings []FolderMapping
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&mappings); err != nil {
		return nil, errors.Errorf("parsing mapping file: %w", err)
	}

	for i, m := range mappings {
		if m.ItemName == "" {
			return nil, errors.Errorf("mapping record %d has no itemName", i)
		}
	}
	return mappings, nil
}
