package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

// hclConfig is the HCL-tagged intermediate form of Config.
type hclConfig struct {
	TargetWorkspaceID string   `hcl:"target_workspace_id,optional"`
	SourceWorkspaceID string   `hcl:"source_workspace_id,optional"`
	RepoPath          string   `hcl:"repo_path,optional"`
	Token             string   `hcl:"token,optional"`
	BaseURL           string   `hcl:"base_url,optional"`
	IgnorePatterns    []string `hcl:"ignore_patterns,optional"`
}

// loadHCL loads a configuration from HCL data
func loadHCL(data []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var raw hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &raw)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	return &Config{
		TargetWorkspaceID: raw.TargetWorkspaceID,
		SourceWorkspaceID: raw.SourceWorkspaceID,
		RepoPath:          raw.RepoPath,
		Token:             raw.Token,
		BaseURL:           raw.BaseURL,
		IgnorePatterns:    raw.IgnorePatterns,
	}, nil
}
