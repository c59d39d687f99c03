package deploy

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rs/zerolog"
	"github.com/walteh/fabsync/pkg/fabric"
	"github.com/walteh/fabsync/pkg/inventory"
	"github.com/walteh/fabsync/pkg/remap"
	"github.com/walteh/fabsync/pkg/scan"
	"gitlab.com/tozd/go/errors"
)

// Pipelines migrates every exported pipeline under the repo path from the
// source workspace into the target workspace. Each pipeline's definition
// is fetched from the source, its notebook references are remapped to the
// same-named notebooks in the target, and the result is upserted.
func (f *Flow) Pipelines(ctx context.Context) (map[string]int, error) {
	logger := zerolog.Ctx(ctx)
	sourceWS := f.Config.SourceWorkspaceID
	targetWS := f.Config.TargetWorkspaceID

	f.Report.StartRun("deploying pipelines " + sourceWS + " -> " + targetWS)

	sourceItems, err := f.Client.ListItems(ctx, sourceWS)
	if err != nil {
		logger.Error().Err(err).Str("workspace", sourceWS).Msg("listing source workspace failed, continuing with empty inventory")
		sourceItems = nil
	}
	targetItems, err := f.Client.ListItems(ctx, targetWS)
	if err != nil {
		logger.Error().Err(err).Str("workspace", targetWS).Msg("listing target workspace failed, continuing with empty inventory")
		targetItems = nil
	}

	sourcePipelines := inventory.New(ctx, sourceWS, fabric.TypeDataPipeline, sourceItems)
	sourceNotebooks := inventory.New(ctx, sourceWS, fabric.TypeNotebook, sourceItems)
	targetPipelines := inventory.New(ctx, targetWS, fabric.TypeDataPipeline, targetItems)
	targetNotebooks := inventory.New(ctx, targetWS, fabric.TypeNotebook, targetItems)

	scanner := &scan.Scanner{
		Root:           f.Config.RepoPath,
		ContentFile:    scan.PipelineContentFile,
		NameSuffix:     fabric.TypeDataPipeline,
		IgnorePatterns: f.Config.IgnorePatterns,
	}
	artifacts, err := scanner.Scan(ctx)
	if err != nil {
		return nil, errors.Errorf("scanning for pipelines: %w", err)
	}

	deployer := &Deployer{Client: f.Client, Report: f.Report, Settle: f.ItemSettle}

	for _, artifact := range artifacts {
		f.deployPipeline(ctx, deployer, sourcePipelines, sourceNotebooks, targetPipelines, targetNotebooks, artifact)
	}

	return f.Report.FinishRun(), nil
}

func (f *Flow) deployPipeline(ctx context.Context, deployer *Deployer, sourcePipelines, sourceNotebooks, targetPipelines, targetNotebooks *inventory.Inventory, artifact scan.Artifact) {
	logger := zerolog.Ctx(ctx).With().Str("pipeline", artifact.DisplayName).Logger()
	req := UpsertRequest{
		ItemType:    fabric.TypeDataPipeline,
		DisplayName: artifact.DisplayName,
		FolderPath:  artifact.RelPath,
	}

	source, ok := sourcePipelines.ByName(artifact.DisplayName)
	if !ok {
		deployer.Skip(req, "not found in source workspace")
		return
	}

	def, err := f.Client.GetItemDefinition(ctx, sourcePipelines.WorkspaceID(), source.ID)
	if err != nil {
		logger.Error().Err(err).Msg("fetching pipeline definition failed")
		deployer.Skip(req, "fetching definition failed")
		return
	}

	part, ok := def.Part(scan.PipelineContentFile)
	if !ok {
		deployer.Skip(req, "definition has no "+scan.PipelineContentFile)
		return
	}

	raw, err := part.Decode()
	if err != nil {
		logger.Error().Err(err).Msg("decoding pipeline content failed")
		deployer.Skip(req, "decoding content failed")
		return
	}
	var content map[string]any
	if err := json.Unmarshal(raw, &content); err != nil {
		logger.Error().Err(err).Msg("parsing pipeline content failed")
		deployer.Skip(req, "parsing content failed")
		return
	}

	result := remap.NotebookReferences(ctx, content, sourceNotebooks, targetNotebooks)
	switch {
	case !result.HasNotebookActivities:
		logger.Debug().Msg("pipeline has no notebook activities, deploying unchanged")
	case !result.Modified:
		logger.Info().Int("misses", len(result.Misses)).Msg("pipeline has notebook activities but nothing to rewrite")
	default:
		logger.Info().Int("rewrites", len(result.Rewrites)).Int("misses", len(result.Misses)).Msg("rewrote notebook references")
	}

	contentPart := part // unmodified content is transmitted byte-identical
	if result.Modified {
		contentPart, err = stagePipelineContent(artifact.Dir, content)
		if err != nil {
			logger.Error().Err(err).Msg("staging remapped pipeline content failed")
			deployer.Skip(req, "staging content failed")
			return
		}
	}

	req.Parts = []fabric.DefinitionPart{contentPart}
	if sidecar, err := os.ReadFile(artifact.SidecarPath()); err == nil {
		req.Parts = append(req.Parts, fabric.NewInlineBase64Part(scan.SidecarFile, sidecar))
	}

	deployer.Upsert(ctx, targetPipelines, req)
}

// stagePipelineContent writes the remapped content to a temp file in the
// artifact directory, encodes it from there, and removes the file before
// returning regardless of outcome.
func stagePipelineContent(dir string, content map[string]any) (fabric.DefinitionPart, error) {
	data, err := json.MarshalIndent(content, "", "    ")
	if err != nil {
		return fabric.DefinitionPart{}, errors.Errorf("encoding pipeline content: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "pipeline-content-*.json")
	if err != nil {
		return fabric.DefinitionPart{}, errors.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fabric.DefinitionPart{}, errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fabric.DefinitionPart{}, errors.Errorf("closing temp file: %w", err)
	}

	staged, err := os.ReadFile(tmp.Name())
	if err != nil {
		return fabric.DefinitionPart{}, errors.Errorf("reading temp file back: %w", err)
	}
	return fabric.NewInlineBase64Part(scan.PipelineContentFile, staged), nil
}
