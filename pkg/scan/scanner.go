// Package scan discovers exported Fabric artifacts in a local directory
// tree. An artifact directory is identified by a marker pair: a metadata
// sidecar (.platform) plus a type-specific content file.
package scan

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// SidecarFile is the metadata sidecar every artifact directory carries.
const SidecarFile = ".platform"

// Content filenames for the artifact types this tool migrates.
const (
	NotebookContentFile = "notebook-content.py"
	PipelineContentFile = "pipeline-content.json"
)

// Artifact is a locally discovered unit of work, not yet matched against
// any workspace.
type Artifact struct {
	Dir         string // absolute directory containing the marker pair
	RelPath     string // directory path relative to the scan root, "" for root, slash-separated
	DisplayName string // from the sidecar's metadata.displayName
}

// ContentPath returns the absolute path of the artifact's content file.
func (a Artifact) ContentPath(contentFile string) string {
	return filepath.Join(a.Dir, contentFile)
}

// SidecarPath returns the absolute path of the artifact's sidecar.
func (a Artifact) SidecarPath() string {
	return filepath.Join(a.Dir, SidecarFile)
}

// Scanner walks a root directory for artifact directories.
type Scanner struct {
	Root        string
	ContentFile string
	// NameSuffix, when set, lets a directory named "<Name>.<NameSuffix>"
	// supply the artifact name if the sidecar has no displayName. Exported
	// pipeline directories are named this way.
	NameSuffix string
	// IgnorePatterns are doublestar globs matched against the rel path.
	IgnorePatterns []string
}

// sidecar is the part of the .platform file we read.
type sidecar struct {
	Metadata struct {
		DisplayName string `json:"displayName"`
		Type        string `json:"type"`
	} `json:"metadata"`
}

// Scan walks the root and returns one Artifact per directory containing
// both markers, in filesystem traversal order. Hidden directories are
// pruned even when they contain markers. Directories whose sidecar is
// malformed or lacks a display name are skipped and logged, not fatal.
func (s *Scanner) Scan(ctx context.Context) ([]Artifact, error) {
	logger := zerolog.Ctx(ctx)

	root, err := filepath.Abs(s.Root)
	if err != nil {
		return nil, errors.Errorf("resolving scan root: %w", err)
	}

	var artifacts []Artifact
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return errors.Errorf("computing rel path for %s: %w", path, err)
		}
		relSlash := filepath.ToSlash(rel)
		if relSlash == "." {
			relSlash = ""
		}

		if s.ignored(ctx, relSlash) {
			return filepath.SkipDir
		}

		if !fileExists(filepath.Join(path, SidecarFile)) || !fileExists(filepath.Join(path, s.ContentFile)) {
			return nil
		}

		name, err := readDisplayName(filepath.Join(path, SidecarFile))
		if err != nil {
			logger.Warn().Err(err).Str("dir", path).Msg("skipping artifact with unreadable sidecar")
			return nil
		}
		if name == "" && s.NameSuffix != "" && strings.HasSuffix(d.Name(), "."+s.NameSuffix) {
			name = NameFromDir(path, s.NameSuffix)
		}
		if name == "" {
			logger.Warn().Str("dir", path).Msg("skipping artifact with no displayName in sidecar")
			return nil
		}

		artifacts = append(artifacts, Artifact{
			Dir:         path,
			RelPath:     relSlash,
			DisplayName: name,
		})
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", root, err)
	}

	logger.Debug().Int("count", len(artifacts)).Str("root", root).Msg("scanned local artifacts")
	return artifacts, nil
}

func (s *Scanner) ignored(ctx context.Context, relSlash string) bool {
	if relSlash == "" {
		return false
	}
	for _, pattern := range s.IgnorePatterns {
		matched, err := doublestar.Match(pattern, relSlash)
		if err != nil {
			zerolog.Ctx(ctx).Debug().Str("pattern", pattern).Err(err).Msg("error matching ignore pattern")
			continue
		}
		if matched {
			zerolog.Ctx(ctx).Debug().Str("dir", relSlash).Str("pattern", pattern).Msg("directory ignored by pattern")
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func readDisplayName(sidecarPath string) (string, error) {
	data, err := os.ReadFile(sidecarPath)
	if err != nil {
		return "", errors.Errorf("reading sidecar: %w", err)
	}
	var sc sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return "", errors.Errorf("parsing sidecar: %w", err)
	}
	return sc.Metadata.DisplayName, nil
}

// NameFromDir derives an artifact name from its directory name by trimming
// a type suffix, e.g. "Ingest.DataPipeline" -> "Ingest". The pipeline flow
// uses this when matching exported directories against the source
// workspace.
func NameFromDir(dir, typeSuffix string) string {
	return strings.TrimSuffix(filepath.Base(dir), "."+typeSuffix)
}
