package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinishRun_CountsPerOutcome(t *testing.T) {
	logger := New(&bytes.Buffer{}, zerolog.Disabled)

	logger.StartRun("test run")
	logger.LogArtifact(ArtifactOperation{Name: "A", Outcome: "created"})
	logger.LogArtifact(ArtifactOperation{Name: "B", Outcome: "created"})
	logger.LogArtifact(ArtifactOperation{Name: "C", Outcome: "updated"})
	logger.LogArtifact(ArtifactOperation{Name: "D", Outcome: "failed"})

	counts := logger.FinishRun()
	assert.Equal(t, map[string]int{"created": 2, "updated": 1, "failed": 1}, counts)
}

func TestStartRun_ResetsCounters(t *testing.T) {
	logger := New(&bytes.Buffer{}, zerolog.Disabled)

	logger.StartRun("first")
	logger.LogArtifact(ArtifactOperation{Name: "A", Outcome: "created"})
	logger.FinishRun()

	logger.StartRun("second")
	counts := logger.FinishRun()
	assert.Empty(t, counts)
}

func TestFormatOperation_Layout(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var buf bytes.Buffer
	logger := New(&buf, zerolog.Disabled)

	logger.StartRun("layout")
	logger.LogArtifact(ArtifactOperation{
		Name:       "Ingest",
		Type:       "DataPipeline",
		FolderPath: "etl/daily",
		Outcome:    "created",
	})
	logger.LogArtifact(ArtifactOperation{
		Name:    "Ghost",
		Type:    "Notebook",
		Outcome: "skipped",
		Detail:  "not found in source",
	})

	out := buf.String()
	assert.Contains(t, out, "✓ created")
	assert.Contains(t, out, "etl/daily/Ingest")
	assert.Contains(t, out, "- skipped")
	assert.Contains(t, out, "(not found in source)")
}

func TestFormatOperation_TruncatesLongNames(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var buf bytes.Buffer
	logger := New(&buf, zerolog.Disabled)

	logger.LogArtifact(ArtifactOperation{
		Name:    strings.Repeat("x", 80),
		Type:    "Notebook",
		Outcome: "created",
	})

	require.Contains(t, buf.String(), "...")
	assert.NotContains(t, buf.String(), strings.Repeat("x", 50))
}
