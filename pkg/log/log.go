package log

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	opIndent    = 2  // spaces to indent artifact entries
	nameWidth   = 40 // base width for artifact name
	actionWidth = 10 // width for the outcome word
)

// 🎯 ArtifactOperation represents one processed artifact for logging
type ArtifactOperation struct {
	Name       string // Artifact display name
	Type       string // Item type (DataPipeline/Notebook/...)
	FolderPath string // Target folder path, empty for workspace root
	Outcome    string // created/updated/moved/unchanged/skipped/failed
	Detail     string // Optional reason, shown for skips and failures
}

// 🎯 Logger handles run reporting with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	title   string
	ops     []ArtifactOperation
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 📝 formatOperation formats an artifact operation for display
func (l *Logger) formatOperation(op ArtifactOperation) string {
	// Determine symbol and color
	var symbol rune
	var symbolColor color.Attribute
	switch op.Outcome {
	case "created":
		symbol = '✓'
		symbolColor = color.FgGreen
	case "updated":
		symbol = '⟳'
		symbolColor = color.FgBlue
	case "moved":
		symbol = '→'
		symbolColor = color.FgCyan
	case "failed":
		symbol = '✗'
		symbolColor = color.FgRed
	case "skipped":
		symbol = '-'
		symbolColor = color.FgYellow
	default:
		symbol = '•'
		symbolColor = color.FgWhite
	}

	name := op.Name
	if op.FolderPath != "" {
		name = op.FolderPath + "/" + name
	}
	if len(name) > nameWidth {
		name = name[:nameWidth-3] + "..."
	}

	line := fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", opIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", actionWidth, op.Outcome),
		fmt.Sprintf("%-*s", nameWidth, name),
		color.New(color.Faint).Sprint(op.Type))
	if op.Detail != "" {
		line += " " + color.New(color.FgYellow).Sprint("("+op.Detail+")")
	}
	return line
}

// 📝 LogArtifact records and prints one artifact operation
func (l *Logger) LogArtifact(op ArtifactOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ops = append(l.ops, op)
	fmt.Fprintln(l.console, l.formatOperation(op))

	l.zlog.Info().
		Str("artifact", op.Name).
		Str("type", op.Type).
		Str("folder", op.FolderPath).
		Str("outcome", op.Outcome).
		Str("detail", op.Detail).
		Msg("artifact operation")
}

// 📝 StartRun prints the run header and resets counters
func (l *Logger) StartRun(title string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.title = title
	l.ops = nil
	fmt.Fprintf(l.console, "%s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(title))
}

// 📝 FinishRun prints the run summary and returns per-outcome counts
func (l *Logger) FinishRun() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	counts := map[string]int{}
	for _, op := range l.ops {
		counts[op.Outcome]++
	}

	fmt.Fprintf(l.console, "\n%s", color.New(color.Bold).Sprint("summary:"))
	if len(l.ops) == 0 {
		fmt.Fprint(l.console, " nothing to do")
	}
	for _, outcome := range []string{"created", "updated", "moved", "unchanged", "skipped", "failed"} {
		if n := counts[outcome]; n > 0 {
			fmt.Fprintf(l.console, " %d %s", n, outcome)
		}
	}
	fmt.Fprintln(l.console)

	l.zlog.Info().
		Str("run", l.title).
		Int("artifacts", len(l.ops)).
		Msg("run finished")
	return counts
}
