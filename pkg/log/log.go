// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/walteh/sourcefix/pkg/place"
	"github.com/walteh/sourcefix/pkg/status"
)

// 🎨 Display configuration
const (
	placeIndent   = 6  // spaces to indent place lines under their file
	positionWidth = 8  // Width for "line:col"
	ruleWidth     = 28 // Width for the rule name
)

// 🎯 FileReport is the outcome of one file, as shown on the console
type FileReport struct {
	Path   string            // File path as given
	Status status.FileStatus // Outcome
	Places []place.Place     // Places left after processing
}

// 📦 RunInfo describes one batch run
type RunInfo struct {
	Dir   string // Working directory
	Files int    // Number of files to process
	Rules int    // Number of loaded rules
	Fix   bool   // Whether fixes are written
}

// 🎯 Logger writes the human report to console and mirrors it to zerolog
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	run     *RunInfo
	reports []FileReport
}

// 🏭 New creates a new logger. Structured events go to stderr at level.
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stderr })).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatPlace formats one place under its file line
func formatPlace(p place.Place) string {
	ruleColor := color.FgYellow
	if p.IsCrash() {
		ruleColor = color.FgRed
	}
	return fmt.Sprintf("%*s%s %s %s",
		placeIndent, "",
		color.New(color.Faint).Sprint(fmt.Sprintf("%-*s", positionWidth, fmt.Sprintf("%d:%d", p.Position.Line, p.Position.Column))),
		color.New(ruleColor).Sprint(fmt.Sprintf("%-*s", ruleWidth, p.Rule)),
		p.Message)
}

// 📝 LogFile prints a file line followed by one line per place
func (l *Logger) LogFile(ctx context.Context, r FileReport) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.reports = append(l.reports, r)

	fmt.Fprintln(l.console, status.FormatFileLine(r.Path, r.Status, len(r.Places)))
	for _, p := range r.Places {
		fmt.Fprintln(l.console, formatPlace(p))
	}

	l.zlog.Info().
		Str("file", r.Path).
		Str("status", r.Status.String()).
		Int("places", len(r.Places)).
		Strs("rules", place.RuleNames(r.Places)).
		Msg("file processed")
}

// 📝 StartRun prints the run header
func (l *Logger) StartRun(ctx context.Context, info RunInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.run = &info
	l.reports = nil

	mode := "lint"
	if info.Fix {
		mode = "fix"
	}

	fmt.Fprintf(l.console, "[%s %s]\n",
		mode,
		color.New(color.FgCyan).Sprint(info.Dir))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprintf("%d files", info.Files),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprintf("%d rules", info.Rules))

	l.zlog.Info().
		Str("dir", info.Dir).
		Int("files", info.Files).
		Int("rules", info.Rules).
		Bool("fix", info.Fix).
		Msg("starting run")
}

// 📝 EndRun closes the current run and returns the reports it logged
func (l *Logger) EndRun(ctx context.Context) []FileReport {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.run == nil {
		return nil
	}

	reports := l.reports
	total := 0
	for _, r := range reports {
		total += len(r.Places)
	}

	l.zlog.Info().
		Str("dir", l.run.Dir).
		Int("files", len(reports)).
		Int("places", total).
		Msg("run complete")

	l.run = nil
	l.reports = nil
	return reports
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("sourcefix")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
