// Package loader discovers T-SQL scripts on disk and turns them into
// parsed script models.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/parser"
	"github.com/leapstack-labs/leapcheck/pkg/suppress"
)

// ErrNoScripts is returned when discovery finds nothing to analyze.
var ErrNoScripts = errors.New("no scripts found")

// DefaultInclude is used when Options.Include is empty.
var DefaultInclude = []string{"**/*.sql"}

// Options configures discovery and loading.
type Options struct {
	Root            string   // Directory to walk; defaults to "."
	Include         []string // Globs relative to Root; "**" spans directories
	Exclude         []string // Globs relative to Root; a matching directory is skipped whole
	DefaultDatabase string   // Database for scripts that never issue USE
	Logger          *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

func (o Options) root() string {
	if o.Root == "" {
		return "."
	}
	return o.Root
}

// Result is the outcome of a load.
type Result struct {
	Scripts  []*core.ScriptModel
	Hashes   map[string]string // script path -> sha256 of its content
	Errors   []LoadError
	Duration time.Duration
}

// LoadError is a non-fatal problem with a single file.
type LoadError struct {
	Path    string
	Type    string // "read"
	Message string
}

func (e LoadError) Error() string {
	return fmt.Sprintf("%s: %s error: %s", e.Path, e.Type, e.Message)
}

// HasErrors returns true if any file could not be read.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Discover walks opts.Root and returns the slash-separated paths, relative to
// the root, of every file matching the include globs and none of the excludes.
// Hidden directories are never entered.
func Discover(opts Options) ([]string, error) {
	root := opts.root()
	include := opts.Include
	if len(include) == 0 {
		include = DefaultInclude
	}

	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || matchAny(opts.Exclude, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if matchAny(include, rel) && !matchAny(opts.Exclude, rel) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(files)
	opts.logger().Debug("discovered scripts", "root", root, "count", len(files))
	return files, nil
}

// Load discovers scripts under opts.Root and parses every one of them.
func Load(ctx context.Context, opts Options) (*Result, error) {
	files, err := Discover(opts)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoScripts, opts.root())
	}
	return LoadFiles(ctx, opts, files)
}

// LoadFiles parses the given files. Relative paths are resolved against
// opts.Root and kept as the script path. Unreadable files are recorded in
// Result.Errors and skipped; scripts that fail to parse are still returned
// with their errors attached.
func LoadFiles(ctx context.Context, opts Options, files []string) (*Result, error) {
	start := time.Now()
	logger := opts.logger()
	result := &Result{Hashes: make(map[string]string, len(files))}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		full := file
		if !filepath.IsAbs(full) {
			full = filepath.Join(opts.root(), filepath.FromSlash(file))
		}
		content, err := os.ReadFile(full) //nolint:gosec // G304: paths come from discovery or the command line
		if err != nil {
			logger.Debug("failed to read script", "path", file, "error", err.Error())
			result.Errors = append(result.Errors, LoadError{Path: file, Type: "read", Message: err.Error()})
			continue
		}

		script := ParseSource(file, opts.DefaultDatabase, string(content))
		if script.HasErrors() {
			logger.Debug("script has parse errors", "path", file, "errors", len(script.Errors))
		}
		result.Scripts = append(result.Scripts, script)
		result.Hashes[file] = computeHash(content)
	}

	result.Duration = time.Since(start)
	logger.Info("loaded scripts",
		"count", len(result.Scripts),
		"errors", len(result.Errors),
		"duration_ms", result.Duration.Milliseconds())
	return result, nil
}

// ParseSource builds a script model from text already in memory.
func ParseSource(path, database, text string) *core.ScriptModel {
	root, errs := parser.Parse(text)
	return core.NewScriptModel(database, path, text, root, errs, suppress.Extract(root))
}

func computeHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}
