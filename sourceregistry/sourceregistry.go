// Package sourceregistry is the small, mutable layer on top of the
// incremental engine described in spec.md §4.3: it exposes the external
// world (file contents, open editor buffers, parsed configuration) as
// source nodes with monotonic epochs.
//
// Grounded on the teacher's reactive.Resource / AddDependency split
// (reactive/rerunner.go): a Resource there is a push-invalidated leaf a
// computation subscribes to, whereas here each source class is a
// pull-model key read through engine.Engine.ReadSource, but the role is
// the same — the one seam through which the outside world enters the
// memoization graph.
package sourceregistry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/isographlabs/isograph-go/config"
	"github.com/isographlabs/isograph-go/internal/engine"
	"github.com/isographlabs/isograph-go/logger"
)

type sourceClass int

const (
	classFile sourceClass = iota
	classBuffer
	classConfig
	classFileSet
)

// fileSetKey is the singleton engine.SourceKey for the set of relative
// paths to scan for iso literals. Enumerating the project directory is a
// filesystem-watching concern (out of scope, spec.md §1); this is the one
// source node through which that external enumeration enters the engine.
type fileSetKey struct{}

// fileKey is the engine.SourceKey for file-content and buffer-override
// sources: the source class plus the relative path, so that a buffer
// override and the on-disk file for the same path never collide.
type fileKey struct {
	class sourceClass
	path  string
}

// configKey is the singleton engine.SourceKey for the parsed
// configuration.
type configKey struct{}

// Registry owns the Engine and knows how to translate the three source
// classes of spec.md §4.3 into engine.SourceKey values.
type Registry struct {
	engine *engine.Engine
	root   string
	log    logger.Logger
}

// New creates a Registry backed by e, rooted at the pinned working
// directory root (spec.md §4.3, "File content sources, keyed by relative
// path from a pinned working directory"). Disk reads are logged through a
// default stdout logger; SetLogger overrides it.
func New(e *engine.Engine, root string) *Registry {
	return &Registry{engine: e, root: root, log: logger.New()}
}

// SetLogger replaces the Registry's logger. The LSP front end typically
// calls this with a logger routed to its own output channel rather than
// stdout.
func (r *Registry) SetLogger(l logger.Logger) { r.log = l }

// Engine returns the underlying engine, for packages above sourceregistry
// that issue memoized_call.
func (r *Registry) Engine() *engine.Engine { return r.engine }

// SetFileContent stores the UTF-8 contents of the file at relativePath.
// This is how the CLI/LSP front end (out of scope) notifies the engine of
// a change on disk.
func (r *Registry) SetFileContent(relativePath string, contents string) {
	r.engine.SetSource(fileKey{class: classFile, path: relativePath}, contents)
}

// SetBufferOverride stores an open-editor override for relativePath. When
// present, ReadIsoLiteralSource prefers it over the on-disk file — the LSP
// editing channel (spec.md §4.3).
func (r *Registry) SetBufferOverride(relativePath string, contents string) {
	r.engine.SetSource(fileKey{class: classBuffer, path: relativePath}, contents)
}

// ClearBufferOverride removes a buffer override, reverting reads of
// relativePath to the on-disk file. It only sets the override entry back
// to nil; the file content itself is not re-read here, and later reads
// fall back to whatever file content the registry already holds.
func (r *Registry) ClearBufferOverride(relativePath string) {
	r.engine.SetSource(fileKey{class: classBuffer, path: relativePath}, nil)
}

// SetConfig stores the parsed compiler configuration (spec.md §4.3).
func (r *Registry) SetConfig(cfg config.Config) {
	r.engine.SetSource(configKey{}, cfg)
}

// SetIsoLiteralFileSet stores the set of relative paths the schema layer
// should scan for iso literals. Equal slices (by value) do not bump the
// epoch, since []string is compared structurally by the engine's default
// reflect.DeepEqual fallback.
func (r *Registry) SetIsoLiteralFileSet(relativePaths []string) {
	r.engine.SetSource(fileSetKey{}, append([]string{}, relativePaths...))
}

// ReadIsoLiteralFileSet returns the currently-set file set, recording a
// dependency on it.
func (r *Registry) ReadIsoLiteralFileSet() ([]string, bool) {
	v, ok := r.engine.ReadSource(fileSetKey{})
	if !ok {
		return nil, false
	}
	return v.([]string), true
}

// ReadIsoLiteralSource returns the effective text for relativePath: the
// buffer override if one is set and non-nil, otherwise the on-disk file
// content. Both reads happen within the calling memoized function's
// dependency-collection frame, so either source changing invalidates the
// caller.
func (r *Registry) ReadIsoLiteralSource(relativePath string) (string, bool) {
	if override, ok := r.engine.ReadSource(fileKey{class: classBuffer, path: relativePath}); ok && override != nil {
		return override.(string), true
	}
	content, ok := r.engine.ReadSource(fileKey{class: classFile, path: relativePath})
	if !ok {
		return "", false
	}
	return content.(string), true
}

// ReadFileSource is an alias for ReadIsoLiteralSource used by callers
// reading non-iso-literal project files (schema documents, schema
// extensions) through the same buffer-preferring file-content source
// class.
func (r *Registry) ReadFileSource(relativePath string) (string, bool) {
	return r.ReadIsoLiteralSource(relativePath)
}

// ReadConfig returns the currently-set configuration, recording a
// dependency on it.
func (r *Registry) ReadConfig() (config.Config, bool) {
	v, ok := r.engine.ReadSource(configKey{})
	if !ok {
		return config.Config{}, false
	}
	return v.(config.Config), true
}

// LoadSchemaDocuments reads the schema document and every schema extension
// document named by cfg concurrently from disk, then applies them to the
// engine one at a time. The concurrency is pure I/O parallelism outside
// the engine — SetSource itself always runs on the calling goroutine only,
// since the Engine is not safe for concurrent use (spec.md §5).
func (r *Registry) LoadSchemaDocuments(ctx context.Context, cfg config.Config) error {
	paths := append([]string{cfg.Schema}, cfg.SchemaExtensions...)
	contents := make([]string, len(paths))

	g, _ := errgroup.WithContext(ctx)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			abs := filepath.Join(r.root, p)
			b, err := os.ReadFile(abs)
			if err != nil {
				return fmt.Errorf("sourceregistry: reading %s: %w", p, err)
			}
			contents[i] = string(b)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, p := range paths {
		r.SetFileContent(p, contents[i])
	}
	r.log.Info("loaded schema documents", "count", len(paths))
	return nil
}

// LoadFileFromDisk reads relativePath from disk (joined against root) and
// stores it via SetFileContent. This is the one place sourceregistry talks
// to the real filesystem; everything above this package only ever sees
// source nodes.
func (r *Registry) LoadFileFromDisk(relativePath string) error {
	abs := filepath.Join(r.root, relativePath)
	b, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("sourceregistry: reading %s: %w", relativePath, err)
	}
	r.SetFileContent(relativePath, string(b))
	r.log.Debug("loaded file from disk", "path", relativePath)
	return nil
}
