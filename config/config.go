// Package config loads the compiler's JSON configuration file, described
// in spec.md §6. Loading is a plain, un-memoized file read performed by the
// CLI/LSP front end (out of scope per spec.md §1); the parsed Config value
// itself becomes a single source node managed by sourceregistry.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OnInvalidIDType controls the severity of a violation of the "id field
// must be non-null ID" rule (spec.md §4.5.2, §6).
type OnInvalidIDType string

const (
	OnInvalidIDIgnore OnInvalidIDType = "ignore"
	OnInvalidIDWarn   OnInvalidIDType = "warn"
	OnInvalidIDError  OnInvalidIDType = "error"
)

func (o OnInvalidIDType) valid() bool {
	switch o {
	case OnInvalidIDIgnore, OnInvalidIDWarn, OnInvalidIDError:
		return true
	}
	return false
}

// Options holds the compiler's boolean/enum flags (spec.md §6).
type Options struct {
	OnInvalidIDType                         OnInvalidIDType `json:"on_invalid_id_type"`
	IncludeFileExtensionsInImportStatements bool            `json:"include_file_extensions_in_import_statements"`
}

// Config is the single JSON object described in spec.md §6. Unknown fields
// are rejected by Parse via json.Decoder.DisallowUnknownFields.
type Config struct {
	ProjectRoot        string   `json:"project_root"`
	ArtifactDirectory  string   `json:"artifact_directory,omitempty"`
	Schema             string   `json:"schema"`
	SchemaExtensions   []string `json:"schema_extensions,omitempty"`
	Options            Options  `json:"options"`
}

// Defaults are applied by Parse whenever the corresponding JSON field is
// absent.
func defaults() Config {
	return Config{
		Options: Options{
			OnInvalidIDType: OnInvalidIDError,
		},
	}
}

// Parse decodes raw JSON bytes into a Config, applying defaults and
// rejecting unknown top-level or nested fields. This is a fatal
// configuration error per spec.md §7 when it fails.
func Parse(raw []byte) (Config, error) {
	cfg := defaults()

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if cfg.ProjectRoot == "" {
		return Config{}, fmt.Errorf("config: project_root is required")
	}
	if cfg.Schema == "" {
		return Config{}, fmt.Errorf("config: schema is required")
	}
	if cfg.ArtifactDirectory == "" {
		cfg.ArtifactDirectory = cfg.ProjectRoot
	}
	if !cfg.Options.OnInvalidIDType.valid() {
		return Config{}, fmt.Errorf("config: invalid options.on_invalid_id_type %q", cfg.Options.OnInvalidIDType)
	}
	return cfg, nil
}

// Equal implements the engine's optional value-equality interface so that
// setting an equal Config as the source value (spec.md §4.2.2) does not
// bump the epoch.
func (c Config) Equal(other interface{}) bool {
	o, ok := other.(Config)
	if !ok {
		return false
	}
	if c.ProjectRoot != o.ProjectRoot || c.ArtifactDirectory != o.ArtifactDirectory || c.Schema != o.Schema {
		return false
	}
	if c.Options != o.Options {
		return false
	}
	if len(c.SchemaExtensions) != len(o.SchemaExtensions) {
		return false
	}
	for i := range c.SchemaExtensions {
		if c.SchemaExtensions[i] != o.SchemaExtensions[i] {
			return false
		}
	}
	return true
}
