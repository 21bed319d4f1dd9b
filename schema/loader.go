package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/teranos/loom/errors"
)

// Loader loads and parses a schema. Implementations must honour ctx.
type Loader interface {
	LoadSchema(ctx context.Context, path string) (*Schema, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, path string) (*Schema, error)

// LoadSchema implements Loader.
func (f LoaderFunc) LoadSchema(ctx context.Context, path string) (*Schema, error) {
	return f(ctx, path)
}

// FileLoader reads schemas from disk, choosing the decoder by extension:
// .yaml/.yml, .toml or .json.
type FileLoader struct{}

// LoadSchema implements Loader.
func (FileLoader) LoadSchema(ctx context.Context, path string) (*Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read schema %s", path)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s, err := Decode(filepath.Ext(path), data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse schema %s", path)
	}
	if err := s.Validate(); err != nil {
		return nil, errors.Wrapf(err, "schema %s", path)
	}
	return s, nil
}

// Decode parses data in the format named by ext.
func Decode(ext string, data []byte) (*Schema, error) {
	var s Schema
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			return nil, errors.Wrap(err, "yaml")
		}
	case ".toml":
		md, err := toml.Decode(string(data), &s)
		if err != nil {
			return nil, errors.Wrap(err, "toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.Newf("toml: unknown keys %v", undecoded)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, errors.Wrap(err, "json")
		}
	default:
		err := errors.NewInvalidArgumentError("unsupported schema format %q", ext)
		return nil, errors.WithHint(err, "use a .yaml, .yml, .toml or .json file")
	}
	return &s, nil
}
