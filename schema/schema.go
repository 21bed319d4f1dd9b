// Package schema is the domain model generators consume, plus the default
// file-based loader.
package schema

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/teranos/loom/errors"
)

// Schema describes the entities to generate code for.
type Schema struct {
	Name     string   `json:"name" yaml:"name" toml:"name"`
	Package  string   `json:"package" yaml:"package" toml:"package"`
	Entities []Entity `json:"entities" yaml:"entities" toml:"entities"`
}

// Entity is one table/type of the schema.
type Entity struct {
	Name   string  `json:"name" yaml:"name" toml:"name"`
	Table  string  `json:"table,omitempty" yaml:"table,omitempty" toml:"table,omitempty"`
	Fields []Field `json:"fields" yaml:"fields" toml:"fields"`
}

// Field is one column of an entity.
type Field struct {
	Name       string `json:"name" yaml:"name" toml:"name"`
	Type       string `json:"type" yaml:"type" toml:"type"`
	Nullable   bool   `json:"nullable,omitempty" yaml:"nullable,omitempty" toml:"nullable,omitempty"`
	PrimaryKey bool   `json:"primary_key,omitempty" yaml:"primary_key,omitempty" toml:"primary_key,omitempty"`
}

// Supported field types.
var fieldTypes = map[string]bool{
	"string": true, "text": true, "int": true, "int64": true, "float": true,
	"bool": true, "time": true, "uuid": true, "bytes": true,
}

// TableName returns the explicit table name or the pluralized snake_case entity name.
func (e Entity) TableName() string {
	if e.Table != "" {
		return e.Table
	}
	return inflect.Pluralize(inflect.Underscore(e.Name))
}

// PrimaryKey returns the primary key field, if any.
func (e Entity) PrimaryKey() (Field, bool) {
	for _, f := range e.Fields {
		if f.PrimaryKey {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks the schema for missing names, duplicates and unknown types.
// All problems are reported together.
func (s *Schema) Validate() error {
	var problems []string
	if strings.TrimSpace(s.Name) == "" {
		problems = append(problems, "schema name is required")
	}
	seen := make(map[string]bool)
	for i, e := range s.Entities {
		if e.Name == "" {
			problems = append(problems, fmt.Sprintf("entities[%d]: name is required", i))
			continue
		}
		if seen[e.Name] {
			problems = append(problems, fmt.Sprintf("entity %s: declared twice", e.Name))
		}
		seen[e.Name] = true

		fields := make(map[string]bool)
		pks := 0
		for j, f := range e.Fields {
			switch {
			case f.Name == "":
				problems = append(problems, fmt.Sprintf("entity %s: fields[%d]: name is required", e.Name, j))
			case fields[f.Name]:
				problems = append(problems, fmt.Sprintf("entity %s: field %s declared twice", e.Name, f.Name))
			case !fieldTypes[f.Type]:
				problems = append(problems, fmt.Sprintf("entity %s: field %s has unknown type %q", e.Name, f.Name, f.Type))
			}
			fields[f.Name] = true
			if f.PrimaryKey {
				pks++
			}
		}
		if pks > 1 {
			problems = append(problems, fmt.Sprintf("entity %s: more than one primary key", e.Name))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	err := errors.Newf("invalid schema: %s", strings.Join(problems, "; "))
	return errors.WithHint(err, "supported field types: string, text, int, int64, float, bool, time, uuid, bytes")
}
