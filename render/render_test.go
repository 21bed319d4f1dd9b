package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/loom/artifact"
	"github.com/teranos/loom/errors"
)

func TestWriterFormatsGoSources(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	src := []byte("package model\ntype User struct{ID string\nName string}\n")
	require.NoError(t, w.WriteFile("shop/model/user.go", src))

	got, err := os.ReadFile(filepath.Join(dir, "shop", "model", "user.go"))
	require.NoError(t, err)
	assert.Contains(t, string(got), "type User struct {\n\tID   string\n\tName string\n}")

	m := w.Metrics()
	assert.Equal(t, 1, m.FilesWritten)
	assert.Equal(t, int64(len(got)), m.BytesWritten)
}

func TestWriterMetricsSince(t *testing.T) {
	w := NewWriter(t.TempDir())
	require.NoError(t, w.WriteFile("a.sql", []byte("12345")))
	before := w.Metrics()

	require.NoError(t, w.WriteFile("a.sql", []byte("123")))
	require.NoError(t, w.EnsureDir("d"))

	delta := w.Metrics().Since(before)
	assert.Equal(t, WriterMetrics{FilesWritten: 1, DirsCreated: 1, BytesWritten: 3}, delta)
	assert.Equal(t, 2, w.Metrics().FilesWritten)
}

func TestWriterLeavesNonGoUntouched(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	require.NoError(t, w.WriteFile("schema.sql", []byte("CREATE TABLE x (id int);")))

	got, err := os.ReadFile(filepath.Join(dir, "schema.sql"))
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE x (id int);", string(got))
}

func TestWriterFormatFailureKeepsSource(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	err := w.WriteFile("broken.go", []byte("package x\nfunc {"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format broken.go")

	_, statErr := os.Stat(filepath.Join(dir, "broken.go.error"))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(dir, "broken.go"))
	assert.True(t, os.IsNotExist(statErr))

	plain := NewWriter(dir, WithFormatGo(false))
	assert.NoError(t, plain.WriteFile("broken.go", []byte("package x\nfunc {")))
}

func TestWriterRejectsEscapingPaths(t *testing.T) {
	w := NewWriter(t.TempDir())
	for _, rel := range []string{"../outside.txt", "a/../../outside.txt", "/etc/passwd"} {
		err := w.WriteFile(rel, []byte("x"))
		assert.True(t, errors.IsInvalidArgument(err), rel)
	}
	assert.True(t, errors.IsInvalidArgument(w.EnsureDir("..")))
}

func TestTemplateSource(t *testing.T) {
	tmpl, err := ParseTemplate("table", `{{define "t"}}{{ .Name | snake | plural }} {{ title .Label }}{{end}}`)
	require.NoError(t, err)

	data := struct{ Name, Label string }{Name: "OrderLine", Label: "order line"}
	out, err := Template(tmpl, "t", data).Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "order_lines Order Line", string(out))

	_, err = ParseTemplate("bad", "{{ .Name ")
	assert.Error(t, err)

	missing, err := ParseTemplate("m", `{{ template "nope" . }}`)
	require.NoError(t, err)
	_, err = Template(missing, "", nil).Render(context.Background())
	assert.Error(t, err)
}

func TestJenAndYAMLSources(t *testing.T) {
	f := jen.NewFile("model")
	f.Type().Id("User").Struct(jen.Id("ID").String())
	out, err := Jen(f).Render(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(out), "package model")
	assert.Contains(t, string(out), "type User struct")

	files := []string{"a.go"}
	src := YAML(func() any { return map[string]any{"files": files} })
	files = append(files, "b.go")
	out, err = src.Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "files:\n  - a.go\n  - b.go\n", string(out))
}

func TestDecoratorsMaterialize(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	root := artifact.NewRoot("run")
	project := artifact.New(artifact.KindProject, "shop")
	folder := artifact.New(artifact.KindFolder, "store")
	file := artifact.New(artifact.KindFile, "schema.sql")
	require.NoError(t, root.AddChild(project))
	require.NoError(t, project.AddChild(folder))
	require.NoError(t, folder.AddChild(file))

	require.NoError(t, project.AddDecorator(NewFolder(w)))
	require.NoError(t, folder.AddDecorator(NewFolder(w)))
	require.NoError(t, file.AddDecorator(NewFile(w, Static([]byte("-- empty\n")))))

	assert.True(t, errors.Is(file.AddDecorator(NewFolder(w)), errors.ErrDecoratorMismatch))
	assert.True(t, errors.Is(folder.AddDecorator(NewFile(w, Static(nil))), errors.ErrDecoratorMismatch))

	require.NoError(t, root.Generate(context.Background()))

	got, err := os.ReadFile(filepath.Join(dir, "shop", "store", "schema.sql"))
	require.NoError(t, err)
	assert.Equal(t, "-- empty\n", string(got))
	assert.Equal(t, 2, w.Metrics().DirsCreated)
}
