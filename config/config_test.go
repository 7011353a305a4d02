package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadSchemaParsesAndInitializes(t *testing.T) {
	path := writeFixture(t, `
general:
  name: demo
vertex_config:
  vertices:
    - name: person
      fields:
        - id
resources:
  - name: people
    pipeline:
      - vertex: person
`)

	s, err := LoadSchema(path)
	require.NoError(t, err)
	require.NotNil(t, s)

	_, ok := s.ResourceByName("people")
	assert.True(t, ok)
}

func TestLoadSchemaRejectsUnknownTopLevelKey(t *testing.T) {
	path := writeFixture(t, `
general:
  name: demo
vertex_config:
  vertices:
    - name: person
resources:
  - name: people
    pipeline:
      - vertex: person
unexpected_key: true
`)

	_, err := LoadSchema(path)
	require.Error(t, err)
}

func TestLoadSchemaAllowsUnknownVertexKey(t *testing.T) {
	path := writeFixture(t, `
general:
  name: demo
vertex_config:
  vertices:
    - name: person
      fields:
        - id
      some_future_key: ignored
resources:
  - name: people
    pipeline:
      - vertex: person
`)

	s, err := LoadSchema(path)
	require.NoError(t, err, "Expected an unrecognized Vertex key to be silently ignored, not rejected")
	require.NotNil(t, s)
}

func TestLoadSchemaMissingFileErrors(t *testing.T) {
	_, err := LoadSchema(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
