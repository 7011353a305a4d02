package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePatternsFixture(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadPatternsParsesEveryKind(t *testing.T) {
	path := writePatternsFixture(t, `
resources:
  plain: ./data/plain.jsonl
  docs:
    file:
      sub_path: docs
      regex: ".*\\.json$"
      encoding: utf-8
  people:
    sparql:
      class_uri: "http://example.org/Person"
      endpoint: "http://sparql.example.org/query"
  orders:
    table:
      table: orders
      schema: public
      date_field: created_at
      date_filter: "created_at > '2026-01-01'"
`)

	p, err := LoadPatterns(path)
	require.NoError(t, err)

	assert.Equal(t, "./data/plain.jsonl", p.Resources["plain"].Path)
	require.NotNil(t, p.Resources["docs"].File)
	assert.Equal(t, "docs", p.Resources["docs"].File.SubPath)
	require.NotNil(t, p.Resources["people"].Sparql)
	assert.Equal(t, "http://example.org/Person", p.Resources["people"].Sparql.ClassURI)
	require.NotNil(t, p.Resources["orders"].Table)
	assert.Equal(t, "orders", p.Resources["orders"].Table.Table)
}

func TestLoadPatternsRejectsAmbiguousResource(t *testing.T) {
	path := writePatternsFixture(t, `
resources:
  broken:
    file:
      regex: ".*"
    table:
      table: orders
`)

	_, err := LoadPatterns(path)
	require.Error(t, err)
}

func TestLoadPatternsRejectsUnknownTopLevelKey(t *testing.T) {
	path := writePatternsFixture(t, `
resources:
  plain: ./data/plain.jsonl
extra: true
`)

	_, err := LoadPatterns(path)
	require.Error(t, err)
}
