package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSourcesResolvesPlainAndFilePatterns(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jsonl"), []byte("{\"id\":1}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.jsonl"), []byte("{\"id\":2}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("nope"), 0o644))

	plainPath := filepath.Join(dir, "a.jsonl")
	p := &Patterns{Resources: map[string]ResourcePattern{
		"plain": {Path: plainPath},
		"docs":  {File: &FilePattern{SubPath: dir, Regex: `\.jsonl$`}},
	}}

	sources, err := BuildSources(p, nil)
	require.NoError(t, err)
	require.Len(t, sources, 2)

	names := []string{sources[0].ResourceName(), sources[1].ResourceName()}
	assert.ElementsMatch(t, []string{"plain", "docs"}, names)
}

func TestBuildSourcesErrorsOnTableWithoutDB(t *testing.T) {
	p := &Patterns{Resources: map[string]ResourcePattern{
		"orders": {Table: &TablePattern{Table: "orders"}},
	}}

	_, err := BuildSources(p, nil)
	require.Error(t, err)
}

func TestBuildSourcesErrorsOnUnimplementedSparql(t *testing.T) {
	p := &Patterns{Resources: map[string]ResourcePattern{
		"people": {Sparql: &SparqlPattern{ClassURI: "http://example.org/Person"}},
	}}

	_, err := BuildSources(p, nil)
	require.Error(t, err)
}

func TestExpandFilePatternErrorsWhenNothingMatches(t *testing.T) {
	dir := t.TempDir()
	_, err := expandFilePattern(&FilePattern{SubPath: dir, Regex: `\.csv$`})
	require.Error(t, err)
}
