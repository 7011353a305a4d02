package config

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/growgraph/graflo/datasource"
)

// BuildSources resolves a Patterns file into concrete data sources, one
// per declared resource (spec.md §6: "Used by the orchestrator to
// enumerate data sources"). Table patterns need an open database
// connection to query from; db may be nil when no resource uses one.
func BuildSources(p *Patterns, db *sql.DB) ([]datasource.Source, error) {
	names := make([]string, 0, len(p.Resources))
	for name := range p.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	sources := make([]datasource.Source, 0, len(names))
	for _, name := range names {
		rp := p.Resources[name]
		src, err := buildOne(name, rp, db)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func buildOne(name string, rp ResourcePattern, db *sql.DB) (datasource.Source, error) {
	switch {
	case rp.Path != "":
		return datasource.NewJSONLFileSource(name, rp.Path), nil
	case rp.File != nil:
		paths, err := expandFilePattern(rp.File)
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w", name, err)
		}
		return datasource.NewMultiJSONLFileSource(name, paths), nil
	case rp.Table != nil:
		if db == nil {
			return nil, fmt.Errorf("resource %q needs a database connection for its table source", name)
		}
		return datasource.NewTableSource(name, db, rp.Table.Table, rp.Table.Schema, rp.Table.DateFilter), nil
	case rp.Sparql != nil:
		return nil, fmt.Errorf("resource %q: SPARQL sources are not implemented", name)
	default:
		return nil, fmt.Errorf("resource %q: no source descriptor set", name)
	}
}

// expandFilePattern lists files directly under the pattern's sub-path
// whose name matches its regex, sorted for deterministic ingestion order.
func expandFilePattern(fp *FilePattern) ([]string, error) {
	re, err := regexp.Compile(fp.Regex)
	if err != nil {
		return nil, fmt.Errorf("file pattern regex %q: %w", fp.Regex, err)
	}

	entries, err := os.ReadDir(fp.SubPath)
	if err != nil {
		return nil, fmt.Errorf("read sub_path %q: %w", fp.SubPath, err)
	}

	var matches []string
	for _, e := range entries {
		if e.IsDir() || !re.MatchString(e.Name()) {
			continue
		}
		matches = append(matches, filepath.Join(fp.SubPath, e.Name()))
	}
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no file under %q matched %q", fp.SubPath, fp.Regex)
	}
	return matches, nil
}
