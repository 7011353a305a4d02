package datasource

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSONLFileSource reads newline-delimited JSON objects off disk, one
// record per line — the file-pattern case of spec.md §6's "Patterns
// object" (a regex-selected file plus an encoding), narrowed to the one
// encoding graflo's core itself needs to exercise end to end; additional
// encodings belong to ingestion tooling built on top of this package, not
// to the core contract.
type JSONLFileSource struct {
	Name string
	Path string
}

// NewJSONLFileSource builds a JSONLFileSource under resourceName, reading
// records from path.
func NewJSONLFileSource(resourceName, path string) *JSONLFileSource {
	return &JSONLFileSource{Name: resourceName, Path: path}
}

func (s *JSONLFileSource) ResourceName() string { return s.Name }

func (s *JSONLFileSource) IterBatches(_ context.Context, batchSize, limit int) (func() (Batch, error), func() error) {
	if batchSize <= 0 {
		batchSize = 1
	}

	f, openErr := os.Open(s.Path)
	var scanner *bufio.Scanner
	if openErr == nil {
		scanner = bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	}

	drawn := 0
	next := func() (Batch, error) {
		if openErr != nil {
			return nil, fmt.Errorf("open %s: %w", s.Path, openErr)
		}

		var batch Batch
		for len(batch) < batchSize {
			if limit > 0 && drawn >= limit {
				break
			}
			if !scanner.Scan() {
				break
			}
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var rec Record
			if err := json.Unmarshal(line, &rec); err != nil {
				return nil, fmt.Errorf("%s: decode record: %w", s.Path, err)
			}
			batch = append(batch, rec)
			drawn++
		}
		if err := scanner.Err(); err != nil && err != io.EOF {
			return nil, fmt.Errorf("%s: scan: %w", s.Path, err)
		}
		if len(batch) == 0 {
			return nil, nil
		}
		return batch, nil
	}

	closeFn := func() error {
		if f == nil {
			return nil
		}
		return f.Close()
	}

	return next, closeFn
}

// MultiJSONLFileSource reads newline-delimited JSON objects from several
// files in sequence, one logical resource spanning them — the file-pattern
// case of spec.md §6's "Patterns object" when a regex selects more than
// one file under a sub-path.
type MultiJSONLFileSource struct {
	Name  string
	Paths []string
}

// NewMultiJSONLFileSource builds a MultiJSONLFileSource under resourceName,
// reading records from paths in order.
func NewMultiJSONLFileSource(resourceName string, paths []string) *MultiJSONLFileSource {
	return &MultiJSONLFileSource{Name: resourceName, Paths: paths}
}

func (s *MultiJSONLFileSource) ResourceName() string { return s.Name }

func (s *MultiJSONLFileSource) IterBatches(_ context.Context, batchSize, limit int) (func() (Batch, error), func() error) {
	if batchSize <= 0 {
		batchSize = 1
	}

	fileIdx := 0
	var f *os.File
	var scanner *bufio.Scanner
	drawn := 0

	openNext := func() error {
		for {
			if f != nil {
				_ = f.Close()
				f = nil
			}
			if fileIdx >= len(s.Paths) {
				scanner = nil
				return nil
			}
			path := s.Paths[fileIdx]
			fileIdx++
			opened, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			f = opened
			scanner = bufio.NewScanner(f)
			scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
			return nil
		}
	}

	started := false
	next := func() (Batch, error) {
		if !started {
			if err := openNext(); err != nil {
				return nil, err
			}
			started = true
		}

		var batch Batch
		for len(batch) < batchSize {
			if limit > 0 && drawn >= limit {
				break
			}
			if scanner == nil {
				break
			}
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return nil, fmt.Errorf("scan: %w", err)
				}
				if err := openNext(); err != nil {
					return nil, err
				}
				if scanner == nil {
					break
				}
				continue
			}
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var rec Record
			if err := json.Unmarshal(line, &rec); err != nil {
				return nil, fmt.Errorf("decode record: %w", err)
			}
			batch = append(batch, rec)
			drawn++
		}
		if len(batch) == 0 {
			return nil, nil
		}
		return batch, nil
	}

	closeFn := func() error {
		if f == nil {
			return nil
		}
		return f.Close()
	}

	return next, closeFn
}
