package datasource

import "context"

// SliceSource serves records out of an in-memory slice, for tests and for
// small, already-materialized inputs. It is the in-memory analogue of a
// file-backed Source: IterBatches slices Records the same way a file
// reader slices lines read off disk.
type SliceSource struct {
	Name    string
	Records []Record
}

// NewSliceSource builds a SliceSource under resourceName.
func NewSliceSource(resourceName string, records []Record) *SliceSource {
	return &SliceSource{Name: resourceName, Records: records}
}

func (s *SliceSource) ResourceName() string { return s.Name }

func (s *SliceSource) IterBatches(_ context.Context, batchSize, limit int) (func() (Batch, error), func() error) {
	if batchSize <= 0 {
		batchSize = len(s.Records)
		if batchSize == 0 {
			batchSize = 1
		}
	}

	records := s.Records
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}

	pos := 0
	next := func() (Batch, error) {
		if pos >= len(records) {
			return nil, nil
		}
		end := pos + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := Batch(records[pos:end])
		pos = end
		return batch, nil
	}
	return next, func() error { return nil }
}
