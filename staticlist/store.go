// Package staticlist serves lookup lists (departments, templates,
// security classes) from delimiter-separated files. These lists change
// rarely and live next to the deployment, so the store reads them from
// disk and a cached wrapper keeps hot lists in memory.
package staticlist

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/clearskye/epic-connector/core"
)

// Candidate delimiters, checked in precedence order when sniffing.
var candidateDelimiters = []rune{',', ';', '\t', '|', '^'}

// Query selects rows from a static list. An exact-match filter wins over
// pagination: when Field is set only matching rows return, first match
// first.
type Query struct {
	Field    string
	Value    string
	PageSize int
	Offset   int
}

// Page is one window of list rows.
type Page struct {
	Records []core.Record
	Total   int
}

type Store struct {
	path   string
	logger core.Logger
}

type StoreOption func(*Store)

func WithLogger(logger core.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

func NewStore(path string, options ...StoreOption) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("staticlist: file path is required")
	}
	store := &Store{path: path, logger: glog.Nop()}
	for _, option := range options {
		option(store)
	}
	if store.logger == nil {
		store.logger = glog.Nop()
	}
	return store, nil
}

// Records reads and parses the whole list. The first row is the header;
// every other row becomes a record keyed by the header names, values
// trimmed.
func (s *Store) Records(ctx context.Context) ([]core.Record, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, core.WrapInternalError(err, "staticlist: read list file", map[string]any{
			"path": s.path,
		})
	}
	records, err := parseList(raw)
	if err != nil {
		return nil, err
	}
	s.logger.WithContext(ctx).Debug("static list loaded",
		"path", s.path,
		"records", len(records),
	)
	return records, nil
}

// Search applies the query against the parsed list. An offset past the
// end returns an empty page, not an error.
func (s *Store) Search(ctx context.Context, query Query) (Page, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return Page{}, err
	}
	return applyQuery(records, query), nil
}

func applyQuery(records []core.Record, query Query) Page {
	if strings.TrimSpace(query.Field) != "" {
		for _, record := range records {
			if record[query.Field] == query.Value {
				return Page{Records: []core.Record{record}, Total: len(records)}
			}
		}
		return Page{Records: []core.Record{}, Total: len(records)}
	}

	offset := query.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return Page{Records: []core.Record{}, Total: len(records)}
	}
	end := len(records)
	if query.PageSize > 0 && offset+query.PageSize < end {
		end = offset + query.PageSize
	}
	return Page{Records: records[offset:end], Total: len(records)}
}

func parseList(raw []byte) ([]core.Record, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = sniffDelimiter(raw)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, core.NewBadInputError("staticlist: list file is malformed", map[string]any{
			"error": err.Error(),
		})
	}
	if len(rows) == 0 {
		return []core.Record{}, nil
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.TrimSpace(name)
	}

	records := make([]core.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := core.Record{}
		for i, value := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			record[header[i]] = strings.TrimSpace(value)
		}
		if len(record) > 0 {
			records = append(records, record)
		}
	}
	return records, nil
}

// sniffDelimiter picks the candidate that splits the header row most
// often; comma wins ties through precedence order.
func sniffDelimiter(raw []byte) rune {
	line := raw
	if idx := bytes.IndexByte(raw, '\n'); idx >= 0 {
		line = raw[:idx]
	}
	best := candidateDelimiters[0]
	bestCount := 0
	for _, candidate := range candidateDelimiters {
		count := bytes.Count(line, []byte(string(candidate)))
		if count > bestCount {
			best = candidate
			bestCount = count
		}
	}
	return best
}
