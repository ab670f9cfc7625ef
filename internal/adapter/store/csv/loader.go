// Package csv provides CSV-based domain catalog loading.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.ngs.io/forecast-api/internal/adapter/store"
	"go.ngs.io/forecast-api/internal/domain"
)

var expectedHeaders = []string{"model", "domain", "priority", "dt_seconds", "directory"}

// CatalogStore reads the domain catalog from a CSV file.
type CatalogStore struct {
	path string
}

// NewCatalogStore creates a new CSV-based catalog store.
func NewCatalogStore(path string) *CatalogStore {
	return &CatalogStore{
		path: path,
	}
}

// Load reads every row of the catalog file.
func (s *CatalogStore) Load() (*store.Catalog, error) {
	//nolint:gosec // G304: Catalog path comes from configuration.
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file %s: %w", s.path, err)
	}
	defer func() { _ = file.Close() }()

	return Parse(file)
}

// Parse reads a catalog from r.
func Parse(r io.Reader) (*store.Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	// Read header.
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// Validate header.
	if len(header) != len(expectedHeaders) {
		return nil, fmt.Errorf("invalid CSV header: expected %v, got %v", expectedHeaders, header)
	}
	for i, h := range header {
		if strings.TrimSpace(h) != expectedHeaders[i] {
			return nil, fmt.Errorf("invalid CSV header: expected column %d to be %s, got %s", i, expectedHeaders[i], h)
		}
	}

	// Read data rows.
	entries := make([]store.DomainConfig, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		model := strings.TrimSpace(record[0])
		name := strings.TrimSpace(record[1])

		priority, err := strconv.Atoi(strings.TrimSpace(record[2]))
		if err != nil {
			return nil, fmt.Errorf("invalid priority for domain %s: %w", name, err)
		}
		dt, err := strconv.Atoi(strings.TrimSpace(record[3]))
		if err != nil {
			return nil, fmt.Errorf("invalid dt_seconds for domain %s: %w", name, err)
		}

		dir := strings.TrimSpace(record[4])
		if dir == "" {
			dir = name
		}

		entries = append(entries, store.DomainConfig{
			Model:     model,
			Domain:    domain.Domain(name),
			Priority:  priority,
			DtSeconds: dt,
			Directory: dir,
		})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no domains found in catalog")
	}

	return store.NewCatalog(entries)
}
