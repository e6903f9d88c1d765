package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/force-scraper/internal/department"
	"github.com/pfrederiksen/force-scraper/internal/scraper"
)

const dateLayout = "2006-01-02"

// Storage writes output files into one directory.
type Storage struct {
	dataDir string
}

// New creates a Storage rooted at dataDir, creating the directory if needed.
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the output directory.
func (s *Storage) Dir() string {
	return s.dataDir
}

// DepartmentsPath returns the department records file for the given run date.
func (s *Storage) DepartmentsPath(date time.Time) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("force-nj-scrape-data-%s.csv", date.Format(dateLayout)))
}

// IncidentsPath returns the incidents file for a department.
func (s *Storage) IncidentsPath(name string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("use_of_force_incidents---%s.csv", scraper.CleanName(name)))
}

// WriteDepartments writes records as CSV and returns the file path. The
// header is the union of record fields in first-seen order; fields a record
// lacks are left empty.
func (s *Storage) WriteDepartments(records []*department.Record, date time.Time) (string, error) {
	path := s.DepartmentsPath(date)
	err := writeFile(path, func(w io.Writer) error {
		return EncodeRecords(w, records)
	})
	if err != nil {
		return "", fmt.Errorf("writing departments: %w", err)
	}
	return path, nil
}

// WriteIncidents writes a department's incidents table as CSV and returns the
// file path.
func (s *Storage) WriteIncidents(name string, table *department.Table) (string, error) {
	path := s.IncidentsPath(name)
	err := writeFile(path, func(w io.Writer) error {
		return EncodeTable(w, table)
	})
	if err != nil {
		return "", fmt.Errorf("writing incidents for %s: %w", name, err)
	}
	return path, nil
}

// WriteJSON writes v as indented JSON next to the CSV outputs, replacing the
// extension of csvPath with .json.
func (s *Storage) WriteJSON(csvPath string, v interface{}) (string, error) {
	path := strings.TrimSuffix(csvPath, filepath.Ext(csvPath)) + ".json"

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding json: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("writing json: %w", err)
	}
	return path, nil
}

// EncodeRecords writes records as CSV to w.
func EncodeRecords(w io.Writer, records []*department.Record) error {
	cols := department.Columns(records)

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	row := make([]string, len(cols))
	for _, r := range records {
		for i, c := range cols {
			row[i] = r.Value(c)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeTable writes table as CSV to w.
func EncodeTable(w io.Writer, table *department.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// writeFile writes through a temporary file in the same directory so a
// failed run never leaves a truncated output behind.
func writeFile(path string, encode func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
