// Package csvio reads offline catalog files.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/noah-isme/section-scheduler/internal/models"
)

// Catalog is everything an offline run needs.
type Catalog struct {
	Sections    []models.CatalogSection
	Classrooms  []models.ClassroomRow
	Enrollments []models.EnrollmentRow
}

// Paths names the three catalog files.
type Paths struct {
	Sections    string
	Classrooms  string
	Enrollments string
}

// LoadCatalog parses the three catalog files using delim as separator.
func LoadCatalog(paths Paths, delim rune) (*Catalog, error) {
	catalog := &Catalog{}
	if err := loadFile(paths.Sections, delim, &catalog.Sections); err != nil {
		return nil, err
	}
	if err := loadFile(paths.Classrooms, delim, &catalog.Classrooms); err != nil {
		return nil, err
	}
	if err := loadFile(paths.Enrollments, delim, &catalog.Enrollments); err != nil {
		return nil, err
	}
	return catalog, nil
}

func loadFile(path string, delim rune, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := Read(f, delim, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Read decodes csv-tagged records from in into out, a pointer to a slice.
func Read(in io.Reader, delim rune, out interface{}) error {
	r := csv.NewReader(in)
	r.Comma = delim
	r.TrimLeadingSpace = true
	return gocsv.UnmarshalCSV(r, out)
}
