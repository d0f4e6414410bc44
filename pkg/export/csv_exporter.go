package export

import (
	"fmt"
	"reflect"

	"github.com/gocarina/gocsv"
)

// CSVExporter renders a slice of csv-tagged structs.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render marshals records, which must be a slice (or pointer to a slice) of
// structs carrying `csv` tags. The header row is always written.
func (e *CSVExporter) Render(records interface{}) ([]byte, error) {
	v := reflect.ValueOf(records)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("csv export requires a slice, got %T", records)
	}

	out, err := gocsv.MarshalString(records)
	if err != nil {
		return nil, fmt.Errorf("marshal csv: %w", err)
	}
	return []byte(out), nil
}
