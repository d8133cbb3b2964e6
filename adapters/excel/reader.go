// Package excel reads wide-format spreadsheet and CSV files into time
// series: first column holds dates, every other column is one series.
package excel

import (
	"encoding/csv"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"ecocausal/domain/series"
	"ecocausal/internal/errors"
)

// missingMarkers are cell values treated as absent observations
var missingMarkers = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"-":    true,
	"null": true,
}

// Reader satisfies ports.SeriesReader for any supported file type
type Reader struct{}

// NewReader creates a path-agnostic series reader
func NewReader() *Reader {
	return &Reader{}
}

// ReadSeries reads every series column from the file at path
func (*Reader) ReadSeries(path string) ([]series.TimeSeries, error) {
	return NewDataReader(path).Read()
}

// DataReader handles reading one Excel or CSV file
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// Read loads the file. Blank cells and common missing-value markers are
// skipped; any other non-numeric cell is an ingest error.
func (r *DataReader) Read() ([]series.TimeSeries, error) {
	log.Printf("[DataReader] Reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.IngestError(r.filePath, err)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errors.IngestError(r.filePath,
			errors.InvalidInput("file must have a header row and at least one data row"))
	}
	return r.processRows(rows)
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.IngestError(r.filePath, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, errors.IngestError(r.filePath, err)
	}
	log.Printf("[DataReader] Sheet read (%d rows)", len(rows))
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.IngestError(r.filePath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.IngestError(r.filePath, err)
	}
	log.Printf("[DataReader] CSV read (%d rows)", len(rows))
	return rows, nil
}

// processRows converts raw string rows into one series per value column
func (r *DataReader) processRows(rows [][]string) ([]series.TimeSeries, error) {
	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(header)
	}
	if len(headers) < 2 {
		return nil, errors.IngestError(r.filePath,
			errors.InvalidInput("file needs a date column and at least one series column"))
	}

	list := make([]series.TimeSeries, 0, len(headers)-1)
	for col := 1; col < len(headers); col++ {
		name, unit := splitHeader(headers[col])
		ts := series.TimeSeries{ID: slug(name), Name: name, Unit: unit}

		for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
			row := rows[rowIdx]
			if len(row) == 0 || col >= len(row) {
				continue
			}
			date := strings.TrimSpace(row[0])
			cell := strings.TrimSpace(row[col])
			if date == "" || missingMarkers[strings.ToLower(cell)] {
				continue
			}
			value, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errors.IngestError(r.filePath, errors.InvalidInput(
					"row "+strconv.Itoa(rowIdx+1)+" column "+headers[col]+" is not numeric: "+cell))
			}
			ts.DataPoints = append(ts.DataPoints, series.DataPoint{Date: date, Value: value})
		}

		if err := ts.Validate(); err != nil {
			return nil, errors.IngestError(r.filePath, err)
		}
		list = append(list, ts)
	}

	log.Printf("[DataReader] %s file processed (%d series)", strings.ToUpper(r.fileType), len(list))
	return list, nil
}

// splitHeader separates a trailing parenthesized unit from the name,
// e.g. "Sea Surface Temperature (°C)".
func splitHeader(header string) (string, string) {
	if !strings.HasSuffix(header, ")") {
		return header, ""
	}
	open := strings.LastIndex(header, "(")
	if open <= 0 {
		return header, ""
	}
	name := strings.TrimSpace(header[:open])
	unit := strings.TrimSpace(header[open+1 : len(header)-1])
	if name == "" || unit == "" {
		return header, ""
	}
	return name, unit
}

func slug(name string) string {
	cleaned := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastUnderscore := false
	for _, r := range cleaned {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
