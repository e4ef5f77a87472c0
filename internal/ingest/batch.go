package ingest

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "betpulse/internal/errors"
)

// RawBatch is one raw export file as read from disk: a header row and the
// data rows beneath it, all values untyped. Column naming varies between
// export variants; the normalizer resolves columns by name.
type RawBatch struct {
	Source string
	Header []string
	Rows   [][]string
}

// ReadBatch reads a raw batch file, dispatching on extension. Supported
// formats are CSV and XLSX exports.
func ReadBatch(path string) (*RawBatch, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSVBatch(path)
	case ".xlsx":
		return ReadExcelBatch(path)
	default:
		return nil, apperrors.NewParsingError("unsupported batch file format", nil).
			WithContext("path", path)
	}
}

// ReadCSVBatch reads a CSV export file into a RawBatch.
func ReadCSVBatch(path string) (*RawBatch, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open batch file", err).
			WithContext("path", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read CSV batch", err).
			WithContext("path", path)
	}
	if len(records) == 0 {
		return &RawBatch{Source: filepath.Base(path)}, nil
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	return &RawBatch{
		Source: filepath.Base(path),
		Header: header,
		Rows:   records[1:],
	}, nil
}

// ReadExcelBatch reads an XLSX export file into a RawBatch. The first sheet
// containing any rows is used.
func ReadExcelBatch(path string) (*RawBatch, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open Excel batch", err).
			WithContext("path", path)
	}
	defer f.Close()

	var rows [][]string
	for _, name := range f.GetSheetList() {
		sheetRows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		if len(sheetRows) > 0 {
			rows = sheetRows
			break
		}
	}

	if len(rows) == 0 {
		return &RawBatch{Source: filepath.Base(path)}, nil
	}

	return &RawBatch{
		Source: filepath.Base(path),
		Header: rows[0],
		Rows:   rows[1:],
	}, nil
}
