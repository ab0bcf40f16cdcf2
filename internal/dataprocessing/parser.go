package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/blake2b"
)

// Supported source formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RawTable is a source file as header plus string cells, before any cleaning
type RawTable struct {
	Source string
	Header []string
	Rows   [][]string
}

// Source identifies a dataset file and how to read it
type Source struct {
	Path      string
	Format    string
	Delimiter rune
	Sheet     string
}

// ResolvedFormat returns the explicit format or the one implied by the extension
func (s Source) ResolvedFormat() string {
	if s.Format != "" {
		return strings.ToLower(s.Format)
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(s.Path)), ".")
}

// Key is the cache identity of the source
func (s Source) Key() string {
	path := s.Path
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	key := path + "|" + s.ResolvedFormat()
	if s.Sheet != "" {
		key += "|" + s.Sheet
	}
	return key
}

// ReadSource reads the file behind src and returns its raw table together
// with a content fingerprint.
func ReadSource(src Source) (RawTable, string, error) {
	data, err := os.ReadFile(src.Path)
	if err != nil {
		kind := LoadUnreadable
		if errors.Is(err, fs.ErrNotExist) {
			kind = LoadNotFound
		}
		return RawTable{}, "", &LoadError{Source: src.Path, Kind: kind, Err: err}
	}

	sum := blake2b.Sum256(data)
	fingerprint := hex.EncodeToString(sum[:])

	var raw RawTable
	switch src.ResolvedFormat() {
	case FormatCSV:
		raw, err = ReadCSV(bytes.NewReader(data), src.Delimiter)
	case FormatXLSX:
		raw, err = ReadXLSX(bytes.NewReader(data), src.Sheet)
	default:
		return RawTable{}, "", &LoadError{
			Source: src.Path,
			Kind:   LoadUnsupportedFormat,
			Detail: fmt.Sprintf("format %q", src.ResolvedFormat()),
		}
	}
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Source = src.Path
			return RawTable{}, "", le
		}
		return RawTable{}, "", &LoadError{Source: src.Path, Kind: LoadUnreadable, Err: err}
	}

	raw.Source = src.Path
	return raw, fingerprint, nil
}

// ReadCSV reads a delimited file with a header row. A zero delimiter means comma.
// A leading UTF-8 byte order mark is ignored.
func ReadCSV(r io.Reader, delimiter rune) (RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return RawTable{}, &LoadError{Kind: LoadUnreadable, Err: err}
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	// Short rows surface as empty cells during normalization
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return RawTable{}, &LoadError{Kind: LoadUnreadable, Err: err}
	}

	return fromRecords(records)
}

// ReadXLSX reads a workbook. An empty sheet name selects the first sheet.
func ReadXLSX(r io.Reader, sheet string) (RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return RawTable{}, &LoadError{Kind: LoadUnreadable, Err: err}
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return RawTable{}, &LoadError{Kind: LoadEmpty, Detail: "workbook has no sheets"}
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return RawTable{}, &LoadError{Kind: LoadUnreadable, Detail: fmt.Sprintf("sheet %q", sheet), Err: err}
	}

	return fromRecords(rows)
}

func fromRecords(records [][]string) (RawTable, error) {
	if len(records) == 0 {
		return RawTable{}, &LoadError{Kind: LoadEmpty, Detail: "no header row"}
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	return RawTable{Header: header, Rows: records[1:]}, nil
}
