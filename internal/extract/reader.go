// Package extract streams the two upstream CSV extracts row by row. Column
// names are a fixed contract with the upstream publisher; a missing required
// column fails the open, before any database work starts.
package extract

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"
)

// csvFile wraps the shared mechanics of both extract readers: buffered
// reads, UTF-8 BOM handling, a header index, and row numbering.
type csvFile struct {
	file   *os.File
	csv    *csv.Reader
	colIdx map[string]int
	rowNum int64
}

func openCSV(filepath string, required []string) (*csvFile, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath, err)
	}

	bufReader := bufio.NewReaderSize(file, 256*1024)

	// Skip UTF-8 BOM if present
	bom, err := bufReader.Peek(3)
	if err == nil && len(bom) >= 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		bufReader.Discard(3)
	}

	reader := csv.NewReader(bufReader)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	f := &csvFile{
		file:   file,
		csv:    reader,
		colIdx: make(map[string]int),
	}

	header, err := reader.Read()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read header row: %w", err)
	}
	f.rowNum++

	for i, h := range header {
		f.colIdx[strings.TrimSpace(h)] = i
	}

	var missing []string
	for _, col := range required {
		if _, ok := f.colIdx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		file.Close()
		sort.Strings(missing)
		return nil, fmt.Errorf("%s: missing required columns: %s",
			filepath, strings.Join(missing, ", "))
	}

	return f, nil
}

// next reads the next non-empty data row.
func (f *csvFile) next() ([]string, error) {
	for {
		row, err := f.csv.Read()
		if err != nil {
			return nil, err
		}
		f.rowNum++

		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		return row, nil
	}
}

// field returns the trimmed value of a named column, or "" when the row is
// short. Column presence was validated at open time.
func (f *csvFile) field(row []string, col string) string {
	i := f.colIdx[col]
	if i >= len(row) {
		return ""
	}
	return strings.ToValidUTF8(strings.TrimSpace(row[i]), "�")
}

// RowNum returns the current CSV row number (1-based, header included).
func (f *csvFile) RowNum() int64 {
	return f.rowNum
}

func (f *csvFile) Close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}
