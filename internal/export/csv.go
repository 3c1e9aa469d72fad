package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const bom = "\ufeff"

// WriteCSV writes rows for spreadsheet tools set to French: UTF-8 BOM,
// semicolon separated, every field quoted, LF between lines.
func WriteCSV(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		return ErrNoData
	}
	bw := bufio.NewWriter(w)
	bw.WriteString(bom)
	writeLine(bw, Header)
	for _, r := range rows {
		bw.WriteByte('\n')
		writeLine(bw, r.Fields())
	}
	return bw.Flush()
}

func writeLine(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(';')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
}

func ToCSV(rows []Row, path string) error {
	if len(rows) == 0 {
		return ErrNoData
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}
