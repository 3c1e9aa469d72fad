package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

type jsonExport struct {
	ExportedAt string `json:"exported_at"`
	Count      int    `json:"count"`
	Rows       []Row  `json:"rows"`
}

func WriteJSON(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		return ErrNoData
	}
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(rows),
		Rows:       rows,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return nil
}

func ToJSON(rows []Row, path string) error {
	if len(rows) == 0 {
		return ErrNoData
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, rows); err != nil {
		return err
	}
	return f.Close()
}
