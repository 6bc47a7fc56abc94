package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/agentlab/internal/experiment"
	"github.com/san-kum/agentlab/internal/table"
)

type ExportData struct {
	Model      string                  `json:"model"`
	Iterations int                     `json:"iterations"`
	Scenarios  []string                `json:"scenarios,omitempty"`
	Runs       int                     `json:"runs"`
	Fixed      map[string]any          `json:"fixed_parameters,omitempty"`
	Varied     *ExportTable            `json:"varied_parameters,omitempty"`
	Measures   *ExportTable            `json:"measures,omitempty"`
	Variables  map[string]*ExportTable `json:"variables,omitempty"`
}

// ExportTable is the row-oriented JSON shape of a table.
type ExportTable struct {
	Index   []string         `json:"index"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

func exportTable(t *table.Table) *ExportTable {
	if t == nil {
		return nil
	}
	out := &ExportTable{Index: t.IndexNames(), Columns: t.Columns()}
	for i := 0; i < t.Len(); i++ {
		row := make(map[string]any, len(out.Index)+len(out.Columns))
		idx := t.Index(i)
		for j, name := range out.Index {
			row[name] = idx[j]
		}
		for _, c := range out.Columns {
			row[c] = t.At(i, c)
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// ExportJSON writes one experiment output as a single JSON document.
func ExportJSON(path string, out *experiment.Output) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return exportJSON(file, out)
}

// ExportJSONStdout writes the output to standard out.
func ExportJSONStdout(out *experiment.Output) error {
	return exportJSON(os.Stdout, out)
}

func exportJSON(w io.Writer, out *experiment.Output) error {
	data := ExportData{
		Model:      out.Log.Name,
		Iterations: out.Log.Iterations,
		Scenarios:  out.Log.Scenarios,
		Runs:       out.Log.Runs,
		Fixed:      out.Parameters.Fixed,
		Varied:     exportTable(out.Parameters.Varied),
		Measures:   exportTable(out.Measures),
	}
	if len(out.Variables) > 0 {
		data.Variables = make(map[string]*ExportTable, len(out.Variables))
		for kind, t := range out.Variables {
			data.Variables[kind] = exportTable(t)
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
