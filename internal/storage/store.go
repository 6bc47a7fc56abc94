package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/agentlab/internal/abm"
	"github.com/san-kum/agentlab/internal/experiment"
	"github.com/san-kum/agentlab/internal/table"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Timestamp  time.Time      `json:"timestamp"`
	Iterations int            `json:"iterations"`
	Scenarios  []string       `json:"scenarios,omitempty"`
	Runs       int            `json:"runs"`
	RunTime    string         `json:"run_time"`
	Fixed      map[string]any `json:"fixed_parameters,omitempty"`
	Measures   []string       `json:"measures,omitempty"`
	Variables  []string       `json:"variables,omitempty"`
}

// Save writes one experiment output under its own directory: a
// metadata.json next to CSV files for measures, varied parameters and
// each recorded object type.
func (s *Store) Save(out *experiment.Output) (string, error) {
	id := fmt.Sprintf("%s_%d", out.Log.Name, time.Now().Unix())
	dir := filepath.Join(s.baseDir, id)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         id,
		Model:      out.Log.Name,
		Timestamp:  out.Log.Timestamp,
		Iterations: out.Log.Iterations,
		Scenarios:  out.Log.Scenarios,
		Runs:       out.Log.Runs,
		RunTime:    out.Log.RunTime.String(),
		Fixed:      out.Parameters.Fixed,
	}
	if out.Measures != nil {
		meta.Measures = out.Measures.Columns()
	}
	for kind := range out.Variables {
		meta.Variables = append(meta.Variables, kind)
	}

	metaFile, err := os.Create(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if out.Measures != nil {
		if err := writeTable(filepath.Join(dir, "measures.csv"), out.Measures); err != nil {
			return "", err
		}
	}
	if out.Parameters.Varied != nil {
		if err := writeTable(filepath.Join(dir, "parameters.csv"), out.Parameters.Varied); err != nil {
			return "", err
		}
	}
	for kind, t := range out.Variables {
		name := fmt.Sprintf("variables_%s.csv", kind)
		if err := writeTable(filepath.Join(dir, name), t); err != nil {
			return "", err
		}
	}

	return id, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(id string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadOutput reassembles a saved experiment as a full output: the
// metadata plus every table written by [Store.Save]. The result feeds
// the same consumers as a fresh run, exporters included.
func (s *Store) LoadOutput(id string) (*experiment.Output, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, err
	}

	out := &experiment.Output{
		Log: experiment.ExperimentLog{
			Name:       meta.Model,
			Timestamp:  meta.Timestamp,
			Iterations: meta.Iterations,
			Scenarios:  meta.Scenarios,
			Runs:       meta.Runs,
		},
		Parameters: experiment.ParamReport{Fixed: abm.Params(meta.Fixed)},
	}
	if d, err := time.ParseDuration(meta.RunTime); err == nil {
		out.Log.RunTime = d
	}

	if len(meta.Measures) > 0 {
		m, err := s.LoadMeasures(id)
		if err != nil {
			return nil, err
		}
		out.Measures = m
	}

	varied, err := readTable(filepath.Join(s.baseDir, id, "parameters.csv"), 1)
	switch {
	case err == nil:
		out.Parameters.Varied = varied
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	if len(meta.Variables) > 0 {
		out.Variables = make(map[string]*table.Table, len(meta.Variables))
		for _, kind := range meta.Variables {
			t, err := s.LoadVariables(id, kind)
			if err != nil {
				return nil, err
			}
			out.Variables[kind] = t
		}
	}
	return out, nil
}

// LoadMeasures reads a saved measures table back. Numeric cells come
// back as float64, index cells as int where they parse.
func (s *Store) LoadMeasures(id string) (*table.Table, error) {
	return readTable(filepath.Join(s.baseDir, id, "measures.csv"), 1)
}

// LoadVariables reads a saved variables table for one object type.
// The index is (run_id, obj_id, t).
func (s *Store) LoadVariables(id, kind string) (*table.Table, error) {
	name := fmt.Sprintf("variables_%s.csv", kind)
	return readTable(filepath.Join(s.baseDir, id, name), 3)
}

func writeTable(path string, t *table.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := append(t.IndexNames(), t.Columns()...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i := 0; i < t.Len(); i++ {
		row := make([]string, 0, len(header))
		for _, v := range t.Index(i) {
			row = append(row, formatCell(v))
		}
		for _, c := range t.Columns() {
			row = append(row, formatCell(t.At(i, c)))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func readTable(path string, indexWidth int) (*table.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("storage: %s has no header", path)
	}
	header := records[0]
	if len(header) < indexWidth {
		return nil, fmt.Errorf("storage: %s header too narrow for index", path)
	}

	t := table.New(header[:indexWidth], header[indexWidth:])
	for _, record := range records[1:] {
		index := make([]any, indexWidth)
		for j := 0; j < indexWidth; j++ {
			index[j] = parseCell(record[j])
		}
		values := make(map[string]any, len(header)-indexWidth)
		for j := indexWidth; j < len(record); j++ {
			values[header[j]] = parseCell(record[j])
		}
		if err := t.Append(index, values); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func formatCell(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	case int:
		return strconv.Itoa(n)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func parseCell(s string) any {
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
