package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/agentlab/internal/config"
	"github.com/san-kum/agentlab/internal/experiment"
	"github.com/san-kum/agentlab/internal/sense"
	"github.com/san-kum/agentlab/internal/storage"
	"github.com/san-kum/agentlab/internal/table"
	"github.com/san-kum/agentlab/internal/viz"
)

var (
	dataDir    string
	iterations int
	workers    int
	record     bool
	scenarios  []string
	sets       []string
	sweeps     []string
	configFile string
	preset     string
	noSave     bool
	exportPath string
	progress   bool
	sensitive  bool
	// Plot selection
	measureName string
	varName     string
	varKind     string
	runID       int
	objID       int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "agentlab",
		Short: "agent-based modeling and experiment lab",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to the interactive explorer when no command given
			return viz.RunExplorer(experiment.NewRegistry())
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".agentlab", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run a model once",
		Args:  cobra.ExactArgs(1),
		RunE:  runModel,
	}
	runCmd.Flags().StringArrayVar(&sets, "set", nil, "override a parameter (key=value)")
	runCmd.Flags().BoolVar(&record, "record", true, "record dynamic variables")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "skip writing to the data directory")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	expCmd := &cobra.Command{
		Use:   "experiment [model]",
		Short: "run a multi-run experiment",
		Args:  cobra.ExactArgs(1),
		RunE:  runExperiment,
	}
	expCmd.Flags().IntVar(&iterations, "iterations", 1, "repetitions per sample")
	expCmd.Flags().IntVar(&workers, "workers", 1, "parallel workers")
	expCmd.Flags().BoolVar(&record, "record", false, "record dynamic variables")
	expCmd.Flags().StringSliceVar(&scenarios, "scenario", nil, "scenario names")
	expCmd.Flags().StringArrayVar(&sets, "set", nil, "override a parameter (key=value)")
	expCmd.Flags().StringArrayVar(&sweeps, "sweep", nil, "sweep a parameter (key=min:max:n)")
	expCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	expCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	expCmd.Flags().BoolVar(&progress, "progress", false, "live progress display")
	expCmd.Flags().BoolVar(&sensitive, "sense", false, "report parameter sensitivity")
	expCmd.Flags().BoolVar(&noSave, "no-save", false, "skip writing to the data directory")

	sampleCmd := &cobra.Command{
		Use:   "sample [model]",
		Short: "preview the expanded parameter samples",
		Args:  cobra.ExactArgs(1),
		RunE:  previewSamples,
	}
	sampleCmd.Flags().StringArrayVar(&sets, "set", nil, "override a parameter (key=value)")
	sampleCmd.Flags().StringArrayVar(&sweeps, "sweep", nil, "sweep a parameter (key=min:max:n)")
	sampleCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	sampleCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored experiments",
		RunE:  listExperiments,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [experiment_id]",
		Short: "plot stored results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotExperiment,
	}
	plotCmd.Flags().StringVar(&measureName, "measure", "", "measure to plot across runs")
	plotCmd.Flags().StringVar(&varName, "var", "", "recorded variable to plot over time")
	plotCmd.Flags().StringVar(&varKind, "kind", "model", "object type of the variable")
	plotCmd.Flags().IntVar(&runID, "run", 0, "run id for variable plots")
	plotCmd.Flags().IntVar(&objID, "obj", 0, "object id for variable plots")

	exportCmd := &cobra.Command{
		Use:   "export [experiment_id]",
		Short: "export a stored experiment as a single JSON document",
		Args:  cobra.ExactArgs(1),
		RunE:  exportExperiment,
	}
	exportCmd.Flags().StringVar(&exportPath, "out", "", "write to a file instead of stdout")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list available models",
		RunE:  listModels,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	exploreCmd := &cobra.Command{
		Use:   "explore",
		Short: "interactive model explorer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunExplorer(experiment.NewRegistry())
		},
	}

	rootCmd.AddCommand(runCmd, expCmd, sampleCmd, listCmd, plotCmd, exportCmd, modelsCmd, presetsCmd, exploreCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildConfig resolves precedence: preset, then config file, then flags.
func buildConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Model = model

	if preset != "" {
		p := config.GetPreset(model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("iterations") {
		cfg.Iterations = iterations
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("record") {
		cfg.Record = record
	}
	if cmd.Flags().Changed("scenario") {
		cfg.Scenarios = scenarios
	}

	if len(sets) > 0 && cfg.Parameters == nil {
		cfg.Parameters = make(map[string]any)
	}
	for _, s := range sets {
		key, value, err := parseSet(s)
		if err != nil {
			return nil, err
		}
		cfg.Parameters[key] = value
	}

	if len(sweeps) > 0 && cfg.Sweeps == nil {
		cfg.Sweeps = make(map[string]config.Sweep)
	}
	for _, s := range sweeps {
		key, sweep, err := parseSweep(s)
		if err != nil {
			return nil, err
		}
		cfg.Sweeps[key] = sweep
	}

	return cfg, cfg.Validate()
}

func runModel(cmd *cobra.Command, args []string) error {
	model := args[0]

	registry := experiment.NewRegistry()
	def, err := registry.Get(model)
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cmd, model)
	if err != nil {
		return err
	}
	cfg.Iterations = 1
	cfg.Sweeps = nil
	cfg.Scenarios = nil
	cfg.Record = record

	e, err := experiment.New(model, def.Factory, cfg.Experiment(def.Defaults))
	if err != nil {
		return err
	}

	fmt.Printf("running %s...\n", model)
	out, err := e.Run(nil, false)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", out.Log.RunTime)
	printMeasures(out.Measures)

	return saveOutput(out)
}

func runExperiment(cmd *cobra.Command, args []string) error {
	model := args[0]

	registry := experiment.NewRegistry()
	def, err := registry.Get(model)
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cmd, model)
	if err != nil {
		return err
	}

	e, err := experiment.New(model, def.Factory, cfg.Experiment(def.Defaults))
	if err != nil {
		return err
	}
	fmt.Printf("scheduled %d runs\n", e.Runs())

	var out *experiment.Output
	switch {
	case cfg.Workers > 1:
		out, err = e.Run(experiment.NewWorkerPool(cfg.Workers), false)
	case progress:
		out, err = viz.RunWithProgress(e)
	default:
		out, err = e.Run(nil, true)
	}
	if err != nil {
		return err
	}

	fmt.Printf("\ncompleted %d runs in %v\n", out.Log.Runs, out.Log.RunTime)
	printMeasures(out.Measures)

	if sensitive {
		if err := sense.Attach(out, sense.Correlation); err != nil {
			return err
		}
		sec, _ := out.Section("sensitivity")
		fmt.Println("\nsensitivity (pearson):")
		printTable(sec.(*table.Table))
	}

	return saveOutput(out)
}

func previewSamples(cmd *cobra.Command, args []string) error {
	model := args[0]

	registry := experiment.NewRegistry()
	def, err := registry.Get(model)
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cmd, model)
	if err != nil {
		return err
	}

	samples := cfg.Samples(def.Defaults)
	names := make([]string, 0)
	seen := make(map[string]bool)
	for _, p := range samples {
		for k := range p {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SAMPLE\t"+strings.ToUpper(strings.Join(names, "\t")))
	for i, p := range samples {
		cells := make([]string, 0, len(names)+1)
		cells = append(cells, strconv.Itoa(i))
		for _, name := range names {
			cells = append(cells, fmt.Sprintf("%v", p[name]))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return w.Flush()
}

func saveOutput(out *experiment.Output) error {
	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	id, err := st.Save(out)
	if err != nil {
		return err
	}
	fmt.Printf("saved as %s\n", id)
	return nil
}

func listExperiments(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no experiments found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tRUNS\tITER\tSCENARIOS\tMEASURES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Runs,
			run.Iterations,
			strings.Join(run.Scenarios, ","),
			strings.Join(run.Measures, ","),
		)
	}

	return w.Flush()
}

func plotExperiment(cmd *cobra.Command, args []string) error {
	id := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(id)
	if err != nil {
		return err
	}
	fmt.Printf("experiment: %s\nmodel: %s\n\n", meta.ID, meta.Model)

	if varName != "" {
		vars, err := st.LoadVariables(id, varKind)
		if err != nil {
			return err
		}
		plot, err := viz.PlotSeries(vars, varName, runID, objID)
		if err != nil {
			return err
		}
		fmt.Println(plot)
		return nil
	}

	measures, err := st.LoadMeasures(id)
	if err != nil {
		return err
	}
	names := measures.Columns()
	if measureName != "" {
		names = []string{measureName}
	}
	for _, name := range names {
		plot, err := viz.PlotMeasure(measures, name)
		if err != nil {
			return err
		}
		fmt.Println(plot)
		fmt.Println()
	}
	return nil
}

func exportExperiment(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	out, err := st.LoadOutput(args[0])
	if err != nil {
		return err
	}

	if exportPath != "" {
		if err := storage.ExportJSON(exportPath, out); err != nil {
			return err
		}
		fmt.Printf("exported %s to %s\n", args[0], exportPath)
		return nil
	}
	return storage.ExportJSONStdout(out)
}

func listModels(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tDESCRIPTION\tDEFAULTS")
	for _, name := range registry.List() {
		def, err := registry.Get(name)
		if err != nil {
			continue
		}
		var defaults []string
		for k, v := range def.Defaults {
			defaults = append(defaults, fmt.Sprintf("%s=%v", k, v))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", def.Name, def.Description, strings.Join(defaults, " "))
	}
	return w.Flush()
}

func printMeasures(measures *table.Table) {
	if measures == nil || measures.Len() == 0 {
		return
	}
	fmt.Println("\nmeasures:")
	if measures.Len() == 1 {
		for _, name := range measures.Columns() {
			fmt.Printf("  %s: %v\n", name, measures.At(0, name))
		}
		return
	}
	for _, name := range measures.Columns() {
		vals, err := measures.Floats(name)
		if err != nil {
			continue
		}
		var sum, min, max float64
		min, max = vals[0], vals[0]
		for _, v := range vals {
			sum += v
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		fmt.Printf("  %s: mean=%.6g min=%.6g max=%.6g\n", name, sum/float64(len(vals)), min, max)
	}
}

func printTable(t *table.Table) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := append(t.IndexNames(), t.Columns()...)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(header, "\t")))
	for i := 0; i < t.Len(); i++ {
		cells := make([]string, 0, len(header))
		for _, v := range t.Index(i) {
			cells = append(cells, fmt.Sprintf("%v", v))
		}
		for _, c := range t.Columns() {
			cells = append(cells, fmt.Sprintf("%.4f", t.At(i, c)))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
}

func parseSet(s string) (string, any, error) {
	key, raw, ok := strings.Cut(s, "=")
	if !ok {
		return "", nil, fmt.Errorf("invalid --set %q, want key=value", s)
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return key, n, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return key, f, nil
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return key, b, nil
	}
	return key, raw, nil
}

func parseSweep(s string) (string, config.Sweep, error) {
	key, raw, ok := strings.Cut(s, "=")
	if !ok {
		return "", config.Sweep{}, fmt.Errorf("invalid --sweep %q, want key=min:max:n", s)
	}
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return "", config.Sweep{}, fmt.Errorf("invalid --sweep %q, want key=min:max:n", s)
	}
	min, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", config.Sweep{}, fmt.Errorf("invalid sweep min %q", parts[0])
	}
	max, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", config.Sweep{}, fmt.Errorf("invalid sweep max %q", parts[1])
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", config.Sweep{}, fmt.Errorf("invalid sweep count %q", parts[2])
	}
	return key, config.Sweep{Min: min, Max: max, N: n}, nil
}
