// Package viz provides terminal-based visualization for experiments.
//
// The package implements ASCII plotting on top of asciigraph plus two
// Bubble Tea programs:
//
//   - [RunWithProgress]: live progress display while an experiment runs
//   - [RunExplorer]: interactive model browser with parameter editing
//
// # Key Bindings (explorer)
//
//	j/k   - Navigate
//	h/l   - Adjust the selected parameter
//	Enter - Edit a parameter / select a model
//	S     - Run the model and plot the result
//	Esc   - Back
//	Q     - Quit
package viz
