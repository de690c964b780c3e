// Package viz is the terminal front end of the simulator.
//
// [Model] steps a [sim.Simulator] from the Bubble Tea event loop and draws
// the periodic box on a braille [Canvas] through a rotating [Camera], next
// to the step context and an asciigraph plot of one metric. The interactive
// app in front of it picks a preset and edits its parameters.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	S     - Single step while paused
//	R     - Reset to the initial state
//	Tab   - Cycle the plotted metric
//	Up/Dn - Scale kT
//	< >   - Steps per frame
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
