// Package viz draws running worlds in the terminal.
//
// [Model] wraps a [sim.Driver] in a Bubble Tea program: each tick advances
// the driver by the elapsed wall time (clamped to one frame), projects the
// spheres through an orbiting [Camera] onto a braille [Canvas] and plots
// total energy with asciigraph. [App] is a scene and preset picker in front
// of it.
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	N       - Single frame
//	R       - Rebuild the scene
//	S / C   - Spawn bodies / destroy all
//	Arrows  - Adjust gravity
//	T       - Cycle themes
//	?       - Help overlay
package viz
