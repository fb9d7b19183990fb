// Package viz renders simulation results in the terminal.
//
//   - [Plot]: asciigraph charts of velocity and position for both models
//   - [Replay]: a Bubble Tea program that replays a finished run
//
// The drag and vacuum series may differ in length. Charts are drawn over the
// index range both series share.
//
// # Key Bindings
//
//	Space - Pause/Resume replay
//	R     - Restart from t = 0
//	[ ]   - Step backward / forward while paused
//	+ -   - Change playback speed
//	Q     - Quit
package viz
