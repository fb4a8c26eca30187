// Package viz draws walks in the terminal.
//
// [Canvas] is a Braille dot canvas; [Scene] projects CoM and ZMP traces and
// footprints onto it from above. [Model] is a Bubble Tea program running an
// online generator live:
//
//	Arrows - change the velocity reference
//	A/D    - change the yaw rate
//	Space  - Pause/Resume
//	R      - Reset the robot
//	T      - Cycle color themes
//	G      - Toggle GIF recording
//	?      - Show help overlay
package viz
