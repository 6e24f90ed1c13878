// Package recorder implements the shooter-remote command.
//
// It selects the first camera reported by the camera-control application and
// then starts, stops and downloads recordings as the command-line flags ask,
// printing one status line per step to the configured output.
package recorder
