// Package state persists the emulator's camera states.
//
// FileRepository stores them as a JSON document on disk and implements the
// Repository interface the emulator service depends on.
package state
