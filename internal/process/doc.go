// Package process looks up running programs by executable name.
package process
