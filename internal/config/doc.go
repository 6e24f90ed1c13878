// Package config defines the settings shared by shooter-remote and
// shooter-emulator and provides helpers to load, validate and save them in
// YAML format.
package config
