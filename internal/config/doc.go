// Package config loads and persists the collector configuration.
//
// Configuration lives in a YAML file under the platform configuration
// directory (XDG on Linux, ~/.config on macOS, LOCALAPPDATA on Windows).
// When the file is absent, defaults are used, so the collector runs without
// any setup. Saves are atomic (write to a temporary file, then rename) to
// prevent corruption on crash.
package config
