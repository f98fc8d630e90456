// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - SettingsStore: TOML job settings under ~/.fscrawler/<job>/_settings.toml
package file
