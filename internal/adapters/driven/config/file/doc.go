// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML configuration in the factura data directory,
//     reloaded on external edits while watched
package file
