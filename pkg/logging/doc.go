// Package logging wires Go's standard slog package into the CLI.
//
// It owns two small jobs: mapping config-file level names onto slog levels
// and installing the process-wide default handler. Everything else logs
// through plain slog calls.
package logging
