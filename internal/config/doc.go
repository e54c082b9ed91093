// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/sclkit/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/sclkit/config.cue on macOS, %APPDATA%\sclkit\config.cue
// on Windows), then overridden by SCLKIT_* environment variables. It selects the document
// data directory, the id strategy, the log level and the history and extraction defaults.
//
// Configuration files are validated against the embedded CUE schema (config_schema.cue)
// before they reach Viper.
package config
