// SPDX-License-Identifier: MPL-2.0

// Package config loads atomos settings using Viper with CUE as the file
// format.
//
// The file is looked up at the --config path, then config.cue in the
// platform configuration directory ($XDG_CONFIG_HOME/atomos on Linux), then
// config.cue in the working directory. Without a file the defaults apply.
// Environment variables prefixed with ATOMOS_ override file values, with
// dots in keys replaced by underscores (ATOMOS_SUBSTRATE_MODE).
//
// Files are validated against the embedded config_schema.cue before they
// reach Viper.
package config
