// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride replaces the platform configuration directory in tests,
// where os.UserHomeDir does not reliably follow HOME on every platform.
var configDirOverride string

// Reset clears test overrides.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride sets a custom config directory path.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
