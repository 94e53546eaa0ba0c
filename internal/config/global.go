// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride replaces the user config directory when set.
var configDirOverride string

// Reset clears test overrides.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride makes Dir return dir. Intended for tests, since
// os.UserConfigDir does not consistently honor HOME across platforms.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
