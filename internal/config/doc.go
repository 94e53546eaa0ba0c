// SPDX-License-Identifier: MPL-2.0

// Package config loads loadremote settings using Viper with CUE as the file
// format.
//
// The file is read from <user config dir>/loadremote/config.cue, or from
// .loadremote.cue in the working directory when the former does not exist.
// Values are validated against the embedded #Config schema
// (config_schema.cue). LOADREMOTE_* environment variables override file
// values, and a .env file in the working directory is loaded first.
package config
