// Package config loads, validates, and normalizes the riftcap TOML
// configuration. Values cover the League client connection, the OBS control
// endpoint, recording behavior, notifications, logging, and filesystem paths.
package config
