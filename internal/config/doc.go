// Package config loads, normalizes, and validates tracker-studio settings.
//
// Settings come from a TOML file layered over repository defaults, with the
// TRACKER_STUDIO_ENDPOINT environment variable taking precedence over the
// file for the processing endpoint. Paths are tilde-expanded and made
// absolute; the initial control values are checked against the same ranges
// the studio enforces.
package config
