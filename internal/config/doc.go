// Package config loads, normalizes, and validates cubby configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and derives daemon runtime paths (socket,
// lock, database) from the data directory. The Config type centralizes every
// knob the daemon and CLI need: source/destination roots, the ordered
// category table, watch and schedule triggers, history retention, and log
// output settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
