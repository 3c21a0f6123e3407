// Package config provides the run configuration of stacksniffer: CLI
// defaults, validation, target normalization and the optional .stacksniffer
// configuration file with per-site settings.
package config
