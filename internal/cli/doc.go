// Package cli defines the Cobra command tree for tgen. Each file registers
// one top-level command with the root command. Commands resolve the project
// configuration, then delegate to the internal packages and only handle
// flags and output formatting.
package cli
