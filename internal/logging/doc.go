// Package logging builds the structured slog logger used across tgen and
// carries it through context.Context so long-running operations (generation,
// watch, collaborators) log with the same handler and attributes.
package logging
