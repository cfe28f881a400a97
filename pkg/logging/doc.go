// Package logging provides structured logging configuration for devmock.
//
// This package wraps log/slog so every component logs through the same
// handler setup. Verbosity and format come from the engine configuration.
//
// Components accept a *slog.Logger in their constructor or via a setter.
// When a logger is required but logging is disabled, use logging.Nop().
package logging
