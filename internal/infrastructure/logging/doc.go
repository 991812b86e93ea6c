// Package logging provides structured logging using uber/zap.
//
// All exchange components log through this package. It offers two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	defer logger.Sync()
//	logger.Info("channel registered", zap.String("channel", name))
//	logger.Error("registration failed", zap.Error(err))
package logging
