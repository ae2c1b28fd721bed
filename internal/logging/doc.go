// Package logging provides structured logging for the parity tools.
//
// # Overview
//
// Logging package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Automatic context field injection (session.id, workspace.root, event.target)
//   - Level-aware sampling (errors never sampled)
//   - stderr output by default, since stdout carries reports and decisions
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    return err
//	}
//	defer func() { _ = logger.Sync() }()
//
//	ctx = logging.WithSessionID(ctx, "3f1c...")
//	logger.Info(ctx, "gate evaluated", zap.String("outcome", "block"))
//
// # Testing
//
// NewTestLogger returns a logger backed by zaptest/observer with assertion
// helpers (AssertLogged, AssertField).
package logging
