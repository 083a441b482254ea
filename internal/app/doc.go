// Package app wires the query API: router, middleware chain, handlers and
// the HTTP server lifecycle.
//
// # Usage
//
//	application := app.New(cfg, st, providers, logger)
//	if err := application.Run(ctx); err != nil {
//	    return err
//	}
//
// Run blocks until ctx is cancelled or the server fails, then shuts the
// server down within Server.ShutdownTimeout.
package app
