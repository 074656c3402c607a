// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

/*
Package supervisor runs Gamedeck's long-lived goroutines under suture v4.

# Overview

	RootSupervisor ("gamedeck")
	├── BackgroundSupervisor ("background-layer")
	│   └── catalog cache janitor (cache.Cache.Serve)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crashed service is restarted with backoff. Failures are counted per layer,
so a misbehaving background loop never restarts the HTTP server.

# Usage

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddBackgroundService(catalogCache)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("Supervisor stopped")
	}

# Logging

Lifecycle events (start, failure, backoff, restart) go through the sutureslog
hook into the slog adapter in internal/logging, so they end up in the same
zerolog stream as everything else.
*/
package supervisor
