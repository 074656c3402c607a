// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

// Package services adapts blocking components to suture's
// Serve(ctx) error contract.
//
// HTTPServerService turns http.Server's ListenAndServe/Shutdown pair into a
// context-driven service with a bounded graceful shutdown.
package services
