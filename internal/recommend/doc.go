// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

// Package recommend turns a chat query into game recommendations.
//
// # Architecture
//
// A request flows through three stages:
//
//   - Rewriter: normalizes conversational requests into an instruction the
//     language model reliably answers with a numbered list. A regular
//     expression catches the common phrasings; an embedding similarity check
//     against canonical example phrases catches paraphrases.
//   - ExtractTitles: recovers candidate game titles from the free-text model
//     answer (numbered lists, bullet lists, or a "Suggested Games:" line).
//   - Pipeline: rewrite, generate, extract, then enrich every title through
//     the catalog in parallel while keeping extraction order.
//
// # Failure Model
//
// Only an empty query and a failed generation surface as errors. Embedding
// failures leave the query unchanged and catalog failures yield empty
// metadata for the affected title.
//
// # Usage
//
//	rw, err := recommend.NewRewriter(ctx, embedder, recommend.RewriterConfig{})
//	p := recommend.NewPipeline(rw, generator, catalogService, recommend.PipelineConfig{
//	    Provider:    "ollama",
//	    Concurrency: 4,
//	})
//	res, err := p.Handle(ctx, "any games like Skyrim?")
//
// # Thread Safety
//
// Rewriter and Pipeline are immutable after construction and safe for
// concurrent use.
package recommend
