// Package pkg provides the core libraries for ScholarShare content generation.
//
// # Overview
//
// ScholarShare turns research-paper text into publication-ready artifacts:
// blog posts, social media bundles, LaTeX conference posters, and Beamer
// presentation decks. The pkg directory is organized into four main areas:
//
//  1. Generation - paper analysis and artifact synthesis
//     (paper, blog, social, assemble, diagram)
//  2. Review - rendering, layout critique, and bounded repair
//     (markup, render, critic, repair)
//  3. Infrastructure - caching, storage, configuration, observability
//     (cache, store, config, observability, errors, httputil)
//  4. Capabilities - provider abstractions and publishing
//     (llm, publish, session)
//
// # Architecture
//
// The typical data flow for a rendered artifact:
//
//	Paper text
//	     ↓
//	paper.Analyzer (structured analysis, cached)
//	     ↓
//	assemble.Assembler (poster/deck markup, TikZ diagrams)
//	     ↓
//	repair.Engine: render → rasterize → critic.Critic → adopt repair
//	     ↓
//	Accepted PDF (or HTML fallback)
//
// Blog and social generation branch off the same analysis without the
// render-review loop.
package pkg
