// Package gopgm is a Sequential Monte Carlo inference engine for
// Bayesian networks defined over a directed acyclic graph of typed nodes.
//
// 🚀 What is gopgm?
//
//	A particle-filtering core that turns a graph of constant, logical and
//	stochastic nodes into:
//
//	  • A topologically ordered DAG with likelihood-child bookkeeping
//	  • A per-node sampler chosen by conjugacy, finite enumeration, or
//	    prior-mutation fallback
//	  • A forward SMC sampler with pluggable resampling, plus an optional
//	    backward smoother
//
// ✨ Design goals
//
//   - Deterministic    — same model, same seed, same schedule, same output
//   - Extensible       — register new distributions/functions, new node
//     samplers, new resampling methods
//   - Arena-indexed    — the graph is a flat slice keyed by NodeID, no
//     pointer-chasing visitor hierarchy
//
// Everything is organized under focused subpackages:
//
//	core/       — DimArray, ValArray, IndexRange
//	rng/        — the single owned RNG stream
//	registry/   — distribution & function catalog
//	graph/      — the DAG: nodes, topological rank, likelihood children
//	sampler/    — node-sampler contract, factory dispatch, prior-mutation fallback
//	conjugate/  — closed-form posterior samplers
//	finite/     — the finite-enumeration sampler
//	smc/        — the forward particle filter
//	smoother/   — the backward smoothing pass
//	monitor/    — particle-cloud snapshots and accumulators
//	errs/       — the cross-cutting error taxonomy
//	builder/    — a fluent Go DSL for declaring models
//	compiler/   — the Console control-surface façade
//	cmd/gopgm/  — a small CLI driving the control surface
//
//	go get github.com/arn-lab/gopgm
package gopgm
