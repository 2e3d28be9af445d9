// Package services defines shared plumbing consumed by the organize engine
// and the daemon shell around it.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, component names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (fatal scan errors vs per-file relocation errors vs
//     caller mistakes) uniform across components.
//
// Use these helpers when wiring new components so operational behaviour
// (error handling, observability) stays uniform across the engine.
package services
