// Package rebuild applies a shape-to-master mapping to a diagram container.
//
// Rebuild pipeline:
//  1. Build catalogs for the source and the target template
//  2. For each mapped shape: inject the target master on first use, strip
//     local style payload, re-point the shape's master reference
//  3. Re-validate connector bonds and drop records whose endpoints vanished
//  4. Serialize the touched parts and save a complete copy
//
// Geometry, text, and connector shapes are never modified by the remap pass.
// Fatal conditions (missing template master, unreadable parts) abort the run
// before any output exists; everything else lands in the run's diagnostic
// report.
package rebuild
