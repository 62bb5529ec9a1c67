// Package extract reads simplified Diagram views and master listings out of
// diagram containers.
//
// Key functions:
//   - Diagram: pages, shapes, and connectors of a source container
//   - Masters: a template's catalog listing, no page content required
//
// Extraction is read-only and total: every raw shape record maps to exactly
// one simplified view, with empty text and a null master name where the
// record carries neither.
package extract
