// Package vsdx reads and writes VSDX-family diagram containers.
//
// A container is a zip archive of XML parts (OPC packaging). The package
// keeps every part's original bytes in memory and re-serializes only the
// parts the pipeline explicitly replaces, so untouched parts round-trip
// byte-identical. XML parts are handled as generic Node trees that preserve
// element order, attribute order, namespace prefixes, and text content.
//
// Key types:
//   - Container: in-memory part map with format-family validation
//   - Node: ordered element/text tree with prefix-preserving serialization
package vsdx
