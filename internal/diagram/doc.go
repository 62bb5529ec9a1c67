// Package diagram defines the simplified diagram model and the JSON
// artifacts exchanged with mapping collaborators and tooling.
//
// Key types:
//   - Diagram/Page/Shape/Connector: the extraction contract
//   - MastersFile: a template catalog listing
//   - Mapping: shape id to target master name
//
// All artifacts encode as UTF-8 JSON with two-space indentation and HTML
// escaping disabled, so non-ASCII text survives unescaped.
package diagram
