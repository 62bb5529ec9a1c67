// Package masters indexes master definitions per container and merges them
// across containers.
//
// Key types:
//   - Catalog: exact-name lookup built once per container, duplicate names
//     rejected at construction
//   - Injector: copies template masters into a source container on demand,
//     allocating identifiers strictly above the source's current maximum
//
// Source and template containers have independent identifier spaces; the
// injector never reuses a raw template id in the source space.
package masters
