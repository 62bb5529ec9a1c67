// Package mapper provides the mapping collaborators that propose a
// shape-to-master table for a diagram against a target master listing.
//
// Two strategies implement the same Mapper contract:
//
//   - AutoMapper: name heuristics (exact normalized match, synonym rules,
//     keyword fallbacks, edit-distance ranking)
//   - LLMMapper: one chat-completions call against an OpenAI-compatible
//     endpoint
//
// Both emit only master names present in the target listing; the rebuild
// pipeline consumes the finished table and does not care how it was made.
package mapper
