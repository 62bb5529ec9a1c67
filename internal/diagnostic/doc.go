// Package diagnostic provides the error taxonomy and the non-fatal warning
// report for the restyling pipeline.
//
// Key capabilities:
//   - Typed fatal errors: corrupt container, unsupported format, missing master
//   - Warning collection with stable codes (stale mapping, dangling connector)
//   - Human-readable summaries for CLI reporting
package diagnostic
