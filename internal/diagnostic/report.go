package diagnostic

import (
	"fmt"
	"strings"
)

// Severity is the level of a reported diagnostic. Fatal conditions are not
// severities: they are returned as errors and abort the run.
type Severity int

//go:generate go tool stringer -type=Severity -linecomment

const (
	SeverityInfo    Severity = iota // info
	SeverityWarning                 // warning
)

// Warning codes reported by the pipeline.
const (
	// CodeStaleMapping marks a mapping entry whose shape id is absent from
	// the page. The shape set is left unchanged.
	CodeStaleMapping = "stale_mapping"
	// CodeDanglingConnector marks a connector bond whose endpoint no longer
	// resolves. The bond record is removed; the connector shape itself stays
	// on the page.
	CodeDanglingConnector = "dangling_connector"
	// CodeConnectorSkipped marks a mapping entry that targets a connector.
	// Connector records keep their routing master; the entry is not applied.
	CodeConnectorSkipped = "connector_skipped"
	// CodeUnknownMaster marks a mapper suggestion naming a master absent
	// from the target catalog. The suggestion is dropped before rebuild.
	CodeUnknownMaster = "unknown_master"
	// CodeNoMatch marks a shape the auto mapper could not resolve to any
	// target master. The shape is left unmapped rather than guessed.
	CodeNoMatch = "no_match"
)

// Warning is a single non-fatal diagnostic.
type Warning struct {
	// Severity of the diagnostic.
	Severity Severity
	// Code is a stable identifier for this kind of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Page names the page this relates to (if any).
	Page string
	// Ref identifies the shape, connector, or master this relates to (if any).
	Ref string
}

// Report collects the non-fatal diagnostics of one pipeline run. Fatal
// errors never enter a Report; they abort the run as ordinary Go errors.
type Report struct {
	Warnings []Warning
	Infos    []Warning
}

// AddWarning appends a warning-level diagnostic.
func (r *Report) AddWarning(code, message, page, ref string) {
	r.Warnings = append(r.Warnings, Warning{
		Severity: SeverityWarning,
		Code:     code,
		Message:  message,
		Page:     page,
		Ref:      ref,
	})
}

// AddInfo appends an info-level diagnostic.
func (r *Report) AddInfo(code, message, page, ref string) {
	r.Infos = append(r.Infos, Warning{
		Severity: SeverityInfo,
		Code:     code,
		Message:  message,
		Page:     page,
		Ref:      ref,
	})
}

// HasWarnings returns true if any warning-level diagnostics were collected.
func (r *Report) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Merge merges another Report into this one.
func (r *Report) Merge(other Report) {
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Infos = append(r.Infos, other.Infos...)
}

// String returns a formatted diagnostic line.
func (w Warning) String() string {
	var prefix []string
	if w.Page != "" {
		prefix = append(prefix, "["+w.Page+"]")
	}

	if w.Ref != "" {
		prefix = append(prefix, w.Ref)
	}

	msg := w.Message
	if w.Code != "" {
		msg = fmt.Sprintf("[%s] %s", w.Code, msg)
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}
