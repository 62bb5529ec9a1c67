package diagnostic

import "fmt"

// CorruptContainerError reports a container that cannot serve as pipeline
// input: unreadable archive, required parts missing, malformed part content,
// or a master index with duplicate names. Fatal: the run aborts before any
// output is written.
type CorruptContainerError struct {
	// Path is the container path, when known.
	Path string
	// Reason describes what is wrong with the container.
	Reason string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *CorruptContainerError) Error() string {
	msg := "corrupt container"
	if e.Path != "" {
		msg = fmt.Sprintf("corrupt container %q", e.Path)
	}

	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying cause.
func (e *CorruptContainerError) Unwrap() error {
	return e.Err
}

// UnsupportedFormatError reports a container outside the supported format
// family (for example a legacy OLE .vsd file or a non-Visio package).
// Fatal: the run aborts before any output is written.
type UnsupportedFormatError struct {
	// Path is the container path, when known.
	Path string
	// Detected describes the format the content appears to be.
	Detected string
}

// Error implements the error interface.
func (e *UnsupportedFormatError) Error() string {
	msg := "unsupported container format"
	if e.Path != "" {
		msg = fmt.Sprintf("unsupported container format %q", e.Path)
	}

	if e.Detected != "" {
		msg += ": " + e.Detected
	}

	return msg
}

// MasterNotFoundError reports a master name that is absent from the catalog
// it was looked up in. Fatal: substituting a default silently would corrupt
// the diagram's intended style without any visible signal.
type MasterNotFoundError struct {
	// MasterName is the name that failed to resolve.
	MasterName string
	// ShapeID is the mapped shape that requested the master, when the lookup
	// came from remapping. Empty for direct catalog lookups.
	ShapeID string
}

// Error implements the error interface.
func (e *MasterNotFoundError) Error() string {
	if e.ShapeID != "" {
		return fmt.Sprintf("master %q not found in template catalog (mapped from shape %q)", e.MasterName, e.ShapeID)
	}

	return fmt.Sprintf("master %q not found in template catalog", e.MasterName)
}
