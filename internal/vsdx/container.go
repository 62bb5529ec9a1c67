package vsdx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"visio-restyle/internal/diagnostic"
)

// oleMagic is the signature of an OLE compound document, the pre-OPC binary
// format of legacy .vsd files.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Container is one diagram package held fully in memory. Parts keep their
// original archive bytes until explicitly replaced, so untouched parts
// serialize byte-identical. A Container releases its source file immediately
// after Open; Save writes a new archive without touching the source.
type Container struct {
	path  string
	parts map[string][]byte
	order []string
}

// Open reads the container at path into memory and validates that it belongs
// to the supported format family.
func Open(path string) (*Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &diagnostic.CorruptContainerError{Path: path, Reason: "cannot read", Err: err}
	}

	return FromBytes(path, data)
}

// FromBytes builds a container from raw archive bytes. The path is used for
// error context only.
func FromBytes(path string, data []byte) (*Container, error) {
	if bytes.HasPrefix(data, oleMagic) {
		return nil, &diagnostic.UnsupportedFormatError{Path: path, Detected: "OLE compound document (legacy .vsd)"}
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &diagnostic.CorruptContainerError{Path: path, Reason: "not a zip archive", Err: err}
	}

	c := &Container{
		path:  path,
		parts: make(map[string][]byte, len(zr.File)),
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		if _, dup := c.parts[f.Name]; dup {
			return nil, &diagnostic.CorruptContainerError{Path: path, Reason: fmt.Sprintf("duplicate part %s", f.Name)}
		}

		rc, err := f.Open()
		if err != nil {
			return nil, &diagnostic.CorruptContainerError{Path: path, Reason: fmt.Sprintf("cannot open part %s", f.Name), Err: err}
		}

		part, err := io.ReadAll(rc)
		rc.Close()

		if err != nil {
			return nil, &diagnostic.CorruptContainerError{Path: path, Reason: fmt.Sprintf("cannot read part %s", f.Name), Err: err}
		}

		c.parts[f.Name] = part
		c.order = append(c.order, f.Name)
	}

	if !c.Has(PartContentTypes) {
		return nil, &diagnostic.CorruptContainerError{Path: path, Reason: "missing part " + PartContentTypes}
	}

	if !c.Has(PartDocument) {
		return nil, &diagnostic.UnsupportedFormatError{Path: path, Detected: "OPC package without a Visio document part"}
	}

	return c, nil
}

// Path returns the path the container was opened from.
func (c *Container) Path() string {
	return c.path
}

// Has reports whether a part exists.
func (c *Container) Has(name string) bool {
	_, ok := c.parts[name]

	return ok
}

// Part returns a part's bytes and whether the part exists.
func (c *Container) Part(name string) ([]byte, bool) {
	data, ok := c.parts[name]

	return data, ok
}

// SetPart replaces a part's bytes, appending the part to the archive order
// when it is new.
func (c *Container) SetPart(name string, data []byte) {
	if _, ok := c.parts[name]; !ok {
		c.order = append(c.order, name)
	}

	c.parts[name] = data
}

// Parts returns the part names in archive order.
func (c *Container) Parts() []string {
	return append([]string(nil), c.order...)
}

// ParseXML parses a named XML part into its root node. A missing or
// malformed part is a corrupt-container condition.
func (c *Container) ParseXML(name string) (*Node, error) {
	data, ok := c.Part(name)
	if !ok {
		return nil, &diagnostic.CorruptContainerError{Path: c.path, Reason: "missing part " + name}
	}

	n, err := ParsePart(data)
	if err != nil {
		return nil, &diagnostic.CorruptContainerError{Path: c.path, Reason: "malformed part " + name, Err: err}
	}

	return n, nil
}

// SetPartXML serializes a node tree into the named part.
func (c *Container) SetPartXML(name string, root *Node) error {
	data, err := root.Marshal()
	if err != nil {
		return fmt.Errorf("serialize part %s: %w", name, err)
	}

	c.SetPart(name, data)

	return nil
}

// Save writes the container to path. The archive is assembled in a temporary
// file next to the target and renamed into place only when fully written, so
// no partial output is left behind on failure.
func (c *Container) Save(path string) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".vsdx-restyle-*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}

	tmpName := tmp.Name()

	err = c.writeArchive(tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("write output container: %w", err)
	}

	err = os.Rename(tmpName, path)
	if err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("finalize output container: %w", err)
	}

	return nil
}

func (c *Container) writeArchive(w io.Writer) error {
	zw := zip.NewWriter(w)

	for _, name := range c.order {
		f, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("part %s: %w", name, err)
		}

		_, err = f.Write(c.parts[name])
		if err != nil {
			return fmt.Errorf("part %s: %w", name, err)
		}
	}

	return zw.Close()
}
