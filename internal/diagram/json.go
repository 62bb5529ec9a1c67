package diagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Encode writes v as UTF-8 JSON with two-space indentation and HTML escaping
// disabled. Every artifact this tool reads or writes goes through here.
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	return enc.Encode(v)
}

// Marshal returns v in the shared artifact encoding.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer

	err := Encode(&buf, v)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// WriteFile encodes v into path.
func WriteFile(path string, v any) error {
	data, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// LoadDiagram reads a Diagram artifact from path.
func LoadDiagram(path string) (*Diagram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read diagram file: %w", err)
	}

	return ParseDiagram(data)
}

// ParseDiagram decodes a Diagram artifact.
func ParseDiagram(data []byte) (*Diagram, error) {
	var d Diagram

	err := json.Unmarshal(data, &d)
	if err != nil {
		return nil, fmt.Errorf("parse diagram JSON: %w", err)
	}

	return &d, nil
}

// LoadMasters reads a masters listing artifact from path.
func LoadMasters(path string) (*MastersFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read masters file: %w", err)
	}

	return ParseMasters(data)
}

// ParseMasters decodes a masters listing artifact.
func ParseMasters(data []byte) (*MastersFile, error) {
	var m MastersFile

	err := json.Unmarshal(data, &m)
	if err != nil {
		return nil, fmt.Errorf("parse masters JSON: %w", err)
	}

	return &m, nil
}

// LoadMapping reads a mapping artifact from path.
func LoadMapping(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping file: %w", err)
	}

	return ParseMapping(data)
}

// ParseMapping decodes a mapping artifact and rejects entries an operator
// could not have meant: empty shape ids or empty master names.
func ParseMapping(data []byte) (Mapping, error) {
	var m Mapping

	err := json.Unmarshal(data, &m)
	if err != nil {
		return nil, fmt.Errorf("parse mapping JSON: %w", err)
	}

	for id, name := range m {
		if id == "" {
			return nil, fmt.Errorf("mapping entry with empty shape id")
		}

		if name == "" {
			return nil, fmt.Errorf("mapping entry %q: empty master name", id)
		}
	}

	return m, nil
}
