package masters

import (
	"fmt"
	"path"
	"strconv"

	"visio-restyle/internal/diagnostic"
	"visio-restyle/internal/diagram"
	"visio-restyle/internal/vsdx"
)

// Entry is one master definition in a catalog.
type Entry struct {
	// ID is the container-local identifier.
	ID string
	// Name is the matching key, unique within the catalog.
	Name string
	// UniqueID is the master's GUID metadata, surfaced as the listing
	// description.
	UniqueID string
	// RelID is the relationship resolving to the content part, "" when the
	// index entry carries none.
	RelID string
	// PartName is the container part holding the full definition, "" when
	// unresolved.
	PartName string

	node *vsdx.Node
}

// Catalog is a per-container master index built once per run. Lookup is
// exact-match only; fuzzy matching belongs to the mapping collaborators.
type Catalog struct {
	container *vsdx.Container
	index     *vsdx.Node // master index part, nil when the container has none
	rels      *vsdx.Node // its relationship part, nil when absent
	entries   []*Entry
	byName    map[string]*Entry
	byID      map[string]*Entry
	maxID     int
}

// Build indexes the container's masters. A container without a master index
// part yields an empty catalog; duplicate master names are fatal because the
// name is the mapping key.
func Build(c *vsdx.Container) (*Catalog, error) {
	cat := &Catalog{
		container: c,
		byName:    make(map[string]*Entry),
		byID:      make(map[string]*Entry),
	}

	if !c.Has(vsdx.PartMastersIndex) {
		return cat, nil
	}

	index, err := c.ParseXML(vsdx.PartMastersIndex)
	if err != nil {
		return nil, err
	}

	cat.index = index

	if c.Has(vsdx.PartMastersRels) {
		rels, err := c.ParseXML(vsdx.PartMastersRels)
		if err != nil {
			return nil, err
		}

		cat.rels = rels
	}

	for _, el := range index.FindAll("Master") {
		entry := entryFromNode(el, cat.rels)

		if entry.Name != "" {
			if _, dup := cat.byName[entry.Name]; dup {
				return nil, &diagnostic.CorruptContainerError{
					Path:   c.Path(),
					Reason: fmt.Sprintf("duplicate master name %q", entry.Name),
				}
			}

			cat.byName[entry.Name] = entry
		}

		if entry.ID != "" {
			cat.byID[entry.ID] = entry
		}

		if n, err := strconv.Atoi(entry.ID); err == nil && n > cat.maxID {
			cat.maxID = n
		}

		cat.entries = append(cat.entries, entry)
	}

	return cat, nil
}

func entryFromNode(el *vsdx.Node, rels *vsdx.Node) *Entry {
	entry := &Entry{
		ID:       el.AttrValue("ID"),
		UniqueID: el.AttrValue("UniqueID"),
		node:     el,
	}

	entry.Name = el.AttrValue("NameU")
	if entry.Name == "" {
		entry.Name = el.AttrValue("Name")
	}

	if rel := el.Find("Rel"); rel != nil {
		entry.RelID = rel.AttrValue("id")

		if rels != nil {
			if target := vsdx.RelTarget(rels, entry.RelID); target != "" {
				entry.PartName = path.Join("visio/masters", target)
			}
		}
	}

	return entry
}

// Lookup returns the entry for an exact name.
func (cat *Catalog) Lookup(name string) (*Entry, error) {
	entry, ok := cat.byName[name]
	if !ok {
		return nil, &diagnostic.MasterNotFoundError{MasterName: name}
	}

	return entry, nil
}

// Has reports whether a name is present.
func (cat *Catalog) Has(name string) bool {
	_, ok := cat.byName[name]

	return ok
}

// NameByID returns the master name for a container-local id, or "".
func (cat *Catalog) NameByID(id string) string {
	if entry, ok := cat.byID[id]; ok {
		return entry.Name
	}

	return ""
}

// List returns the catalog as an artifact listing, in index order.
func (cat *Catalog) List() *diagram.MastersFile {
	out := &diagram.MastersFile{Masters: []diagram.Master{}}

	for _, entry := range cat.entries {
		out.Masters = append(out.Masters, diagram.Master{
			Name:        entry.Name,
			ID:          entry.ID,
			Description: entry.UniqueID,
		})
	}

	return out
}

// MaxID returns the highest numeric master id observed at build time.
func (cat *Catalog) MaxID() int {
	return cat.maxID
}

// Len returns the number of indexed masters.
func (cat *Catalog) Len() int {
	return len(cat.entries)
}
