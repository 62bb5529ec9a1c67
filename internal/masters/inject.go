package masters

import (
	"encoding/xml"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"visio-restyle/internal/diagnostic"
	"visio-restyle/internal/vsdx"
)

// Injector merges template masters into a source container on demand. All
// mutation is in-memory; Commit serializes the touched index parts and the
// caller decides when the container hits disk.
type Injector struct {
	source   *vsdx.Container
	src      *Catalog
	tpl      *Catalog
	ct       *vsdx.Node
	docRels  *vsdx.Node
	nextID   int
	nextRel  int
	injected int
	dirty    bool
}

// NewInjector prepares injection from a template into a source container.
// Both catalogs must have been built from the given containers in this run:
// fresh-identifier allocation starts from the source's current maximum.
func NewInjector(source *vsdx.Container, src, tpl *Catalog) *Injector {
	inj := &Injector{
		source:  source,
		src:     src,
		tpl:     tpl,
		nextID:  src.maxID + 1,
		nextRel: 1,
	}

	if src.rels != nil {
		inj.nextRel = vsdx.MaxRelID(src.rels) + 1
	}

	return inj
}

// Inject resolves a master name to an id in the source container, copying
// the full definition from the template when the source lacks it. Repeated
// calls with the same name return the same id and add nothing.
func (inj *Injector) Inject(name string) (string, error) {
	if entry, ok := inj.src.byName[name]; ok {
		return entry.ID, nil
	}

	tplEntry, err := inj.tpl.Lookup(name)
	if err != nil {
		return "", err
	}

	if tplEntry.PartName == "" {
		return "", &diagnostic.CorruptContainerError{
			Path:   inj.tpl.container.Path(),
			Reason: fmt.Sprintf("master %q has no content part", name),
		}
	}

	partData, ok := inj.tpl.container.Part(tplEntry.PartName)
	if !ok {
		return "", &diagnostic.CorruptContainerError{
			Path:   inj.tpl.container.Path(),
			Reason: fmt.Sprintf("master %q: missing part %s", name, tplEntry.PartName),
		}
	}

	err = inj.ensureIndex()
	if err != nil {
		return "", err
	}

	id, partName := inj.allocate()

	relID := fmt.Sprintf("rId%d", inj.nextRel)
	inj.nextRel++

	node := tplEntry.node.Clone()
	node.SetAttr("ID", id)
	node.SetAttr("UniqueID", freshUniqueID())

	if rel := node.Find("Rel"); rel != nil {
		rel.SetAttr("id", relID)
	} else {
		rel := vsdx.NewElement(vsdx.NSMain, "Rel")
		rel.Attrs = []xml.Attr{{Name: xml.Name{Space: vsdx.NSDocRels, Local: "id"}, Value: relID}}
		node.AppendChild(rel)
	}

	inj.src.index.AppendChild(node)
	vsdx.AddRelationship(inj.src.rels, relID, vsdx.RelTypeMaster, path.Base(partName))

	// The content part is copied verbatim, style sections included.
	inj.source.SetPart(partName, append([]byte(nil), partData...))

	ct, err := inj.contentTypes()
	if err != nil {
		return "", err
	}

	vsdx.AddContentTypeOverride(ct, "/"+partName, vsdx.ContentTypeMaster)

	entry := &Entry{
		ID:       id,
		Name:     name,
		UniqueID: node.AttrValue("UniqueID"),
		RelID:    relID,
		PartName: partName,
		node:     node,
	}

	inj.src.byName[name] = entry
	inj.src.byID[id] = entry
	inj.src.entries = append(inj.src.entries, entry)

	if n, err := strconv.Atoi(id); err == nil && n > inj.src.maxID {
		inj.src.maxID = n
	}

	inj.injected++
	inj.dirty = true

	return id, nil
}

// Injected returns how many masters were copied in so far.
func (inj *Injector) Injected() int {
	return inj.injected
}

// Commit serializes the mutated index parts back into the source container.
// A no-op when nothing was injected.
func (inj *Injector) Commit() error {
	if !inj.dirty {
		return nil
	}

	err := inj.source.SetPartXML(vsdx.PartMastersIndex, inj.src.index)
	if err != nil {
		return err
	}

	err = inj.source.SetPartXML(vsdx.PartMastersRels, inj.src.rels)
	if err != nil {
		return err
	}

	err = inj.source.SetPartXML(vsdx.PartContentTypes, inj.ct)
	if err != nil {
		return err
	}

	if inj.docRels != nil {
		err = inj.source.SetPartXML(vsdx.PartDocumentRels, inj.docRels)
		if err != nil {
			return err
		}
	}

	return nil
}

// allocate picks the next master id and a free content part name for it.
// Ids stay strictly above every pre-existing id even when part names force
// skips.
func (inj *Injector) allocate() (id, partName string) {
	for {
		id = strconv.Itoa(inj.nextID)
		partName = fmt.Sprintf("visio/masters/master%d.xml", inj.nextID)
		inj.nextID++

		if !inj.source.Has(partName) {
			return id, partName
		}
	}
}

// ensureIndex creates the master index scaffolding for sources that carry no
// masters at all: the index part, its relationship part, the content-type
// override, and a document-level relationship so the index is reachable.
func (inj *Injector) ensureIndex() error {
	if inj.src.index == nil {
		index := vsdx.NewElement(vsdx.NSMain, "Masters")
		index.Attrs = []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: vsdx.NSMain},
			{Name: xml.Name{Space: "xmlns", Local: "r"}, Value: vsdx.NSDocRels},
		}

		inj.src.index = index

		docRels, err := inj.source.ParseXML(vsdx.PartDocumentRels)
		if err != nil {
			return err
		}

		relID := fmt.Sprintf("rId%d", vsdx.MaxRelID(docRels)+1)
		vsdx.AddRelationship(docRels, relID, vsdx.RelTypeMasters, "masters/masters.xml")
		inj.docRels = docRels

		ct, err := inj.contentTypes()
		if err != nil {
			return err
		}

		vsdx.AddContentTypeOverride(ct, "/"+vsdx.PartMastersIndex, vsdx.ContentTypeMasters)
	}

	if inj.src.rels == nil {
		inj.src.rels = vsdx.NewRelationshipsPart()
	}

	return nil
}

func (inj *Injector) contentTypes() (*vsdx.Node, error) {
	if inj.ct != nil {
		return inj.ct, nil
	}

	ct, err := inj.source.ParseXML(vsdx.PartContentTypes)
	if err != nil {
		return nil, err
	}

	inj.ct = ct

	return ct, nil
}

func freshUniqueID() string {
	return "{" + strings.ToUpper(uuid.NewString()) + "}"
}
