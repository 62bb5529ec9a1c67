package vsdx

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// Namespace URIs used by the container's XML parts.
const (
	// NSMain is the Visio 2012 main document namespace.
	NSMain = "http://schemas.microsoft.com/office/visio/2012/main"
	// NSDocRels is the namespace of r:-prefixed relationship references
	// inside document parts.
	NSDocRels = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	// NSPackageRels is the namespace of OPC relationship parts (.rels).
	NSPackageRels = "http://schemas.openxmlformats.org/package/2006/relationships"
	// NSContentTypes is the namespace of the content-type part.
	NSContentTypes = "http://schemas.openxmlformats.org/package/2006/content-types"
)

// Well-known part names.
const (
	PartContentTypes = "[Content_Types].xml"
	PartDocument     = "visio/document.xml"
	PartDocumentRels = "visio/_rels/document.xml.rels"
	PartPagesIndex   = "visio/pages/pages.xml"
	PartPagesRels    = "visio/pages/_rels/pages.xml.rels"
	PartMastersIndex = "visio/masters/masters.xml"
	PartMastersRels  = "visio/masters/_rels/masters.xml.rels"
)

// Content types this tool registers when adding parts.
const (
	ContentTypeMaster  = "application/vnd.ms-visio.master+xml"
	ContentTypeMasters = "application/vnd.ms-visio.masters+xml"
)

// Relationship types this tool registers when adding parts.
const (
	RelTypeMaster  = "http://schemas.microsoft.com/office/visio/2012/relationships/master"
	RelTypeMasters = "http://schemas.microsoft.com/office/visio/2012/relationships/masters"
)

// RelTarget resolves a relationship id to its target, relative to the part
// directory the relationship part serves. Returns "" when the id is absent.
func RelTarget(rels *Node, id string) string {
	for _, rel := range rels.FindAll("Relationship") {
		if rel.AttrValue("Id") == id {
			return rel.AttrValue("Target")
		}
	}

	return ""
}

// MaxRelID returns the highest numeric suffix among rId-style relationship
// ids in the part. Ids in other shapes are ignored.
func MaxRelID(rels *Node) int {
	max := 0

	for _, rel := range rels.FindAll("Relationship") {
		id := rel.AttrValue("Id")
		if !strings.HasPrefix(id, "rId") {
			continue
		}

		n, err := strconv.Atoi(id[len("rId"):])
		if err != nil {
			continue
		}

		if n > max {
			max = n
		}
	}

	return max
}

// AddRelationship appends a Relationship element to a relationship part.
func AddRelationship(rels *Node, id, relType, target string) {
	rel := NewElement(NSPackageRels, "Relationship")
	rel.Attrs = []xml.Attr{
		{Name: xml.Name{Local: "Id"}, Value: id},
		{Name: xml.Name{Local: "Type"}, Value: relType},
		{Name: xml.Name{Local: "Target"}, Value: target},
	}

	rels.AppendChild(rel)
}

// NewRelationshipsPart returns an empty relationship part tree.
func NewRelationshipsPart() *Node {
	root := NewElement(NSPackageRels, "Relationships")
	root.Attrs = []xml.Attr{
		{Name: xml.Name{Local: "xmlns"}, Value: NSPackageRels},
	}

	return root
}

// HasContentTypeOverride reports whether the content-type part already
// declares an override for the given part name ("/"-prefixed).
func HasContentTypeOverride(ct *Node, partName string) bool {
	for _, o := range ct.FindAll("Override") {
		if o.AttrValue("PartName") == partName {
			return true
		}
	}

	return false
}

// AddContentTypeOverride declares a content type for one part. The part name
// must be "/"-prefixed per OPC. Adding an existing override is a no-op.
func AddContentTypeOverride(ct *Node, partName, contentType string) {
	if HasContentTypeOverride(ct, partName) {
		return
	}

	o := NewElement(NSContentTypes, "Override")
	o.Attrs = []xml.Attr{
		{Name: xml.Name{Local: "PartName"}, Value: partName},
		{Name: xml.Name{Local: "ContentType"}, Value: contentType},
	}

	ct.AppendChild(o)
}
