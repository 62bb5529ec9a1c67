// Package vsdxtest assembles minimal diagram containers in memory for tests.
//
// A Doc describes masters, pages, shapes, and connector bonds; Bytes renders
// it as a real zip-of-XML-parts archive with content types and relationship
// parts wired, so component tests can exercise the same code paths as a
// container produced by a drawing tool.
package vsdxtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"visio-restyle/internal/vsdx"
)

// Doc describes a container to assemble.
type Doc struct {
	// Masters populate the master index and one content part each. An empty
	// slice produces a container with no master index at all.
	Masters []Master
	// Pages populate the page index and one content part each. An empty
	// slice produces a container without page parts.
	Pages []Page
	// RawParts adds or replaces parts after assembly, keyed by part name.
	RawParts map[string][]byte
}

// Master describes one master definition.
type Master struct {
	ID       string
	Name     string
	UniqueID string
}

// Page describes one page part.
type Page struct {
	Name     string
	Shapes   []Shape
	Connects []Connect
}

// Shape describes one shape element. Cells render only when their value is
// set, so tests can exercise missing-cell defaults.
type Shape struct {
	ID       string
	Type     string // defaults to "Shape"
	MasterID string // master reference; "" renders no Master attribute
	Text     string
	PinX     string
	PinY     string
	Width    string
	Height   string
	// Connector adds BeginX/BeginY/EndX/EndY routing cells, which is what
	// classifies a shape as a connector.
	Connector bool
	// Attrs adds extra shape attributes (for example FillStyle).
	Attrs map[string]string
	// Cells adds extra direct cells, name to value.
	Cells map[string]string
	// Sections adds named sections with optional raw inner XML.
	Sections []Section
}

// Section is one named section inside a shape.
type Section struct {
	Name string
	Body string // raw inner XML; a canned row when empty
}

// Connect describes one connector-to-shape bond record.
type Connect struct {
	FromSheet string
	FromCell  string // "BeginX" or "EndX"
	ToSheet   string
}

// Bytes assembles the archive. RawParts entries replace same-named standard
// parts; the rest are appended in name order.
func (d Doc) Bytes(tb testing.TB) []byte {
	tb.Helper()

	type part struct {
		name    string
		content string
	}

	parts := []part{
		{vsdx.PartContentTypes, d.contentTypes()},
		{"_rels/.rels", packageRels},
		{vsdx.PartDocument, documentPart},
		{vsdx.PartDocumentRels, d.documentRels()},
	}

	if len(d.Pages) > 0 {
		parts = append(parts,
			part{vsdx.PartPagesIndex, d.pagesIndex()},
			part{vsdx.PartPagesRels, d.pagesRels()},
		)

		for i, p := range d.Pages {
			parts = append(parts, part{fmt.Sprintf("visio/pages/page%d.xml", i+1), p.render()})
		}
	}

	if len(d.Masters) > 0 {
		parts = append(parts,
			part{vsdx.PartMastersIndex, d.mastersIndex()},
			part{vsdx.PartMastersRels, d.mastersRels()},
		)

		for i, m := range d.Masters {
			parts = append(parts, part{fmt.Sprintf("visio/masters/master%d.xml", i+1), m.render()})
		}
	}

	used := make(map[string]bool, len(parts))

	for i := range parts {
		if raw, ok := d.RawParts[parts[i].name]; ok {
			parts[i].content = string(raw)
		}

		used[parts[i].name] = true
	}

	extras := make([]string, 0, len(d.RawParts))

	for name := range d.RawParts {
		if !used[name] {
			extras = append(extras, name)
		}
	}

	sort.Strings(extras)

	for _, name := range extras {
		parts = append(parts, part{name, string(d.RawParts[name])})
	}

	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			tb.Fatalf("create part %s: %v", p.name, err)
		}

		_, err = f.Write([]byte(p.content))
		if err != nil {
			tb.Fatalf("write part %s: %v", p.name, err)
		}
	}

	err := zw.Close()
	if err != nil {
		tb.Fatalf("close archive: %v", err)
	}

	return buf.Bytes()
}

// Container assembles the archive and opens it.
func (d Doc) Container(tb testing.TB) *vsdx.Container {
	tb.Helper()

	c, err := vsdx.FromBytes("test.vsdx", d.Bytes(tb))
	if err != nil {
		tb.Fatalf("open assembled container: %v", err)
	}

	return c
}

// WriteFile assembles the archive into a temp file and returns its path.
func (d Doc) WriteFile(tb testing.TB, name string) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), name)

	err := os.WriteFile(path, d.Bytes(tb), 0o644)
	if err != nil {
		tb.Fatalf("write container file: %v", err)
	}

	return path
}

const xmlDecl = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

const packageRels = xmlDecl +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` + "\n" +
	`  <Relationship Id="rId1" Type="http://schemas.microsoft.com/visio/2010/relationships/document" Target="visio/document.xml"/>` + "\n" +
	`</Relationships>`

const documentPart = xmlDecl +
	`<VisioDocument xmlns="` + vsdx.NSMain + `" xmlns:r="` + vsdx.NSDocRels + `">` + "\n" +
	`  <DocumentSettings/>` + "\n" +
	`</VisioDocument>`

func (d Doc) contentTypes() string {
	var sb strings.Builder

	sb.WriteString(xmlDecl)
	sb.WriteString(`<Types xmlns="` + vsdx.NSContentTypes + `">` + "\n")
	sb.WriteString(`  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` + "\n")
	sb.WriteString(`  <Default Extension="xml" ContentType="application/xml"/>` + "\n")
	sb.WriteString(`  <Override PartName="/visio/document.xml" ContentType="application/vnd.ms-visio.drawing.main+xml"/>` + "\n")

	if len(d.Pages) > 0 {
		sb.WriteString(`  <Override PartName="/visio/pages/pages.xml" ContentType="application/vnd.ms-visio.pages+xml"/>` + "\n")

		for i := range d.Pages {
			fmt.Fprintf(&sb, "  <Override PartName=\"/visio/pages/page%d.xml\" ContentType=\"application/vnd.ms-visio.page+xml\"/>\n", i+1)
		}
	}

	if len(d.Masters) > 0 {
		sb.WriteString(`  <Override PartName="/visio/masters/masters.xml" ContentType="` + vsdx.ContentTypeMasters + `"/>` + "\n")

		for i := range d.Masters {
			fmt.Fprintf(&sb, "  <Override PartName=\"/visio/masters/master%d.xml\" ContentType=\"%s\"/>\n", i+1, vsdx.ContentTypeMaster)
		}
	}

	sb.WriteString(`</Types>`)

	return sb.String()
}

func (d Doc) documentRels() string {
	var sb strings.Builder

	sb.WriteString(xmlDecl)
	sb.WriteString(`<Relationships xmlns="` + vsdx.NSPackageRels + `">` + "\n")

	rid := 1
	if len(d.Pages) > 0 {
		fmt.Fprintf(&sb, "  <Relationship Id=\"rId%d\" Type=\"http://schemas.microsoft.com/office/visio/2012/relationships/pages\" Target=\"pages/pages.xml\"/>\n", rid)
		rid++
	}

	if len(d.Masters) > 0 {
		fmt.Fprintf(&sb, "  <Relationship Id=\"rId%d\" Type=\"%s\" Target=\"masters/masters.xml\"/>\n", rid, vsdx.RelTypeMasters)
	}

	sb.WriteString(`</Relationships>`)

	return sb.String()
}

func (d Doc) pagesIndex() string {
	var sb strings.Builder

	sb.WriteString(xmlDecl)
	sb.WriteString(`<Pages xmlns="` + vsdx.NSMain + `" xmlns:r="` + vsdx.NSDocRels + `">` + "\n")

	for i, p := range d.Pages {
		fmt.Fprintf(&sb, "  <Page ID=\"%d\" NameU=\"%s\" Name=\"%s\">\n", i, escape(p.Name), escape(p.Name))
		fmt.Fprintf(&sb, "    <Rel r:id=\"rId%d\"/>\n", i+1)
		sb.WriteString("  </Page>\n")
	}

	sb.WriteString(`</Pages>`)

	return sb.String()
}

func (d Doc) pagesRels() string {
	var sb strings.Builder

	sb.WriteString(xmlDecl)
	sb.WriteString(`<Relationships xmlns="` + vsdx.NSPackageRels + `">` + "\n")

	for i := range d.Pages {
		fmt.Fprintf(&sb, "  <Relationship Id=\"rId%d\" Type=\"http://schemas.microsoft.com/office/visio/2012/relationships/page\" Target=\"page%d.xml\"/>\n", i+1, i+1)
	}

	sb.WriteString(`</Relationships>`)

	return sb.String()
}

func (d Doc) mastersIndex() string {
	var sb strings.Builder

	sb.WriteString(xmlDecl)
	sb.WriteString(`<Masters xmlns="` + vsdx.NSMain + `" xmlns:r="` + vsdx.NSDocRels + `">` + "\n")

	for i, m := range d.Masters {
		uid := m.UniqueID
		if uid == "" {
			uid = fmt.Sprintf("{00000000-0000-0000-0000-%012d}", i+1)
		}

		fmt.Fprintf(&sb, "  <Master ID=\"%s\" NameU=\"%s\" Name=\"%s\" UniqueID=\"%s\">\n",
			escape(m.ID), escape(m.Name), escape(m.Name), uid)
		fmt.Fprintf(&sb, "    <Rel r:id=\"rId%d\"/>\n", i+1)
		sb.WriteString("  </Master>\n")
	}

	sb.WriteString(`</Masters>`)

	return sb.String()
}

func (d Doc) mastersRels() string {
	var sb strings.Builder

	sb.WriteString(xmlDecl)
	sb.WriteString(`<Relationships xmlns="` + vsdx.NSPackageRels + `">` + "\n")

	for i := range d.Masters {
		fmt.Fprintf(&sb, "  <Relationship Id=\"rId%d\" Type=\"%s\" Target=\"master%d.xml\"/>\n", i+1, vsdx.RelTypeMaster, i+1)
	}

	sb.WriteString(`</Relationships>`)

	return sb.String()
}

func (m Master) render() string {
	return xmlDecl +
		`<MasterContents xmlns="` + vsdx.NSMain + `" xmlns:r="` + vsdx.NSDocRels + `">` + "\n" +
		"  <Shapes>\n" +
		`    <Shape ID="5" Type="Shape">` + "\n" +
		`      <Section N="Fill">` + "\n" +
		`        <Row IX="0"><Cell N="FillForegnd" V="#4472C4"/></Row>` + "\n" +
		"      </Section>\n" +
		"    </Shape>\n" +
		"  </Shapes>\n" +
		`</MasterContents>`
}

func (p Page) render() string {
	var sb strings.Builder

	sb.WriteString(xmlDecl)
	sb.WriteString(`<PageContents xmlns="` + vsdx.NSMain + `" xmlns:r="` + vsdx.NSDocRels + `">` + "\n")

	if len(p.Shapes) > 0 {
		sb.WriteString("  <Shapes>\n")

		for _, s := range p.Shapes {
			s.render(&sb)
		}

		sb.WriteString("  </Shapes>\n")
	}

	if len(p.Connects) > 0 {
		sb.WriteString("  <Connects>\n")

		for _, c := range p.Connects {
			fmt.Fprintf(&sb, "    <Connect FromSheet=\"%s\" FromCell=\"%s\" ToSheet=\"%s\"/>\n",
				escape(c.FromSheet), escape(c.FromCell), escape(c.ToSheet))
		}

		sb.WriteString("  </Connects>\n")
	}

	sb.WriteString(`</PageContents>`)

	return sb.String()
}

func (s Shape) render(sb *strings.Builder) {
	typ := s.Type
	if typ == "" {
		typ = "Shape"
	}

	fmt.Fprintf(sb, "    <Shape ID=\"%s\" Type=\"%s\"", escape(s.ID), escape(typ))

	if s.MasterID != "" {
		fmt.Fprintf(sb, " Master=\"%s\"", escape(s.MasterID))
	}

	for _, k := range sortedKeys(s.Attrs) {
		fmt.Fprintf(sb, " %s=\"%s\"", k, escape(s.Attrs[k]))
	}

	sb.WriteString(">\n")

	cell := func(n, v string) {
		if v != "" {
			fmt.Fprintf(sb, "      <Cell N=\"%s\" V=\"%s\"/>\n", n, escape(v))
		}
	}

	cell("PinX", s.PinX)
	cell("PinY", s.PinY)
	cell("Width", s.Width)
	cell("Height", s.Height)

	if s.Connector {
		cell("BeginX", "1")
		cell("BeginY", "1")
		cell("EndX", "2")
		cell("EndY", "2")
	}

	for _, k := range sortedKeys(s.Cells) {
		cell(k, s.Cells[k])
	}

	for _, sec := range s.Sections {
		body := sec.Body
		if body == "" {
			body = `<Row IX="0"><Cell N="Value" V="1"/></Row>`
		}

		fmt.Fprintf(sb, "      <Section N=\"%s\">%s</Section>\n", escape(sec.Name), body)
	}

	if s.Text != "" {
		fmt.Fprintf(sb, "      <Text>%s</Text>\n", escape(s.Text))
	}

	sb.WriteString("    </Shape>\n")
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escape(s string) string {
	return escaper.Replace(s)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
