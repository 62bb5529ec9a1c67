package extract

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"

	"visio-restyle/internal/diagnostic"
	"visio-restyle/internal/diagram"
	"visio-restyle/internal/masters"
	"visio-restyle/internal/vsdx"
)

// Diagram extracts the simplified view of every page in the container.
func Diagram(c *vsdx.Container) (*diagram.Diagram, error) {
	catalog, err := masters.Build(c)
	if err != nil {
		return nil, err
	}

	index, err := c.ParseXML(vsdx.PartPagesIndex)
	if err != nil {
		return nil, err
	}

	rels, err := c.ParseXML(vsdx.PartPagesRels)
	if err != nil {
		return nil, err
	}

	d := &diagram.Diagram{
		Filename: filepath.Base(c.Path()),
		Pages:    []diagram.Page{},
	}

	for i, pageEl := range index.FindAll("Page") {
		page, err := readPage(c, rels, pageEl, i, catalog)
		if err != nil {
			return nil, err
		}

		d.Pages = append(d.Pages, *page)
	}

	return d, nil
}

// Masters extracts the template catalog listing without requiring any page
// content.
func Masters(c *vsdx.Container) (*diagram.MastersFile, error) {
	catalog, err := masters.Build(c)
	if err != nil {
		return nil, err
	}

	return catalog.List(), nil
}

// PagePartName resolves the content part of one Page index entry.
func PagePartName(c *vsdx.Container, rels *vsdx.Node, pageEl *vsdx.Node) (string, error) {
	rel := pageEl.Find("Rel")
	if rel == nil {
		return "", &diagnostic.CorruptContainerError{
			Path:   c.Path(),
			Reason: fmt.Sprintf("page %q has no content part reference", PageLabel(pageEl, 0)),
		}
	}

	target := vsdx.RelTarget(rels, rel.AttrValue("id"))
	if target == "" {
		return "", &diagnostic.CorruptContainerError{
			Path:   c.Path(),
			Reason: fmt.Sprintf("page %q references unknown relationship %q", PageLabel(pageEl, 0), rel.AttrValue("id")),
		}
	}

	return path.Join("visio/pages", target), nil
}

func readPage(c *vsdx.Container, rels, pageEl *vsdx.Node, i int, catalog *masters.Catalog) (*diagram.Page, error) {
	partName, err := PagePartName(c, rels, pageEl)
	if err != nil {
		return nil, err
	}

	root, err := c.ParseXML(partName)
	if err != nil {
		return nil, err
	}

	page := &diagram.Page{
		Name:       PageLabel(pageEl, i),
		Shapes:     []diagram.Shape{},
		Connectors: []diagram.Connector{},
	}

	from, to := connectEndpoints(root)

	shapesEl := root.Find("Shapes")
	if shapesEl == nil {
		return page, nil
	}

	for _, shapeEl := range shapesEl.FindAll("Shape") {
		id := shapeEl.AttrValue("ID")
		cells := directCells(shapeEl)

		if _, connector := cells["BeginX"]; connector {
			page.Connectors = append(page.Connectors, diagram.Connector{
				ID:        id,
				FromShape: optional(from[id]),
				ToShape:   optional(to[id]),
			})

			continue
		}

		shape, err := readShape(c, shapeEl, cells, catalog)
		if err != nil {
			return nil, err
		}

		page.Shapes = append(page.Shapes, *shape)
	}

	return page, nil
}

func readShape(c *vsdx.Container, shapeEl *vsdx.Node, cells map[string]string, catalog *masters.Catalog) (*diagram.Shape, error) {
	id := shapeEl.AttrValue("ID")

	shape := &diagram.Shape{
		ID:       id,
		Position: diagram.Position{},
		Size:     diagram.Size{Width: 1, Height: 1},
	}

	if text := shapeEl.Find("Text"); text != nil {
		shape.Text = text.InnerText()
	}

	if masterID, ok := shapeEl.Attr("Master"); ok {
		if name := catalog.NameByID(masterID); name != "" {
			shape.MasterName = &name
		}
	}

	geometry := []struct {
		cell string
		dst  *float64
	}{
		{"PinX", &shape.Position.X},
		{"PinY", &shape.Position.Y},
		{"Width", &shape.Size.Width},
		{"Height", &shape.Size.Height},
	}

	for _, g := range geometry {
		raw, ok := cells[g.cell]
		if !ok {
			continue
		}

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &diagnostic.CorruptContainerError{
				Path:   c.Path(),
				Reason: fmt.Sprintf("shape %q: invalid %s cell %q", id, g.cell, raw),
				Err:    err,
			}
		}

		*g.dst = v
	}

	return shape, nil
}

// connectEndpoints reads the page's bond records into connector-id keyed
// endpoint tables. BeginX names the "from" end, EndX the "to" end.
func connectEndpoints(pageRoot *vsdx.Node) (from, to map[string]string) {
	from = make(map[string]string)
	to = make(map[string]string)

	connects := pageRoot.Find("Connects")
	if connects == nil {
		return from, to
	}

	for _, connect := range connects.FindAll("Connect") {
		sheet := connect.AttrValue("FromSheet")

		switch connect.AttrValue("FromCell") {
		case "BeginX":
			from[sheet] = connect.AttrValue("ToSheet")
		case "EndX":
			to[sheet] = connect.AttrValue("ToSheet")
		}
	}

	return from, to
}

func directCells(shapeEl *vsdx.Node) map[string]string {
	cells := make(map[string]string)

	for _, cell := range shapeEl.FindAll("Cell") {
		cells[cell.AttrValue("N")] = cell.AttrValue("V")
	}

	return cells
}

// PageLabel names a page for artifacts and diagnostics: the display name,
// the universal name, or a positional fallback.
func PageLabel(pageEl *vsdx.Node, i int) string {
	if name := pageEl.AttrValue("Name"); name != "" {
		return name
	}

	if name := pageEl.AttrValue("NameU"); name != "" {
		return name
	}

	return fmt.Sprintf("Page-%d", i+1)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
