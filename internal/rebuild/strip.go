package rebuild

import (
	"strings"

	"visio-restyle/internal/vsdx"
)

// Style payload removed when a shape is re-pointed at a new master. Geometry
// sections and cells stay untouched: the new master restyles the shape, the
// shape keeps its place.
var (
	styleSections = map[string]bool{
		"Fill":       true,
		"Line":       true,
		"QuickStyle": true,
		"Image":      true,
	}

	styleCells = map[string]bool{
		"FillForegnd": true,
		"FillBkgnd":   true,
		"FillPattern": true,
		"LineColor":   true,
		"LineWeight":  true,
		"LinePattern": true,
		"LineCap":     true,
		"Rounding":    true,
	}

	styleAttrs = []string{"LineStyle", "FillStyle", "TextStyle"}
)

// StripStyles removes local formatting from a shape element so the target
// master's styling shows through: style sections, style override cells, and
// style sheet references. Nested group members are stripped too. Applying it
// a second time changes nothing.
func StripStyles(shape *vsdx.Node) {
	shape.RemoveChildren(func(n *vsdx.Node) bool {
		if !n.IsElement() {
			return false
		}

		switch n.Name.Local {
		case "Section":
			return styleSections[n.AttrValue("N")]
		case "Cell":
			name := n.AttrValue("N")

			return styleCells[name] || strings.HasPrefix(name, "QuickStyle")
		}

		return false
	})

	for _, attr := range styleAttrs {
		shape.RemoveAttr(attr)
	}

	if nested := shape.Find("Shapes"); nested != nil {
		for _, child := range nested.FindAll("Shape") {
			StripStyles(child)
		}
	}
}
