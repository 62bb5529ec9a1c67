package rebuild

import (
	"fmt"

	"visio-restyle/internal/diagnostic"
	"visio-restyle/internal/vsdx"
)

// RebindConnectors re-validates the page's bond records. A record whose
// endpoint no longer resolves to a sheet on the page is removed and reported;
// the connector shape itself always stays. Returns how many records were
// dropped.
func RebindConnectors(root *vsdx.Node, label string, rep *diagnostic.Report) (removed int) {
	connects := root.Find("Connects")
	if connects == nil {
		return 0
	}

	ids := make(map[string]bool)

	if shapesEl := root.Find("Shapes"); shapesEl != nil {
		for _, shape := range shapesEl.FindAll("Shape") {
			ids[shape.AttrValue("ID")] = true
		}
	}

	return connects.RemoveChildren(func(n *vsdx.Node) bool {
		if !n.IsElement() || n.Name.Local != "Connect" {
			return false
		}

		from := n.AttrValue("FromSheet")
		to := n.AttrValue("ToSheet")

		if ids[from] && ids[to] {
			return false
		}

		end := to
		if !ids[from] {
			end = from
		}

		rep.AddWarning(diagnostic.CodeDanglingConnector,
			fmt.Sprintf("bond endpoint %q no longer resolves; record removed", end),
			label, from)

		return true
	})
}
