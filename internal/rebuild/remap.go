package rebuild

import (
	"errors"
	"sort"

	"visio-restyle/internal/diagnostic"
	"visio-restyle/internal/diagram"
	"visio-restyle/internal/masters"
	"visio-restyle/internal/vsdx"
)

// RemapShapes re-points every mapped shape on one page to its target master,
// injecting the master on first use and stripping the shape's local style
// payload. Mapping entries that hit a connector are skipped with an info
// diagnostic: connectors keep their routing master.
//
// It returns the set of mapping keys that matched a sheet on this page and
// how many shapes were re-pointed. A master name the template cannot supply
// is fatal.
func RemapShapes(root *vsdx.Node, label string, mapping diagram.Mapping, inj *masters.Injector, rep *diagnostic.Report) (consumed map[string]bool, remapped int, err error) {
	consumed = make(map[string]bool)

	shapesEl := root.Find("Shapes")
	if shapesEl == nil {
		return consumed, 0, nil
	}

	byID := make(map[string]*vsdx.Node)
	for _, shape := range shapesEl.FindAll("Shape") {
		byID[shape.AttrValue("ID")] = shape
	}

	for _, shapeID := range sortedKeys(mapping) {
		shape, ok := byID[shapeID]
		if !ok {
			continue
		}

		consumed[shapeID] = true

		if isConnector(shape) {
			rep.AddInfo(diagnostic.CodeConnectorSkipped,
				"mapping targets a connector; routing master kept", label, shapeID)

			continue
		}

		masterID, err := inj.Inject(mapping[shapeID])
		if err != nil {
			var notFound *diagnostic.MasterNotFoundError
			if errors.As(err, &notFound) && notFound.ShapeID == "" {
				notFound.ShapeID = shapeID
			}

			return nil, 0, err
		}

		StripStyles(shape)
		shape.SetAttr("Master", masterID)
		shape.RemoveAttr("Type")

		remapped++
	}

	return consumed, remapped, nil
}

// isConnector reports whether a sheet is a 1-D routing shape. Those carry
// begin/end geometry cells directly on the shape element.
func isConnector(shape *vsdx.Node) bool {
	for _, cell := range shape.FindAll("Cell") {
		if cell.AttrValue("N") == "BeginX" {
			return true
		}
	}

	return false
}

func sortedKeys(m diagram.Mapping) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
