package rebuild

import (
	"fmt"

	"visio-restyle/internal/diagnostic"
	"visio-restyle/internal/diagram"
	"visio-restyle/internal/extract"
	"visio-restyle/internal/masters"
	"visio-restyle/internal/vsdx"
)

// Options configure one rebuild run.
type Options struct {
	// SourcePath is the diagram to restyle.
	SourcePath string
	// TemplatePath supplies the target masters.
	TemplatePath string
	// OutputPath is where the restyled copy lands. Nothing is written when
	// the run fails.
	OutputPath string
	// Mapping assigns a target master name to each shape id.
	Mapping diagram.Mapping
}

// Result summarizes a completed run.
type Result struct {
	// Report carries the non-fatal diagnostics.
	Report *diagnostic.Report
	// Remapped counts the shapes re-pointed to a new master.
	Remapped int
	// Injected counts the masters copied in from the template.
	Injected int
	// RemovedBonds counts the dropped connector bond records.
	RemovedBonds int
}

// Run restyles a diagram end to end: apply the mapping against the template
// and save the result as a new container. The source file is never modified;
// a fatal condition aborts before any output exists.
func Run(opts Options) (*Result, error) {
	source, err := vsdx.Open(opts.SourcePath)
	if err != nil {
		return nil, err
	}

	template, err := vsdx.Open(opts.TemplatePath)
	if err != nil {
		return nil, err
	}

	res, err := Apply(source, template, opts.Mapping)
	if err != nil {
		return nil, err
	}

	err = source.Save(opts.OutputPath)
	if err != nil {
		return nil, err
	}

	return res, nil
}

// Apply runs the restyling passes against an open source container without
// saving it. Pages the mapping never touches are not re-serialized, so their
// parts stay byte-identical on save.
func Apply(source, template *vsdx.Container, mapping diagram.Mapping) (*Result, error) {
	srcCat, err := masters.Build(source)
	if err != nil {
		return nil, err
	}

	tplCat, err := masters.Build(template)
	if err != nil {
		return nil, err
	}

	inj := masters.NewInjector(source, srcCat, tplCat)

	index, err := source.ParseXML(vsdx.PartPagesIndex)
	if err != nil {
		return nil, err
	}

	rels, err := source.ParseXML(vsdx.PartPagesRels)
	if err != nil {
		return nil, err
	}

	res := &Result{Report: &diagnostic.Report{}}
	consumed := make(map[string]bool)

	for i, pageEl := range index.FindAll("Page") {
		partName, err := extract.PagePartName(source, rels, pageEl)
		if err != nil {
			return nil, err
		}

		root, err := source.ParseXML(partName)
		if err != nil {
			return nil, err
		}

		label := extract.PageLabel(pageEl, i)

		pageConsumed, remapped, err := RemapShapes(root, label, mapping, inj, res.Report)
		if err != nil {
			return nil, err
		}

		for id := range pageConsumed {
			consumed[id] = true
		}

		removed := RebindConnectors(root, label, res.Report)

		res.Remapped += remapped
		res.RemovedBonds += removed

		if remapped > 0 || removed > 0 {
			err = source.SetPartXML(partName, root)
			if err != nil {
				return nil, err
			}
		}
	}

	// Entries that matched no sheet on any page are stale, not fatal.
	for _, id := range sortedKeys(mapping) {
		if !consumed[id] {
			res.Report.AddWarning(diagnostic.CodeStaleMapping,
				fmt.Sprintf("mapping references shape %q which is on no page; entry skipped", id),
				"", id)
		}
	}

	err = inj.Commit()
	if err != nil {
		return nil, err
	}

	res.Injected = inj.Injected()

	return res, nil
}
