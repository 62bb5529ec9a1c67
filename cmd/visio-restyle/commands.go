package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"visio-restyle/internal/diagnostic"
	"visio-restyle/internal/diagram"
	"visio-restyle/internal/extract"
	"visio-restyle/internal/mapper"
	"visio-restyle/internal/rebuild"
	"visio-restyle/internal/vsdx"
)

func runExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	out := fs.String("o", "", "output file (stdout when empty)")

	positional := parsePositionals(fs, args)
	if len(positional) != 1 {
		return usageErrorf("extract <input.vsdx> [-o diagram.json]")
	}

	container, err := vsdx.Open(positional[0])
	if err != nil {
		return err
	}

	d, err := extract.Diagram(container)
	if err != nil {
		return err
	}

	return writeArtifact(*out, d, "diagram data")
}

func runExtractMasters(args []string) error {
	fs := flag.NewFlagSet("extract-masters", flag.ExitOnError)
	out := fs.String("o", "", "output file (stdout when empty)")

	positional := parsePositionals(fs, args)
	if len(positional) != 1 {
		return usageErrorf("extract-masters <template.vsdx> [-o masters.json]")
	}

	container, err := vsdx.Open(positional[0])
	if err != nil {
		return err
	}

	masters, err := extract.Masters(container)
	if err != nil {
		return err
	}

	return writeArtifact(*out, masters, "master catalog")
}

func runMap(args []string) error {
	fs := flag.NewFlagSet("map", flag.ExitOnError)
	out := fs.String("o", "", "output file (stdout when empty)")
	mapperName := fs.String("mapper", "auto", "mapping strategy: auto or llm")
	rulesPath := fs.String("rules", "", "rules YAML for the auto mapper (embedded defaults when empty)")
	model := fs.String("m", "", "model for the llm mapper (LLM_MODEL or gpt-4 when empty)")
	verbose := fs.Bool("verbose", false, "print informational notes")

	positional := parsePositionals(fs, args)
	if len(positional) != 2 {
		return usageErrorf("map <diagram.json> <masters.json> [-o mapping.json] [--mapper auto|llm] [--rules rules.yaml] [-m model]")
	}

	d, err := diagram.LoadDiagram(positional[0])
	if err != nil {
		return err
	}

	masters, err := diagram.LoadMasters(positional[1])
	if err != nil {
		return err
	}

	m, err := buildMapper(*mapperName, *rulesPath, *model)
	if err != nil {
		return err
	}

	rep := &diagnostic.Report{}

	mapping, err := m.CreateMapping(context.Background(), d, masters, rep)
	if err != nil {
		return err
	}

	printReport(rep, *verbose)
	fmt.Fprintln(os.Stderr, dimStyle.Render(fmt.Sprintf("%d shapes mapped", len(mapping))))

	return writeArtifact(*out, mapping, "shape mapping")
}

func runRebuild(args []string) error {
	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	out := fs.String("o", "", "output container (derived from the input when empty)")
	verbose := fs.Bool("verbose", false, "print informational notes")

	positional := parsePositionals(fs, args)
	if len(positional) != 3 {
		return usageErrorf("rebuild <input.vsdx> <template.vsdx> <mapping.json> [-o output.vsdx]")
	}

	mapping, err := diagram.LoadMapping(positional[2])
	if err != nil {
		return err
	}

	output := *out
	if output == "" {
		output = defaultOutputPath(positional[0])
	}

	result, err := rebuild.Run(rebuild.Options{
		SourcePath:   positional[0],
		TemplatePath: positional[1],
		OutputPath:   output,
		Mapping:      mapping,
	})
	if err != nil {
		return err
	}

	printReport(result.Report, *verbose)
	printRebuildSummary(result, output)

	return nil
}

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	template := fs.String("t", "", "template container carrying the target masters (required)")
	out := fs.String("o", "", "output container (derived from the input when empty)")
	mapperName := fs.String("mapper", "auto", "mapping strategy: auto or llm")
	rulesPath := fs.String("rules", "", "rules YAML for the auto mapper (embedded defaults when empty)")
	model := fs.String("m", "", "model for the llm mapper (LLM_MODEL or gpt-4 when empty)")
	saveIntermediate := fs.Bool("save-intermediate", false, "write the intermediate JSON artifacts next to the output")
	verbose := fs.Bool("verbose", false, "print informational notes")

	positional := parsePositionals(fs, args)
	if len(positional) != 1 {
		return usageErrorf("convert <input.vsdx> -t template.vsdx [-o output.vsdx] [--mapper auto|llm] [--rules rules.yaml] [-m model] [--save-intermediate]")
	}

	if *template == "" {
		return usageErrorf("convert requires -t template.vsdx")
	}

	input := positional[0]

	output := *out
	if output == "" {
		output = defaultOutputPath(input)
	}

	m, err := buildMapper(*mapperName, *rulesPath, *model)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, titleStyle.Render(fmt.Sprintf("converting %s against %s",
		filepath.Base(input), filepath.Base(*template))))

	fmt.Fprintln(os.Stderr, dimStyle.Render("[1/4] extracting source diagram"))

	source, err := vsdx.Open(input)
	if err != nil {
		return err
	}

	d, err := extract.Diagram(source)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, dimStyle.Render("[2/4] reading template masters"))

	tpl, err := vsdx.Open(*template)
	if err != nil {
		return err
	}

	masters, err := extract.Masters(tpl)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, dimStyle.Render("[3/4] generating shape mapping ("+*mapperName+")"))

	rep := &diagnostic.Report{}

	mapping, err := m.CreateMapping(context.Background(), d, masters, rep)
	if err != nil {
		return err
	}

	if *saveIntermediate {
		err = saveIntermediates(output, d, masters, mapping)
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(os.Stderr, dimStyle.Render("[4/4] rebuilding with target masters"))

	result, err := rebuild.Apply(source, tpl, mapping)
	if err != nil {
		return err
	}

	err = source.Save(output)
	if err != nil {
		return err
	}

	rep.Merge(*result.Report)
	printReport(rep, *verbose)
	printRebuildSummary(result, output)

	return nil
}

// parsePositionals parses fs accepting flag arguments both before and after
// the positional arguments (stdlib flag stops at the first positional).
func parsePositionals(fs *flag.FlagSet, args []string) []string {
	var positional []string

	_ = fs.Parse(args)

	for fs.NArg() > 0 {
		rest := fs.Args()
		positional = append(positional, rest[0])
		_ = fs.Parse(rest[1:])
	}

	return positional
}

// buildMapper constructs the requested mapping strategy. The model override
// only applies to the llm mapper.
func buildMapper(name, rulesPath, model string) (mapper.Mapper, error) {
	switch name {
	case "auto":
		rules := mapper.DefaultRules()

		if rulesPath != "" {
			loaded, err := mapper.LoadRules(rulesPath)
			if err != nil {
				return nil, err
			}

			rules = loaded
		}

		return mapper.NewAutoMapper(rules, mapper.DefaultConfig()), nil

	case "llm":
		config := mapper.LLMConfigFromEnv()
		if model != "" {
			config.Model = model
		}

		return mapper.NewLLMMapper(config)

	default:
		return nil, usageErrorf("unknown mapper %q (want auto or llm)", name)
	}
}

// writeArtifact writes v as JSON to path, or to stdout when path is empty.
func writeArtifact(path string, v any, what string) error {
	if path == "" {
		return diagram.Encode(os.Stdout, v)
	}

	err := diagram.WriteFile(path, v)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, successStyle.Render(what+" written to "+path))

	return nil
}

// saveIntermediates writes the pipeline artifacts into an intermediate/
// directory next to the output container.
func saveIntermediates(output string, d *diagram.Diagram, masters *diagram.MastersFile, mapping diagram.Mapping) error {
	dir := filepath.Join(filepath.Dir(output), "intermediate")

	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create intermediate directory: %w", err)
	}

	artifacts := []struct {
		name string
		v    any
	}{
		{"extracted_diagram.json", d},
		{"target_masters.json", masters},
		{"shape_mapping.json", mapping},
	}

	for _, artifact := range artifacts {
		err = diagram.WriteFile(filepath.Join(dir, artifact.name), artifact.v)
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(os.Stderr, dimStyle.Render("intermediate artifacts written to "+dir))

	return nil
}

// defaultOutputPath derives <name>-restyled<ext> next to the input.
func defaultOutputPath(input string) string {
	ext := filepath.Ext(input)

	return strings.TrimSuffix(input, ext) + "-restyled" + ext
}

// printReport prints collected warnings (always) and infos (verbose only) to
// stderr.
func printReport(rep *diagnostic.Report, verbose bool) {
	for _, w := range rep.Warnings {
		fmt.Fprintln(os.Stderr, warnStyle.Render("warning: "+w.String()))
	}

	if !verbose {
		return
	}

	for _, note := range rep.Infos {
		fmt.Fprintln(os.Stderr, dimStyle.Render("note: "+note.String()))
	}
}

func printRebuildSummary(result *rebuild.Result, output string) {
	fmt.Fprintln(os.Stderr, dimStyle.Render(fmt.Sprintf(
		"%d shapes remapped, %d masters injected, %d dangling bonds removed",
		result.Remapped, result.Injected, result.RemovedBonds)))
	fmt.Fprintln(os.Stderr, successStyle.Render("restyled container written to "+output))
}
