// Command visio-restyle converts Visio diagrams from one visual style to
// another: it extracts a simplified view of the source container, maps each
// shape to a master from a template stencil, and rebuilds the diagram with
// the template masters injected and connectors reglued.
//
// Subcommands:
//
//	extract          source container -> diagram JSON
//	extract-masters  template container -> masters JSON
//	map              diagram + masters JSON -> mapping JSON (auto or LLM)
//	rebuild          apply a finished mapping to a source container
//	convert          extract + map + rebuild in one run
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// usageError marks a command-line mistake; run turns it into usage output and
// exit code 2 instead of the fatal exit code 1.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	_ = loadDotEnv(".env")

	if len(args) == 0 {
		printUsage(os.Stderr)

		return 2
	}

	var err error

	switch cmd := args[0]; cmd {
	case "extract":
		err = runExtract(args[1:])
	case "extract-masters":
		err = runExtractMasters(args[1:])
	case "map":
		err = runMap(args[1:])
	case "rebuild":
		err = runRebuild(args[1:])
	case "convert":
		err = runConvert(args[1:])
	case "help", "-h", "--help":
		printUsage(os.Stdout)

		return 0
	default:
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("unknown command %q", cmd)))
		printUsage(os.Stderr)

		return 2
	}

	if err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintln(os.Stderr, errorStyle.Render("usage: visio-restyle "+usageErr.msg))

			return 2
		}

		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))

		return 1
	}

	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, titleStyle.Render("visio-restyle")+" - restyle Visio diagrams against a template stencil")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  visio-restyle extract <input.vsdx> [-o diagram.json]")
	fmt.Fprintln(w, "  visio-restyle extract-masters <template.vsdx> [-o masters.json]")
	fmt.Fprintln(w, "  visio-restyle map <diagram.json> <masters.json> [-o mapping.json] [--mapper auto|llm] [--rules rules.yaml] [-m model]")
	fmt.Fprintln(w, "  visio-restyle rebuild <input.vsdx> <template.vsdx> <mapping.json> [-o output.vsdx]")
	fmt.Fprintln(w, "  visio-restyle convert <input.vsdx> -t template.vsdx [-o output.vsdx] [--mapper auto|llm] [--rules rules.yaml] [-m model] [--save-intermediate]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'visio-restyle <command> -h' for the flags of one command.")
}
