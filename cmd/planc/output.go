package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"go.yaml.in/yaml/v3"

	"github.com/h1t35h/AssetOpsBench/internal/compile"
	"github.com/h1t35h/AssetOpsBench/internal/tui"
)

const (
	okColor   = color.FgGreen
	warnColor = color.FgYellow
	failColor = color.FgRed

	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"

	textWidth = 80
)

// printStatus prints a colored status line to stderr so that stdout stays machine-readable.
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Fprintf(color.Error, "%s %s\n", c.Sprint(symbol), message)
}

// planOutput is one compiled plan in json or yaml output.
type planOutput struct {
	Source          string `json:"source" yaml:"source"`
	compile.Summary `yaml:",inline"`
}

func validFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

// writeResults prints results in the requested format. A single result is
// written as one object, several as a list.
func writeResults(w io.Writer, format string, sources []string, results []compile.Result) error {
	outputs := make([]planOutput, len(results))
	for i, res := range results {
		outputs[i] = planOutput{Source: sources[i], Summary: res.Summary()}
	}

	var doc any = outputs
	if len(outputs) == 1 {
		doc = outputs[0]
	}

	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		for i, res := range results {
			if len(results) > 1 {
				fmt.Fprintf(w, "%s\n%s\n", sources[i], strings.Repeat("─", len(sources[i])))
			}
			fmt.Fprintln(w, tui.RenderResult(res, textWidth))
			if i < len(results)-1 {
				fmt.Fprintln(w)
			}
		}
		return nil
	}
}
