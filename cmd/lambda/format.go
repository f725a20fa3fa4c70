package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIImport summarizes an import run.
type CLIImport struct {
	File  string `json:"file"`
	Nodes int    `json:"nodes"`
}

// outputResult writes result to w in the selected format.
func (a *app) outputResult(w io.Writer, result CLIResult) error {
	if a.flagFormat == "text" {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to w as a
// CLIResult envelope. In text mode it goes to errw.
func (a *app) outputError(w, errw io.Writer, command string, err error) error {
	a.errorHandled = true
	if a.flagFormat == "text" {
		fmt.Fprintf(errw, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// outputResultText writes one line per value. Structured values are
// rendered as compact JSON.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case nil:
		fmt.Fprintln(w, "undefined")
	case []string:
		for _, s := range v {
			fmt.Fprintln(w, s)
		}
	case []any:
		for _, item := range v {
			line, err := textValue(item)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, line)
		}
	case CLIImport:
		fmt.Fprintf(w, "Imported %d nodes from %s\n", v.Nodes, v.File)
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

func textValue(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding value: %w", err)
	}
	return string(b), nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
