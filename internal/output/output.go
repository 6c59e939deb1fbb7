// Package output renders command results as YAML or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Format is a structured output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	// FormatText is the human-readable form; commands print their own text.
	FormatText Format = "text"
)

var current = FormatText

// Parse returns the format named by s.
func Parse(s string) (Format, error) {
	switch Format(s) {
	case FormatYAML, FormatJSON, FormatText:
		return Format(s), nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, yaml or json)", s)
	}
}

// Set sets the process-wide format chosen by the --output flag.
func Set(f Format) {
	current = f
}

// Current returns the process-wide format.
func Current() Format {
	return current
}

// IsStructured reports whether the current format is YAML or JSON.
func IsStructured() bool {
	return current == FormatYAML || current == FormatJSON
}

// Print writes data to stdout in the current format. Text falls back to YAML.
func Print(data any) error {
	return Write(os.Stdout, current, data)
}

// Write writes data to w in the given format.
func Write(w io.Writer, format Format, data any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML, FormatText:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
