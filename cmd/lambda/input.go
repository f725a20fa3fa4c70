package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jward/lambda"
)

// readEvent decodes a YAML or JSON event file.
func readEvent(path string) (lambda.Event, error) {
	var ev lambda.Event
	if err := decodeFile(path, &ev); err != nil {
		return ev, err
	}
	if ev.Type == "" {
		return ev, fmt.Errorf("event %s: type is required", path)
	}
	return ev, nil
}

// readNodes decodes a YAML or JSON list of nodes.
func readNodes(path string) ([]*lambda.Node, error) {
	var nodes []*lambda.Node
	if err := decodeFile(path, &nodes); err != nil {
		return nil, err
	}
	for i, n := range nodes {
		if n == nil || n.Type == "" {
			return nil, fmt.Errorf("nodes %s: entry %d has no type", path, i)
		}
	}
	return nodes, nil
}

// decodeFile reads path into v. JSON input decodes as YAML.
func decodeFile(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
