package analyzer

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// node is one entry of the analyzer's component tree
type node struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Path   []string `json:"path"`
	Tech   *string  `json:"tech"`
	Techs  []string `json:"techs"`
	Childs []node   `json:"childs"`
}

// Component is one analyzed sub project with its technology tags
type Component struct {
	Name  string
	Path  string
	Techs []string
}

// Report is the flattened analyzer output
type Report struct {
	Components []Component
}

// Parse flattens the analyzer JSON tree, depth first
func Parse(b []byte) (Report, error) {
	var root node
	if err := json.Unmarshal(b, &root); err != nil {
		return Report{}, fmt.Errorf("analyzer: parse output: %w", err)
	}
	var rep Report
	var walk func(n node)
	walk = func(n node) {
		techs := slices.Clone(n.Techs)
		if n.Tech != nil && *n.Tech != "" {
			techs = append(techs, *n.Tech)
		}
		rep.Components = append(rep.Components, Component{
			Name:  n.Name,
			Path:  strings.Join(n.Path, ","),
			Techs: techs,
		})
		for _, c := range n.Childs {
			walk(c)
		}
	}
	walk(root)
	return rep, nil
}

// Normalize maps every tag through the alias table and drops ignored ones
func (r Report) Normalize(t *Table) Report {
	out := Report{Components: make([]Component, 0, len(r.Components))}
	for _, c := range r.Components {
		nc := Component{Name: c.Name, Path: c.Path}
		for _, tag := range c.Techs {
			if v, ok := t.Normalize(tag); ok {
				nc.Techs = append(nc.Techs, v)
			}
		}
		out.Components = append(out.Components, nc)
	}
	return out
}

// Groups returns each component's tags, components without any are dropped
func (r Report) Groups() [][]string {
	out := make([][]string, 0, len(r.Components))
	for _, c := range r.Components {
		if len(c.Techs) > 0 {
			out = append(out, c.Techs)
		}
	}
	return out
}
