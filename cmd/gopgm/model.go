package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/arn-lab/gopgm/builder"
	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/graph"
	"github.com/arn-lab/gopgm/registry"
)

// nodeSpec is one entry of a model description file (spec.md §6: "compile
// accepts... a JSON model description"). kind is one of "const",
// "stochastic", "logical"; dist/fn select the registry entry by name the
// way builder.Model's generic Stochastic/Logical escape hatches already
// take strings, so this loader is a thin JSON-to-builder-call translator
// rather than a new declaration mechanism.
type nodeSpec struct {
	Name    string    `json:"name"`
	Kind    string    `json:"kind"`
	Value   []float64 `json:"value,omitempty"`   // kind == "const"
	Dist    string    `json:"dist,omitempty"`    // kind == "stochastic"
	Fn      string    `json:"fn,omitempty"`      // kind == "logical"
	Parents []string  `json:"parents,omitempty"`
	Observe []float64 `json:"observe,omitempty"`
	Lower   string    `json:"lower,omitempty"`
	Upper   string    `json:"upper,omitempty"`
}

type modelSpec struct {
	Nodes []nodeSpec `json:"nodes"`
}

// loadModel parses path and builds a builder.Model from it, declaring
// nodes in file order (the file's own order is its topological order,
// matching spec.md §4.1's insertion-order tie-break).
func loadModel(path string) (*builder.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var spec modelSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}

	reg := registry.New()
	if err := registry.LoadBaseModule(reg); err != nil {
		return nil, fmt.Errorf("load base module: %w", err)
	}
	m := builder.New(reg)

	for i, n := range spec.Nodes {
		if n.Name == "" {
			return nil, fmt.Errorf("node %d: missing name", i)
		}
		switch n.Kind {
		case "const":
			if _, err := m.ConstNamed(n.Name, n.Value); err != nil {
				return nil, fmt.Errorf("node %q: %w", n.Name, err)
			}
		case "stochastic":
			parents, err := resolveParents(m, n.Parents)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", n.Name, err)
			}
			var observe core.ValArray
			if n.Observe != nil {
				observe = core.ValArray(n.Observe)
			}
			lower, err := resolveOptional(m, n.Lower)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", n.Name, err)
			}
			upper, err := resolveOptional(m, n.Upper)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", n.Name, err)
			}
			if _, err := m.Stochastic(n.Name, n.Dist, parents, observe, lower, upper); err != nil {
				return nil, fmt.Errorf("node %q: %w", n.Name, err)
			}
		case "logical":
			parents, err := resolveParents(m, n.Parents)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", n.Name, err)
			}
			if _, err := m.Logical(n.Name, n.Fn, parents); err != nil {
				return nil, fmt.Errorf("node %q: %w", n.Name, err)
			}
		default:
			return nil, fmt.Errorf("node %q: unknown kind %q", n.Name, n.Kind)
		}
	}
	return m, nil
}

func resolveParents(m *builder.Model, names []string) ([]graph.NodeID, error) {
	out := make([]graph.NodeID, len(names))
	for i, name := range names {
		id, err := m.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("parent %q: %w", name, err)
		}
		out[i] = id
	}
	return out, nil
}

func resolveOptional(m *builder.Model, name string) (*graph.NodeID, error) {
	if name == "" {
		return nil, nil
	}
	id, err := m.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("bound %q: %w", name, err)
	}
	return &id, nil
}
