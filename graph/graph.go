// Copyright 2026 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package graph holds the backend-agnostic build graph: file and directory
// nodes, and the compile, link, alias and command edges that produce them.
//
// Nodes and edges live in arenas owned by a Graph and refer to each other by
// index, so a node's producing edge is a lookup rather than a pointer.
package graph

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/google/buildgen/safestr"
)

var (
	ErrDuplicateProducer = eris.New("output already has a producing edge")
	ErrCycle             = eris.New("dependency cycle")
	ErrUnknownNode       = eris.New("unknown node")
)

// A NodeID indexes a node within its Graph.
type NodeID int

// An EdgeID indexes an edge within its Graph.
type EdgeID int

// NoEdge is the producer of source nodes.
const NoEdge EdgeID = -1

type NodeKind int

const (
	File NodeKind = iota
	Directory
)

func (k NodeKind) String() string {
	switch k {
	case File:
		return "file"
	case Directory:
		return "directory"
	default:
		panic(fmt.Sprintf("unknown node kind: %d", int(k)))
	}
}

// A Node is a file or directory in the build graph.
type Node struct {
	ID       NodeID
	Path     safestr.Path
	Kind     NodeKind
	Producer EdgeID
}

// IsSource returns true if no edge produces n.
func (n *Node) IsSource() bool {
	return n.Producer == NoEdge
}

// An EnvVar is an environment assignment that precedes a command.
type EnvVar struct {
	Name  string
	Value safestr.String
}

// An Install copies a built or source node into an install root.
type Install struct {
	Source NodeID
	Dest   safestr.Path
}

// A Test is a command run by the test target.
type Test struct {
	Name    string
	Command []safestr.String
	Env     []EnvVar
}

// A Graph is the complete build graph handed to a backend.  It is populated
// once by the front end and then only read.
type Graph struct {
	nodes  []*Node
	edges  []Edge
	byPath map[safestr.Path]NodeID

	// Defaults are built by the default (all) target.  When empty, every
	// output of a link edge is a default.
	Defaults []NodeID

	Installs []Install
	Tests    []Test
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		byPath: make(map[safestr.Path]NodeID),
	}
}

// AddNode returns the node for p, creating it if needed.
func (g *Graph) AddNode(p safestr.Path, kind NodeKind) NodeID {
	if id, ok := g.byPath[p]; ok {
		return id
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, &Node{
		ID:       id,
		Path:     p,
		Kind:     kind,
		Producer: NoEdge,
	})
	g.byPath[p] = id
	return id
}

// AddFile is shorthand for AddNode(p, File).
func (g *Graph) AddFile(p safestr.Path) NodeID {
	return g.AddNode(p, File)
}

// Node returns the node with the given ID.
func (g *Graph) Node(id NodeID) *Node {
	return g.nodes[id]
}

// Nodes returns all nodes in creation order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// FindNode returns the node for p, if any.
func (g *Graph) FindNode(p safestr.Path) (NodeID, bool) {
	id, ok := g.byPath[p]
	return id, ok
}

// Paths returns the paths of the given nodes.
func (g *Graph) Paths(ids []NodeID) []safestr.Path {
	result := make([]safestr.Path, len(ids))
	for i, id := range ids {
		result[i] = g.nodes[id].Path
	}
	return result
}

// AddEdge adds e to the graph and makes it the producer of its outputs.  It
// fails without modifying the graph if any output already has a producer or
// any referenced node is unknown.
func (g *Graph) AddEdge(e Edge) (EdgeID, error) {
	base := e.base()
	for _, id := range g.referenced(e) {
		if int(id) < 0 || int(id) >= len(g.nodes) {
			return NoEdge, eris.Wrapf(ErrUnknownNode, "node %d", id)
		}
	}

	seen := make(map[NodeID]bool, len(base.Outputs))
	for _, out := range base.Outputs {
		node := g.nodes[out]
		if !node.IsSource() || seen[out] {
			return NoEdge, eris.Wrapf(ErrDuplicateProducer, "%s", node.Path)
		}
		seen[out] = true
	}
	if len(base.Outputs) == 0 {
		return NoEdge, eris.Errorf("%s edge has no outputs", e.Kind())
	}

	id := EdgeID(len(g.edges))
	base.ID = id
	for _, out := range base.Outputs {
		g.nodes[out].Producer = id
	}
	g.edges = append(g.edges, e)
	return id, nil
}

// Edge returns the edge with the given ID.
func (g *Graph) Edge(id EdgeID) Edge {
	return g.edges[id]
}

// Edges returns every edge in the order it was added.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Producer returns the edge producing node id, or nil for sources.
func (g *Graph) Producer(id NodeID) Edge {
	p := g.nodes[id].Producer
	if p == NoEdge {
		return nil
	}
	return g.edges[p]
}

// Inputs returns every node e depends on: its kind-specific inputs followed by
// its extra dependencies.
func (g *Graph) Inputs(e Edge) []NodeID {
	return append(e.inputs(), e.base().ExtraDeps...)
}

func (g *Graph) referenced(e Edge) []NodeID {
	return append(g.Inputs(e), e.base().Outputs...)
}

// DefaultTargets returns g.Defaults, or the outputs of every link edge when no
// defaults were given.
func (g *Graph) DefaultTargets() []NodeID {
	if len(g.Defaults) > 0 {
		return g.Defaults
	}
	var result []NodeID
	for _, e := range g.edges {
		if l, ok := e.(*Link); ok {
			result = append(result, l.Outputs...)
		}
	}
	return result
}

// CheckAcyclic returns ErrCycle if any edge transitively depends on its own
// outputs.
func (g *Graph) CheckAcyclic() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(g.edges))

	var visit func(id EdgeID) error
	visit = func(id EdgeID) error {
		switch state[id] {
		case visiting:
			return eris.Wrapf(ErrCycle, "through %s", g.nodes[g.edges[id].base().Outputs[0]].Path)
		case done:
			return nil
		}
		state[id] = visiting
		for _, in := range g.Inputs(g.edges[id]) {
			if p := g.nodes[in].Producer; p != NoEdge {
				if err := visit(p); err != nil {
					return err
				}
			}
		}
		state[id] = done
		return nil
	}

	for id := range g.edges {
		if err := visit(EdgeID(id)); err != nil {
			return err
		}
	}
	return nil
}
