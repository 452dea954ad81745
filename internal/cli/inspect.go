package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/spf13/cobra"

	"github.com/pbauriegel/dotforge/pkg/command"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file]",
		Short: "Report structural facts about a graph payload",
		Long: `Inspect loads a make_graph payload without rendering it and reports
node/edge counts, cycle presence (directed graphs) and root/leaf nodes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), args[0])
		},
	}
}

func runInspect(ctx context.Context, input string) error {
	logger := loggerFromContext(ctx)

	req, err := loadRequest(input)
	if err != nil {
		return err
	}
	p := &req.Parameters

	directed := p.Directed == nil || *p.Directed
	logger.Debugf("Building %s graph for inspection", kindLabel(directed))

	g, err := payloadGraph(p, directed)
	if err != nil {
		return err
	}

	printKeyValue("Graph", kindLabel(directed))
	printKeyValue("Nodes", fmt.Sprintf("%d declared", len(p.Nodes)))
	printKeyValue("Edges", fmt.Sprintf("%d declared", len(p.Edges)))

	if directed {
		reportCycles(g)
		if err := reportEndpoints(g); err != nil {
			return err
		}
	}
	return nil
}

func kindLabel(directed bool) string {
	if directed {
		return "directed"
	}
	return "undirected"
}

// payloadGraph loads the payload's nodes and edges into a graph structure.
// Duplicate declarations are tolerated (the DOT builder treats them as an
// append log) and edge endpoints missing from the node list are added
// implicitly, matching DOT's implicit-node semantics.
func payloadGraph(p *command.Parameters, directed bool) (graph.Graph[string, string], error) {
	var g graph.Graph[string, string]
	if directed {
		g = graph.New(graph.StringHash, graph.Directed())
	} else {
		g = graph.New(graph.StringHash)
	}

	for _, n := range p.Nodes {
		if err := g.AddVertex(n.ID); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("add node %q: %w", n.ID, err)
		}
	}
	for _, e := range p.Edges {
		for _, id := range []string{e.Source, e.Target} {
			if err := g.AddVertex(id); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
				return nil, fmt.Errorf("add node %q: %w", id, err)
			}
		}
		if err := g.AddEdge(e.Source, e.Target); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return nil, fmt.Errorf("add edge %q -> %q: %w", e.Source, e.Target, err)
		}
	}
	return g, nil
}

// reportCycles checks whether the directed graph admits a topological
// order; failure to sort means at least one cycle exists.
func reportCycles(g graph.Graph[string, string]) {
	if _, err := graph.TopologicalSort(g); err != nil {
		printWarning("Graph contains at least one cycle; layered layouts may look tangled")
		return
	}
	printSuccess("No cycles detected")
}

// reportEndpoints lists the roots (no incoming edges) and leaves (no
// outgoing edges) of a directed graph.
func reportEndpoints(g graph.Graph[string, string]) error {
	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return fmt.Errorf("adjacency map: %w", err)
	}
	predecessors, err := g.PredecessorMap()
	if err != nil {
		return fmt.Errorf("predecessor map: %w", err)
	}

	var roots, leaves []string
	for id, out := range adjacency {
		if len(out) == 0 {
			leaves = append(leaves, id)
		}
		if len(predecessors[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	sort.Strings(leaves)

	printKeyValue("Roots", joinOrNone(roots))
	printKeyValue("Leaves", joinOrNone(leaves))
	return nil
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	const maxShown = 8
	if len(ids) > maxShown {
		return fmt.Sprintf("%v … and %d more", ids[:maxShown], len(ids)-maxShown)
	}
	return fmt.Sprintf("%v", ids)
}
