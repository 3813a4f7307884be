package stage

import (
	"errors"
	"fmt"

	"github.com/dominikbraun/graph"
)

// validateAcyclic rejects graphs in which a stage transitively feeds
// itself. Nothing in the node structure prevents building such a graph,
// and the recursive lifecycle passes would never terminate on one.
func validateAcyclic(s Stage) error {
	g := graph.New(stageHash, graph.Directed(), graph.PreventCycles())

	seen := make(map[*Base]bool)
	stack := []Stage{s}
	_ = g.AddVertex(s)
	seen[s.base()] = true

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, in := range cur.base().inputs {
			if !seen[in.base()] {
				seen[in.base()] = true
				if err := g.AddVertex(in); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
					return err
				}
				stack = append(stack, in)
			}
			err := g.AddEdge(stageHash(in), stageHash(cur))
			if errors.Is(err, graph.ErrEdgeCreatesCycle) {
				return fmt.Errorf("stage graph contains a cycle through %q", in.Name())
			}
			if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return err
			}
		}
	}
	return nil
}

// stageHash keys vertices by node identity, not driver name; a pipeline may
// hold many stages of the same type.
func stageHash(s Stage) *Base {
	return s.base()
}
