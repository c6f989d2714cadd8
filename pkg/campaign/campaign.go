package campaign

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Mapping lists each scene's prerequisite scenes.
type Mapping map[string][]string

// Node is a scene placed in the campaign layout. Depth is the longest
// prerequisite chain below the scene; Breadth orders scenes sharing a depth.
type Node struct {
	SceneName string   `json:"sceneName"`
	Prereqs   []string `json:"prereqs"`
	Depth     int      `json:"depth"`
	Breadth   int      `json:"breadth"`
}

// NodeMapping is a laid out campaign keyed by scene name.
type NodeMapping map[string]Node

var ErrMissingPrereq = errors.New("missing prerequisite")

// CycleError reports two scenes whose prerequisites can never be satisfied.
type CycleError struct {
	A string
	B string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("Cycle detected: %s <-> %s", e.A, e.B)
}

// SceneNames returns the scenes of m in sorted order.
func (m Mapping) SceneNames() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every prerequisite is itself a scene.
func (m Mapping) Validate() error {
	for _, name := range m.SceneNames() {
		for _, prereq := range m[name] {
			if _, ok := m[prereq]; !ok {
				return fmt.Errorf("%w: scene %q requires unknown scene %q", ErrMissingPrereq, name, prereq)
			}
		}
	}
	return nil
}

// MakeNodeMapping lays out the campaign by working through a queue of scenes,
// resolving a scene once all of its prerequisites are resolved. A scene that
// comes back around without the queue having shrunk since its last visit is
// part of, or waits on, a cycle.
func MakeNodeMapping(m Mapping) (NodeMapping, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	nodes := make(NodeMapping, len(m))
	breadths := map[int]int{}
	stalls := map[string]int{}
	queue := m.SceneNames()

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if _, done := nodes[name]; done {
			continue
		}
		prereqs, ok := m[name]
		if !ok {
			continue
		}

		depth := 0
		unresolved := ""
		for _, prereq := range prereqs {
			node, ok := nodes[prereq]
			if !ok {
				unresolved = prereq
				break
			}
			depth = max(depth, node.Depth+1)
		}

		if unresolved != "" {
			queue = append(queue, name)
			if last, seen := stalls[name]; seen && last == len(queue) {
				return nil, &CycleError{A: name, B: unresolved}
			}
			stalls[name] = len(queue)
			continue
		}

		breadth, taken := breadths[depth]
		if taken {
			breadth++
		}
		breadths[depth] = breadth
		nodes[name] = Node{
			SceneName: name,
			Prereqs:   slices.Clone(prereqs),
			Depth:     depth,
			Breadth:   breadth,
		}
	}
	return nodes, nil
}

// Layers groups nodes by depth, each layer ordered by breadth.
func (nm NodeMapping) Layers() [][]Node {
	maxDepth := -1
	for _, n := range nm {
		maxDepth = max(maxDepth, n.Depth)
	}

	layers := make([][]Node, maxDepth+1)
	for _, n := range nm {
		layers[n.Depth] = append(layers[n.Depth], n)
	}
	for _, layer := range layers {
		sort.Slice(layer, func(i, j int) bool { return layer[i].Breadth < layer[j].Breadth })
	}
	return layers
}

// ListAvailableEncounters returns, in sorted order, the scenes not yet
// completed whose prerequisites are all completed.
func ListAvailableEncounters(completed []string, m Mapping) []string {
	done := make(map[string]bool, len(completed))
	for _, name := range completed {
		done[name] = true
	}

	available := []string{}
	for _, name := range m.SceneNames() {
		if done[name] {
			continue
		}
		ready := true
		for _, prereq := range m[name] {
			if !done[prereq] {
				ready = false
				break
			}
		}
		if ready {
			available = append(available, name)
		}
	}
	return available
}
