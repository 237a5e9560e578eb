package recursion

// Graph is a directed call graph. Nodes and edges keep insertion order so
// every query is deterministic.
type Graph[K comparable] struct {
	nodes []K
	index map[K]int
	edges [][]int
	seen  map[[2]int]bool
}

func NewGraph[K comparable]() *Graph[K] {
	return &Graph[K]{index: make(map[K]int), seen: make(map[[2]int]bool)}
}

// AddNode registers k and returns its dense index.
func (g *Graph[K]) AddNode(k K) int {
	if i, ok := g.index[k]; ok {
		return i
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, k)
	g.index[k] = i
	g.edges = append(g.edges, nil)
	return i
}

// AddEdge records a call from -> to. Duplicate edges are ignored.
func (g *Graph[K]) AddEdge(from, to K) {
	a, b := g.AddNode(from), g.AddNode(to)
	key := [2]int{a, b}
	if g.seen[key] {
		return
	}
	g.seen[key] = true
	g.edges[a] = append(g.edges[a], b)
}

func (g *Graph[K]) Nodes() []K { return g.nodes }

func (g *Graph[K]) Has(k K) bool {
	_, ok := g.index[k]
	return ok
}

// Successors lists direct callees of k.
func (g *Graph[K]) Successors(k K) []K {
	i, ok := g.index[k]
	if !ok {
		return nil
	}
	out := make([]K, len(g.edges[i]))
	for j, e := range g.edges[i] {
		out[j] = g.nodes[e]
	}
	return out
}

// SCCs returns the strongly connected components in reverse topological
// order (callees before callers), using Tarjan's algorithm.
func (g *Graph[K]) SCCs() [][]K {
	n := len(g.nodes)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var (
		stack []int
		out   [][]K
		next  int
	)
	var connect func(v int)
	connect = func(v int) {
		index[v], low[v] = next, next
		next++
		stack = append(stack, v)
		onStack[v] = true
		for _, w := range g.edges[v] {
			if index[w] < 0 {
				connect(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], index[w])
			}
		}
		if low[v] != index[v] {
			return
		}
		var comp []K
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			comp = append(comp, g.nodes[w])
			if w == v {
				break
			}
		}
		out = append(out, comp)
	}
	for v := range n {
		if index[v] < 0 {
			connect(v)
		}
	}
	return out
}

// Recursive returns every node that can be active more than once on one
// call chain: members of a component with several nodes, or nodes that call
// themselves.
func (g *Graph[K]) Recursive() map[K]bool {
	out := make(map[K]bool)
	for _, comp := range g.SCCs() {
		if len(comp) > 1 {
			for _, k := range comp {
				out[k] = true
			}
			continue
		}
		k := comp[0]
		i := g.index[k]
		if g.seen[[2]int{i, i}] {
			out[k] = true
		}
	}
	return out
}

// Reachable returns every node reachable from k through at least one edge.
func (g *Graph[K]) Reachable(k K) map[K]bool {
	out := make(map[K]bool)
	start, ok := g.index[k]
	if !ok {
		return out
	}
	work := append([]int(nil), g.edges[start]...)
	visited := make([]bool, len(g.nodes))
	for len(work) > 0 {
		v := work[len(work)-1]
		work = work[:len(work)-1]
		if visited[v] {
			continue
		}
		visited[v] = true
		out[g.nodes[v]] = true
		work = append(work, g.edges[v]...)
	}
	return out
}

// PathTo returns a shortest call chain from -> ... -> to, or nil.
func (g *Graph[K]) PathTo(from, to K) []K {
	a, ok := g.index[from]
	if !ok {
		return nil
	}
	b, ok := g.index[to]
	if !ok {
		return nil
	}
	prev := make([]int, len(g.nodes))
	for i := range prev {
		prev[i] = -1
	}
	queue := []int{a}
	visited := make([]bool, len(g.nodes))
	found := false
	for len(queue) > 0 && !found {
		v := queue[0]
		queue = queue[1:]
		for _, w := range g.edges[v] {
			if visited[w] {
				continue
			}
			visited[w] = true
			prev[w] = v
			if w == b {
				found = true
				break
			}
			queue = append(queue, w)
		}
	}
	if !found {
		return nil
	}
	rev := []int{b}
	for v := prev[b]; v != a; v = prev[v] {
		rev = append(rev, v)
	}
	rev = append(rev, a)
	out := make([]K, len(rev))
	for i, v := range rev {
		out[len(rev)-1-i] = g.nodes[v]
	}
	return out
}
