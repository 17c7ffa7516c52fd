package section

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/osteo/pkg/kernel"
)

// welder merges points closer than tol into shared nodes using a hash grid
// with cells of size tol, so a match is always in a neighbouring cell.
type welder struct {
	tol   float64
	cells map[[3]int64][]int
	nodes []v3.Vec
}

func newWelder(tol float64) *welder {
	return &welder{tol: tol, cells: make(map[[3]int64][]int)}
}

func (w *welder) cell(p v3.Vec) [3]int64 {
	return [3]int64{
		int64(math.Floor(p.X / w.tol)),
		int64(math.Floor(p.Y / w.tol)),
		int64(math.Floor(p.Z / w.tol)),
	}
}

func (w *welder) node(p v3.Vec) int {
	c := w.cell(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, id := range w.cells[[3]int64{c[0] + dx, c[1] + dy, c[2] + dz}] {
					if w.nodes[id].Sub(p).Length() <= w.tol {
						return id
					}
				}
			}
		}
	}
	id := len(w.nodes)
	w.nodes = append(w.nodes, p)
	w.cells[c] = append(w.cells[c], id)
	return id
}

// stitch joins segments sharing endpoints into polylines. Open chains are
// walked first from their loose ends, then the remaining closed loops.
func stitch(segs [][2]v3.Vec, tol float64) []kernel.Polyline {
	w := newWelder(tol)
	seen := make(map[[2]int]bool, len(segs))
	var edges [][2]int
	for _, s := range segs {
		a, b := w.node(s[0]), w.node(s[1])
		if a == b {
			continue
		}
		key := kernel.EdgeKey(a, b)
		if seen[key] {
			continue
		}
		seen[key] = true
		edges = append(edges, [2]int{a, b})
	}
	if len(edges) == 0 {
		return nil
	}

	adj := make([][]int, len(w.nodes))
	for e, ab := range edges {
		adj[ab[0]] = append(adj[ab[0]], e)
		adj[ab[1]] = append(adj[ab[1]], e)
	}
	used := make([]bool, len(edges))

	walk := func(start int) kernel.Polyline {
		ids := []int{start}
		cur := start
		for {
			next := -1
			for _, e := range adj[cur] {
				if !used[e] {
					next = e
					break
				}
			}
			if next < 0 {
				break
			}
			used[next] = true
			if edges[next][0] == cur {
				cur = edges[next][1]
			} else {
				cur = edges[next][0]
			}
			if cur == start {
				return kernel.Polyline{Points: points(w, ids), Closed: true}
			}
			ids = append(ids, cur)
		}
		return kernel.Polyline{Points: points(w, ids)}
	}

	var out []kernel.Polyline
	for node, es := range adj {
		if len(es)%2 == 0 {
			continue
		}
		for hasUnused(es, used) {
			out = append(out, walk(node))
		}
	}
	for node := range adj {
		for hasUnused(adj[node], used) {
			out = append(out, walk(node))
		}
	}
	return out
}

func hasUnused(es []int, used []bool) bool {
	for _, e := range es {
		if !used[e] {
			return true
		}
	}
	return false
}

func points(w *welder, ids []int) []v3.Vec {
	pts := make([]v3.Vec, len(ids))
	for i, id := range ids {
		pts[i] = w.nodes[id]
	}
	return pts
}
