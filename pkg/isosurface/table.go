package isosurface

// Cell corner offsets, edges and faces. Faces list their corners
// counter-clockwise as seen from outside the cell.
var (
	cornerOffsets = [8][3]int{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}

	cellEdges = [12][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}

	cellFaces = [6][4]int{
		{0, 3, 2, 1}, // z = 0
		{4, 5, 6, 7}, // z = 1
		{0, 1, 5, 4}, // y = 0
		{3, 7, 6, 2}, // y = 1
		{0, 4, 7, 3}, // x = 0
		{1, 2, 6, 5}, // x = 1
	}
)

// loop is one closed contour through a cell, as a cycle of crossed edges.
// apex is the loop position triangles fan out from, or -1 when every
// candidate apex would put a chord on a cell face; such loops are fanned
// around an added centroid vertex instead.
type loop struct {
	edges []int
	apex  int
}

var (
	edgeIndex [8][8]int
	edgeFaces [12][]int
	cases     [256][]loop
)

func init() {
	for a := range edgeIndex {
		for b := range edgeIndex[a] {
			edgeIndex[a][b] = -1
		}
	}
	for e, c := range cellEdges {
		edgeIndex[c[0]][c[1]] = e
		edgeIndex[c[1]][c[0]] = e
	}
	for f, face := range cellFaces {
		for k := 0; k < 4; k++ {
			e := edgeIndex[face[k]][face[(k+1)%4]]
			edgeFaces[e] = append(edgeFaces[e], f)
		}
	}
	for mask := range cases {
		cases[mask] = buildCase(uint8(mask))
	}
}

// buildCase derives the contour loops for one inside-corner pattern.
//
// Each face is walked in its outward winding. A crossing from an outside
// to an inside corner is an entry, the reverse an exit; entries and exits
// alternate around the face. Pairing every entry with the exit that
// follows it keeps inside corners of an ambiguous face apart, and since
// both cells sharing a face make the same pairing the contour is
// consistent across cells. Every crossed edge is an entry on one of its
// faces and an exit on the other, so following entry→exit links closes
// into loops.
func buildCase(mask uint8) []loop {
	inside := func(c int) bool { return mask&(1<<c) != 0 }

	var next [12]int
	for i := range next {
		next[i] = -1
	}
	for _, face := range cellFaces {
		var xs []int
		var entry []bool
		for k := 0; k < 4; k++ {
			a, b := face[k], face[(k+1)%4]
			if inside(a) == inside(b) {
				continue
			}
			xs = append(xs, edgeIndex[a][b])
			entry = append(entry, inside(b))
		}
		if len(xs) == 0 {
			continue
		}
		start := 0
		if !entry[0] {
			start = 1
		}
		for p := 0; p < len(xs); p += 2 {
			next[xs[(start+p)%len(xs)]] = xs[(start+p+1)%len(xs)]
		}
	}

	var loops []loop
	var seen [12]bool
	for e := 0; e < 12; e++ {
		if next[e] < 0 || seen[e] {
			continue
		}
		var edges []int
		for x := e; !seen[x]; x = next[x] {
			seen[x] = true
			edges = append(edges, x)
		}
		loops = append(loops, loop{edges: edges, apex: fanApex(edges)})
	}
	return loops
}

func shareFace(a, b int) bool {
	for _, fa := range edgeFaces[a] {
		for _, fb := range edgeFaces[b] {
			if fa == fb {
				return true
			}
		}
	}
	return false
}

// fanApex picks a loop position whose chords to the non-adjacent loop
// vertices all cross the cell interior. A chord lying on a face could be
// repeated by the neighbouring cell and break edge manifoldness.
func fanApex(edges []int) int {
	n := len(edges)
	if n == 3 {
		return 0
	}
	for k := 0; k < n; k++ {
		ok := true
		for j := 0; j < n && ok; j++ {
			if j == k || j == (k+1)%n || j == (k+n-1)%n {
				continue
			}
			if shareFace(edges[k], edges[j]) {
				ok = false
			}
		}
		if ok {
			return k
		}
	}
	return -1
}
