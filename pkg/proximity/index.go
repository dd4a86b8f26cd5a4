package proximity

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/vanderheijden86/aidglobe/pkg/metrics"
	"github.com/vanderheijden86/aidglobe/pkg/model"
)

// uvNode is one view record in the tree.
type uvNode struct {
	u, v float64
	idx  int
}

func (p uvNode) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(uvNode)
	if d == 0 {
		return p.u - q.u
	}
	return p.v - q.v
}

func (p uvNode) Dims() int { return 2 }

// Distance is squared Euclidean distance, as kdtree keepers expect.
func (p uvNode) Distance(c kdtree.Comparable) float64 {
	q := c.(uvNode)
	du := p.u - q.u
	dv := p.v - q.v
	return du*du + dv*dv
}

type uvNodes []uvNode

func (n uvNodes) Index(i int) kdtree.Comparable { return n[i] }
func (n uvNodes) Len() int                      { return len(n) }
func (n uvNodes) Slice(start, end int) kdtree.Interface {
	return n[start:end]
}
func (n uvNodes) Pivot(d kdtree.Dim) int {
	return uvPlane{uvNodes: n, dim: d}.pivot()
}

// uvPlane sorts nodes along one dimension for median selection.
type uvPlane struct {
	uvNodes
	dim kdtree.Dim
}

func (p uvPlane) Less(i, j int) bool {
	if p.dim == 0 {
		return p.uvNodes[i].u < p.uvNodes[j].u
	}
	return p.uvNodes[i].v < p.uvNodes[j].v
}

func (p uvPlane) Swap(i, j int) {
	p.uvNodes[i], p.uvNodes[j] = p.uvNodes[j], p.uvNodes[i]
}

func (p uvPlane) Slice(start, end int) kdtree.SortSlicer {
	p.uvNodes = p.uvNodes[start:end]
	return p
}

func (p uvPlane) pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

// Index is a k-d tree over a view's UVs. It is read-only after NewIndex and
// must be rebuilt whenever the view is replaced.
type Index struct {
	tree *kdtree.Tree
	n    int
}

// NewIndex builds an index for v.
func NewIndex(v *model.FilteredView) *Index {
	defer metrics.Timer(metrics.IndexBuild)()

	n := v.Len()
	if n == 0 {
		return &Index{}
	}
	nodes := make(uvNodes, n)
	for i := range nodes {
		nodes[i] = uvNode{u: v.UVs[2*i], v: v.UVs[2*i+1], idx: i}
	}
	return &Index{tree: kdtree.New(nodes, false), n: n}
}

// Len returns the number of indexed points.
func (x *Index) Len() int { return x.n }

// Query returns the same indices as the package-level Query over the view
// the index was built from.
func (x *Index) Query(q model.UVPoint, radius float64) []int {
	defer metrics.Timer(metrics.ProximityQuery)()
	metrics.IndexQueries.Inc()

	if x.tree == nil || !validRadius(radius) {
		return nil
	}
	r2 := radius * radius
	keep := kdtree.NewDistKeeper(r2)
	x.tree.NearestSet(keep, uvNode{u: q.U, v: q.V, idx: -1})

	var out []int
	for _, cd := range keep.Heap {
		// The keeper seeds its heap with a sentinel that has no point.
		node, ok := cd.Comparable.(uvNode)
		if !ok {
			continue
		}
		if within(node.u, node.v, q, r2) {
			out = append(out, node.idx)
		}
	}
	sort.Ints(out)
	return out
}
