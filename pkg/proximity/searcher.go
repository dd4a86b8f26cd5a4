package proximity

import "github.com/vanderheijden86/aidglobe/pkg/model"

// DefaultIndexThreshold is the view size at which Searcher switches from a
// linear scan to the k-d tree.
const DefaultIndexThreshold = 2048

// Searcher answers hover queries for one view, picking brute force for
// small views and an Index for large ones.
type Searcher struct {
	view  *model.FilteredView
	index *Index
}

// NewSearcher prepares a searcher. threshold <= 0 uses DefaultIndexThreshold.
func NewSearcher(v *model.FilteredView, threshold int) *Searcher {
	if threshold <= 0 {
		threshold = DefaultIndexThreshold
	}
	s := &Searcher{view: v}
	if v.Len() >= threshold {
		s.index = NewIndex(v)
	}
	return s
}

// Indexed reports whether queries go through the k-d tree.
func (s *Searcher) Indexed() bool { return s.index != nil }

// View returns the view the searcher was built for.
func (s *Searcher) View() *model.FilteredView { return s.view }

// Query returns view indices strictly within radius of q.
func (s *Searcher) Query(q model.UVPoint, radius float64) []int {
	if s == nil {
		return nil
	}
	if s.index != nil {
		return s.index.Query(q, radius)
	}
	return Query(s.view, q, radius)
}
