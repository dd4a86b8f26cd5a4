package session

import (
	"github.com/vanderheijden86/aidglobe/pkg/model"
	"github.com/vanderheijden86/aidglobe/pkg/store"
)

// Action is one user or timer event. Reduce is the only place actions take
// effect.
type Action interface {
	isAction()
}

type (
	// Advance moves to the next chapter.
	Advance struct{}
	// Retreat moves to the previous chapter.
	Retreat struct{}
	// Jump enters chapter Index directly. Out-of-range indices are ignored.
	Jump struct{ Index int }
	// Play starts timeline playback.
	Play struct{}
	// Pause stops timeline playback.
	Pause struct{}
	// Tick is one playback timer firing, tagged with the generation it was
	// armed for.
	Tick struct{ Generation uint64 }
	// Scrub jumps the timeline to Year.
	Scrub struct{ Year int }
	// ToggleOrg flips one organization in the filter.
	ToggleOrg struct{ Org model.Organization }
	// SelectAllOrgs selects every organization.
	SelectAllOrgs struct{}
	// ClearOrgs deselects every organization.
	ClearOrgs struct{}
	// SetYearRange sets the filter bounds as given. Min > Max is accepted
	// and shows nothing.
	SetYearRange struct{ Min, Max int }
	// SetColorMode switches the point coloring.
	SetColorMode struct{ Mode model.ColorMode }
	// ToggleSection flips one tooltip section.
	ToggleSection struct{ Section model.Section }
	// Hover sets the pointer's UV. A nil UV clears the hover.
	Hover struct{ UV *model.UVPoint }
	// SetRadius changes the hover radius; it is clamped to the allowed range.
	SetRadius struct{ Radius float64 }
	// Reload swaps in a freshly loaded store.
	Reload struct{ Store *store.Store }
)

func (Advance) isAction()       {}
func (Retreat) isAction()       {}
func (Jump) isAction()          {}
func (Play) isAction()          {}
func (Pause) isAction()         {}
func (Tick) isAction()          {}
func (Scrub) isAction()         {}
func (ToggleOrg) isAction()     {}
func (SelectAllOrgs) isAction() {}
func (ClearOrgs) isAction()     {}
func (SetYearRange) isAction()  {}
func (SetColorMode) isAction()  {}
func (ToggleSection) isAction() {}
func (Hover) isAction()         {}
func (SetRadius) isAction()     {}
func (Reload) isAction()        {}
