package filter

import (
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
)

// Change reports which parts of the state a mutation moved
type Change struct {
	Predicates bool
	Kinds      bool
	Focus      bool
	Orphans    bool
	Labels     bool
	Layout     bool
}

// Any reports whether anything changed
func (c Change) Any() bool {
	return c.Predicates || c.Kinds || c.Focus || c.Orphans || c.Labels || c.Layout
}

// NeedsResolve reports whether the change affects visibility
func (c Change) NeedsResolve() bool {
	return c.Predicates || c.Kinds || c.Focus || c.Orphans
}

// Merge combines two changes
func (c Change) Merge(o Change) Change {
	return Change{
		Predicates: c.Predicates || o.Predicates,
		Kinds:      c.Kinds || o.Kinds,
		Focus:      c.Focus || o.Focus,
		Orphans:    c.Orphans || o.Orphans,
		Labels:     c.Labels || o.Labels,
		Layout:     c.Layout || o.Layout,
	}
}

// Controller is the single owner of a filter State. It is not safe for
// concurrent use; the owning session serializes access.
type Controller struct {
	state     State
	defaults  State
	available []graph.Predicate
}

// NewController creates a controller in the default state. available lists
// the predicates the "all" toggle switches on, normally the predicates present
// in the graph stats.
func NewController(available []graph.Predicate) *Controller {
	return NewControllerWithDefaults(available, Default())
}

// NewControllerWithDefaults creates a controller whose initial and reset
// state is defaults
func NewControllerWithDefaults(available []graph.Predicate, defaults State) *Controller {
	return &Controller{
		state:     defaults.Clone(),
		defaults:  defaults.Clone(),
		available: append([]graph.Predicate(nil), available...),
	}
}

// State returns a copy of the current state
func (c *Controller) State() State {
	return c.state.Clone()
}

// TogglePredicate flips predicate p
func (c *Controller) TogglePredicate(p graph.Predicate) Change {
	if c.state.Predicates[p] {
		delete(c.state.Predicates, p)
	} else {
		c.state.Predicates[p] = true
	}
	return Change{Predicates: true}
}

// SetPredicate turns predicate p on or off
func (c *Controller) SetPredicate(p graph.Predicate, on bool) Change {
	if c.state.Predicates[p] == on {
		return Change{}
	}
	return c.TogglePredicate(p)
}

// ToggleKind flips kind k
func (c *Controller) ToggleKind(k graph.NodeKind) Change {
	if c.state.Kinds[k] {
		delete(c.state.Kinds, k)
	} else {
		c.state.Kinds[k] = true
	}
	return Change{Kinds: true}
}

// SetKind turns kind k on or off
func (c *Controller) SetKind(k graph.NodeKind, on bool) Change {
	if c.state.Kinds[k] == on {
		return Change{}
	}
	return c.ToggleKind(k)
}

// SetAllPredicates enables every available predicate or clears the set
func (c *Controller) SetAllPredicates(on bool) Change {
	next := make(map[graph.Predicate]bool)
	if on {
		for _, p := range c.available {
			next[p] = true
		}
	}
	if sameSet(c.state.Predicates, next) {
		return Change{}
	}
	c.state.Predicates = next
	return Change{Predicates: true}
}

// SetAllKinds enables every kind or clears the set
func (c *Controller) SetAllKinds(on bool) Change {
	next := make(map[graph.NodeKind]bool)
	if on {
		for _, k := range graph.AllKinds {
			next[k] = true
		}
	}
	if sameSet(c.state.Kinds, next) {
		return Change{}
	}
	c.state.Kinds = next
	return Change{Kinds: true}
}

// SetFocusedFramework focuses a framework id; the empty string clears focus
func (c *Controller) SetFocusedFramework(id string) Change {
	if c.state.FocusedFramework == id {
		return Change{}
	}
	c.state.FocusedFramework = id
	return Change{Focus: true}
}

// SetShowOrphans toggles display of nodes without visible edges
func (c *Controller) SetShowOrphans(on bool) Change {
	if c.state.ShowOrphans == on {
		return Change{}
	}
	c.state.ShowOrphans = on
	return Change{Orphans: true}
}

// SetShowLabels toggles node labels
func (c *Controller) SetShowLabels(on bool) Change {
	if c.state.ShowLabels == on {
		return Change{}
	}
	c.state.ShowLabels = on
	return Change{Labels: true}
}

// SetLayout selects a layout by name
func (c *Controller) SetLayout(name string) (Change, error) {
	l, err := ParseLayout(name)
	if err != nil {
		return Change{}, err
	}
	if c.state.Layout == l {
		return Change{}, nil
	}
	c.state.Layout = l
	return Change{Layout: true}, nil
}

// Reset restores the default state
func (c *Controller) Reset() Change {
	def := c.defaults.Clone()
	change := Change{
		Predicates: !sameSet(c.state.Predicates, def.Predicates),
		Kinds:      !sameSet(c.state.Kinds, def.Kinds),
		Focus:      c.state.FocusedFramework != def.FocusedFramework,
		Orphans:    c.state.ShowOrphans != def.ShowOrphans,
		Labels:     c.state.ShowLabels != def.ShowLabels,
		Layout:     c.state.Layout != def.Layout,
	}
	c.state = def
	return change
}

func sameSet[K comparable](a, b map[K]bool) bool {
	count := 0
	for k, on := range a {
		if !on {
			continue
		}
		if !b[k] {
			return false
		}
		count++
	}
	for _, on := range b {
		if on {
			count--
		}
	}
	return count == 0
}
