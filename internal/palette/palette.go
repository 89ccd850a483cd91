package palette

// State is the palette's interaction state. The zero value is closed.
type State struct {
	Open     bool   `json:"open"`
	Query    string `json:"query"`
	Selected int    `json:"selected_index"`
}

// EventKind enumerates palette inputs.
type EventKind int

const (
	EventToggle EventKind = iota
	EventEscape
	EventInput
	EventUp
	EventDown
	EventEnter
	EventClick
)

// Event is one palette input. Query is used by EventInput, Index by EventClick.
type Event struct {
	Kind  EventKind
	Query string
	Index int
}

// Convenience constructors.
func Toggle() Event            { return Event{Kind: EventToggle} }
func Escape() Event            { return Event{Kind: EventEscape} }
func Input(query string) Event { return Event{Kind: EventInput, Query: query} }
func Up() Event                { return Event{Kind: EventUp} }
func Down() Event              { return Event{Kind: EventDown} }
func Enter() Event             { return Event{Kind: EventEnter} }
func Click(index int) Event    { return Event{Kind: EventClick, Index: index} }

// Step applies ev to s and returns the next state plus the command id to dispatch,
// or "" when nothing should run. It has no side effects.
func Step(catalog []Command, s State, ev Event) (State, string) {
	switch ev.Kind {
	case EventToggle:
		if s.Open {
			return State{}, ""
		}
		return State{Open: true}, ""
	case EventEscape:
		return State{}, ""
	}

	if !s.Open {
		return s, ""
	}

	filtered := Filter(catalog, s.Query)
	switch ev.Kind {
	case EventInput:
		s.Query = ev.Query
		s.Selected = clamp(s.Selected, len(Filter(catalog, s.Query)))
	case EventDown:
		s.Selected = clamp(s.Selected+1, len(filtered))
	case EventUp:
		s.Selected = clamp(s.Selected-1, len(filtered))
	case EventEnter:
		if sym, ok := ParseGo(s.Query); ok {
			return State{}, GoCommand(sym)
		}
		if len(filtered) == 0 {
			return s, ""
		}
		return State{}, filtered[clamp(s.Selected, len(filtered))].ID
	case EventClick:
		if ev.Index < 0 || ev.Index >= len(filtered) {
			return s, ""
		}
		return State{}, filtered[ev.Index].ID
	}
	return s, ""
}

// clamp keeps i within [0, max(0, n-1)].
func clamp(i, n int) int {
	if i > n-1 {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Executor runs a dispatched command id.
type Executor func(id string)

// Palette couples a State with a catalog and an Executor.
// It is not safe for concurrent use; drive it from a single input loop.
type Palette struct {
	catalog []Command
	state   State
	exec    Executor
}

// New creates a closed palette. A nil catalog uses DefaultCatalog.
func New(catalog []Command, exec Executor) *Palette {
	if catalog == nil {
		catalog = DefaultCatalog
	}
	return &Palette{catalog: catalog, exec: exec}
}

// Handle applies ev and runs the dispatched command, if any.
// It reports the dispatched id ("" when none).
func (p *Palette) Handle(ev Event) string {
	next, id := Step(p.catalog, p.state, ev)
	p.state = next
	if id != "" && p.exec != nil {
		p.exec(id)
	}
	return id
}

// State returns the current state.
func (p *Palette) State() State { return p.state }

// IsOpen reports whether the palette is open.
func (p *Palette) IsOpen() bool { return p.state.Open }

// Visible returns the filtered candidates for the current query.
func (p *Palette) Visible() []Command {
	if !p.state.Open {
		return nil
	}
	return Filter(p.catalog, p.state.Query)
}

// Catalog returns the palette's command list.
func (p *Palette) Catalog() []Command { return p.catalog }
