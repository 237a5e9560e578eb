package workshop

// EventKind selects when a rule runs.
type EventKind uint8

const (
	EventOngoingGlobal EventKind = iota
	EventOngoingEachPlayer
	EventSubroutine
)

func (e EventKind) String() string {
	switch e {
	case EventOngoingEachPlayer:
		return "Ongoing - Each Player"
	case EventSubroutine:
		return "Subroutine"
	default:
		return "Ongoing - Global"
	}
}

// Rule is one top-level unit of the program.
type Rule struct {
	Name       string    `msgpack:"name"`
	Event      EventKind `msgpack:"event"`
	Subroutine string    `msgpack:"subroutine,omitempty"`
	Conditions []*Value  `msgpack:"conditions,omitempty"`
	Actions    []*Action `msgpack:"actions"`
}

// VarInfo records where a named variable lives. Element is -1 for a plain
// slot, otherwise the index inside the overflow array stored at Slot.
type VarInfo struct {
	Name    string `msgpack:"name"`
	Space   Space  `msgpack:"space"`
	Slot    int    `msgpack:"slot"`
	Element int    `msgpack:"element"`
}

// Program is one finished compilation.
type Program struct {
	BuildID     string    `msgpack:"build_id"`
	GlobalSlots int       `msgpack:"global_slots"`
	PlayerSlots int       `msgpack:"player_slots"`
	Vars        []VarInfo `msgpack:"vars"`
	Subroutines []string  `msgpack:"subroutines"`
	Rules       []*Rule   `msgpack:"rules"`
}

// Subroutine returns the rule implementing the named subroutine.
func (p *Program) Subroutine(name string) *Rule {
	for _, r := range p.Rules {
		if r.Event == EventSubroutine && r.Subroutine == name {
			return r
		}
	}
	return nil
}

// Rule returns the first rule with the given name.
func (p *Program) Rule(name string) *Rule {
	for _, r := range p.Rules {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// LookupVar finds a variable by its allocated name.
func (p *Program) LookupVar(name string) (VarInfo, bool) {
	for _, v := range p.Vars {
		if v.Name == name {
			return v, true
		}
	}
	return VarInfo{}, false
}

// ActionCount sums actions over all rules.
func (p *Program) ActionCount() int {
	n := 0
	for _, r := range p.Rules {
		n += len(r.Actions)
	}
	return n
}
