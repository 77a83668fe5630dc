package flow

import "sort"

// Edge is one outgoing reference of a step.
type Edge struct {
	From     string
	OptionID string
	Label    string
	To       string
}

// Edges lists a step's outgoing references in declaration order: its own
// nextStep, then each option's nextStep and branch targets.
func Edges(key string, s Step) []Edge {
	var out []Edge
	if s.NextStep != "" {
		out = append(out, Edge{From: key, Label: "next", To: s.NextStep})
	}
	for _, o := range s.Options {
		if o.NextStep != "" {
			out = append(out, Edge{From: key, OptionID: o.ID, Label: o.Text, To: o.NextStep})
		}
		for _, b := range o.ConditionalNext {
			if b.Then != "" {
				out = append(out, Edge{From: key, OptionID: o.ID, Label: "if " + b.If, To: b.Then})
			}
		}
	}
	return out
}

// Reachable returns the set of steps reachable from the initial step.
// Cycles and shared targets are fine; each step is visited once.
func Reachable(s Structure) map[string]bool {
	seen := map[string]bool{}
	for _, id := range BreadthFirst(s) {
		seen[id] = true
	}
	return seen
}

// Unreachable lists steps no path from the initial step leads to, sorted.
func Unreachable(s Structure) []string {
	reach := Reachable(s)
	var out []string
	for k := range s.Steps {
		if !reach[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// BreadthFirst returns reachable step ids in visiting order from the
// initial step, for printing.
func BreadthFirst(s Structure) []string {
	if _, ok := s.Steps[s.InitialStep]; !ok {
		return nil
	}
	order := []string{s.InitialStep}
	seen := map[string]bool{s.InitialStep: true}
	for i := 0; i < len(order); i++ {
		for _, e := range Edges(order[i], s.Steps[order[i]]) {
			if _, ok := s.Steps[e.To]; ok && !seen[e.To] {
				seen[e.To] = true
				order = append(order, e.To)
			}
		}
	}
	return order
}

// ReferencesTo returns ids of steps with any edge pointing at target, sorted.
func ReferencesTo(s Structure, target string) []string {
	var out []string
	for _, k := range SortedStepIDs(s) {
		for _, e := range Edges(k, s.Steps[k]) {
			if e.To == target {
				out = append(out, k)
				break
			}
		}
	}
	return out
}
