package models

import (
	"fmt"
	"strings"
)

// Roster is the ordered set of player names currently connected to a server.
type Roster []string

// NewRoster trims names, drops empty ones and removes duplicates, keeping the
// first occurrence.
func NewRoster(names ...string) Roster {
	seen := make(map[string]struct{}, len(names))
	out := make(Roster, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func (r Roster) Contains(name string) bool {
	for _, n := range r {
		if n == name {
			return true
		}
	}
	return false
}

// Change is the result of diffing two rosters.
type Change struct {
	Disconnected Roster
	Joined       Roster
	Remaining    Roster
}

// Empty reports whether nobody joined or left. Remaining never counts.
func (c Change) Empty() bool {
	return len(c.Disconnected) == 0 && len(c.Joined) == 0
}

// Diff computes before−after, after−before and before∩after. Disconnected keeps
// the order of before; Joined and Remaining keep the order of after.
func Diff(before, after Roster) Change {
	c := Change{
		Disconnected: Roster{},
		Joined:       Roster{},
		Remaining:    Roster{},
	}
	for _, p := range before {
		if !after.Contains(p) {
			c.Disconnected = append(c.Disconnected, p)
		}
	}
	for _, p := range after {
		if before.Contains(p) {
			c.Remaining = append(c.Remaining, p)
		} else {
			c.Joined = append(c.Joined, p)
		}
	}
	return c
}

// Message renders the change as chat text. Returns "" for an empty change.
func (c Change) Message() string {
	if c.Empty() {
		return ""
	}

	clauses := make([]string, 0, 3)
	if len(c.Joined) > 0 {
		clauses = append(clauses, fmt.Sprintf("%s %s joined.", OxfordJoin(c.Joined), plural(len(c.Joined), "has", "have")))
	}
	if len(c.Disconnected) > 0 {
		clauses = append(clauses, fmt.Sprintf("%s %s disconnected.", OxfordJoin(c.Disconnected), plural(len(c.Disconnected), "has", "have")))
	}
	switch {
	case len(c.Remaining) > 0:
		clauses = append(clauses, fmt.Sprintf("%s %s online.", OxfordJoin(c.Remaining), plural(len(c.Remaining), "is", "are")))
	case len(c.Disconnected) > 0 && len(c.Joined) == 0:
		clauses = append(clauses, "Nobody is online.")
	}
	return strings.Join(clauses, " ")
}

// ChangeMessage returns the notification text and false when nothing changed.
func ChangeMessage(before, after Roster) (string, bool) {
	c := Diff(before, after)
	if c.Empty() {
		return "", false
	}
	return c.Message(), true
}

// OxfordJoin joins names with commas and a final "and", using the serial comma
// for three or more names.
func OxfordJoin(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
