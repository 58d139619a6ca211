package cache

// A victimFinder decides which line of a level should be evicted on a miss.
type victimFinder interface {
	FindVictim(lvl *Level) int
}

// lruVictimFinder evicts the least recently used line. An invalid line is
// always preferred; among valid lines the one with the smallest last-access
// stamp wins, ties broken by array order.
type lruVictimFinder struct{}

func (lruVictimFinder) FindVictim(lvl *Level) int {
	for i, line := range lvl.Lines {
		if !line.Valid {
			return i
		}
	}

	victim := 0
	for i, line := range lvl.Lines {
		if line.LastAccess < lvl.Lines[victim].LastAccess {
			victim = i
		}
	}

	return victim
}
