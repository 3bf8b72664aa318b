package objtable

// Stats is a point-in-time snapshot of slot occupancy, used by the
// metrics and inspection tooling that sits outside this package. Computing
// it walks both vectors, so callers should not do so on a hot path.
type Stats struct {
	Side          Side
	Live          int
	Zombie        int
	Freelisted    int
	ClientEntries int
	ServerEntries int
	ZombieCount   int32
	FreelistDepth int
}

// Snapshot computes a Stats for the table as it stands right now.
func (t *Table) Snapshot() Stats {
	s := Stats{
		Side:          t.side,
		ClientEntries: len(t.clientEntries),
		ServerEntries: len(t.serverEntries),
		ZombieCount:   t.zombieCount,
	}
	tallyHalf(t.clientEntries, &s)
	tallyHalf(t.serverEntries, &s)
	s.FreelistDepth = freelistDepth(t)
	return s
}

func tallyHalf(entries []entry, s *Stats) {
	for i := range entries {
		e := &entries[i]
		switch {
		case e.isZombie():
			s.Zombie++
		case e.isFreelisted():
			s.Freelisted++
		case e.data != nil:
			s.Live++
		}
	}
}

// freelistDepth walks the freelist to count its length. O(n) in the
// freelist's own size; used only for diagnostics.
func freelistDepth(t *Table) int {
	depth := 0
	isServer := t.side == ServerSide
	entries := t.entries(isServer)
	for idx := t.freeList; idx != nullLink; {
		depth++
		idx = (*entries)[idx].next
	}
	return depth
}
