package objtable

// entryState packs three mutually-exclusive status bits into the top of a
// 32-bit word, leaving the low 29 bits for caller flags when the slot is
// Live. A slot with none of the three bits set and non-nil data is Live;
// the Deleted+Freelisted overlap is the only place two bits are set at once
// (an acknowledged zombie waiting to be reused).
type entryState uint32

const (
	stateZombie     entryState = 1 << 29
	stateFreelisted entryState = 1 << 30
	stateDeleted    entryState = 1 << 31

	userFlagsMask entryState = 1<<29 - 1
)

// nullLink is the freelist/zombie-FIFO sentinel. Index 0 is a valid
// server-side id (SERVER_ID_START), so the sentinel can't be 0.
const nullLink uint32 = ^uint32(0)

// entry is one slot of a table's dense vector. data holds the Live payload
// or, when zombie is set, the interface metadata handed to zombify.
type entry struct {
	state entryState
	next  uint32
	data  any
}

func (e *entry) isZombie() bool     { return e.state&stateZombie != 0 }
func (e *entry) isFreelisted() bool { return e.state&stateFreelisted != 0 }
func (e *entry) isDeleted() bool    { return e.state&stateDeleted != 0 }

// isFree reports whether a slot holds no Live payload: Zombie, Freelisted,
// or a never-materialized slot (no status bits, nil data). Used by Lookup,
// LookupFlags, and ForEach, which treat Zombie and Freelisted the same way:
// neither has anything dispatchable at this id.
func (e *entry) isFree() bool { return e.isZombie() || e.isFreelisted() || e.data == nil }

// isAvailableForReserve mirrors reserve_new's stricter notion of free: only
// a Freelisted slot (including the Deleted+Freelisted overlap) may be
// reserved. A zero-state slot that already exists got that way by being
// reserved, and not yet materialized, on a prior call, so it is occupied,
// not free. A Zombie slot is occupied too (OQ-1): the interface metadata it
// carries may still be needed to parse a late message.
func (e *entry) isAvailableForReserve() bool { return e.isFreelisted() }

// userFlags returns the low 29 bits of state, the caller-supplied flags.
func (e *entry) userFlags() uint32 { return uint32(e.state & userFlagsMask) }

// clear resets a slot to its zero state: no status bits, sentinel link, nil
// data. Used both when growing a vector and immediately before a slot is
// (re)installed as Live, matching the reference's map_entry_clear.
func (e *entry) clear() {
	e.state = 0
	e.next = nullLink
	e.data = nil
}

// setLive installs a Live entry, truncating flags to 29 bits (P3). Always
// clears prior state first, so a freelist-popped slot's stale link and
// status bits never leak through.
func (e *entry) setLive(flags uint32, data any) {
	e.clear()
	e.state = entryState(flags) & userFlagsMask
	e.data = data
}
