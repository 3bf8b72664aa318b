// Package objtable implements the Wayland-style object identity table: a
// dense, side-aware mapping from non-zero 32-bit protocol object ids to
// in-process payloads, with zombie tombstoning so that a late-arriving
// message naming a just-destroyed object can be recognized and discarded
// instead of misrouted.
//
// A Table is not safe for concurrent use; callers must serialize access
// under their own connection lock, exactly as the enclosing protocol
// library is expected to. A ForEach callback must not mutate the table;
// doing so is undefined behavior.
package objtable

import objerr "github.com/wl-go/wlgo/internal/objtable/errors"

// Side identifies which half of the id space a table's own InsertNew grows.
type Side int

const (
	// ClientSide tables grow the client half (ids 1..ServerIDStart-1) on
	// InsertNew.
	ClientSide Side = iota
	// ServerSide tables grow the server half (ids ServerIDStart..) on
	// InsertNew and are the only side that runs a zombie FIFO.
	ServerSide
)

func (s Side) String() string {
	if s == ServerSide {
		return "server"
	}
	return "client"
}

const (
	// ServerIDStart is the first server-allocated id.
	ServerIDStart uint32 = 0xFF000000
	// MaxObjects bounds how far either half's vector may grow.
	MaxObjects uint32 = 0xF0000000
	// defaultMaxZombieListCount is the zombie FIFO cap absent an
	// environment override.
	defaultMaxZombieListCount int32 = 64
)

// IterResult is returned by a ForEach callback to control traversal.
type IterResult int

const (
	// Continue tells ForEach to keep visiting entries.
	Continue IterResult = iota
	// Stop halts ForEach immediately.
	Stop
)

// Table is one peer's object id table: a pair of grow-only dense vectors
// (client half, server half) plus a LIFO freelist and, for ServerSide
// tables, a bounded zombie FIFO.
type Table struct {
	side Side

	clientEntries []entry
	serverEntries []entry

	freeList uint32

	zombieHead  uint32
	zombieTail  uint32
	zombieCount int32 // -1 means the FIFO is permanently disabled
}

// New constructs an empty table for the given side.
func New(side Side) *Table {
	return &Table{
		side:        side,
		freeList:    nullLink,
		zombieHead:  nullLink,
		zombieTail:  nullLink,
		zombieCount: 0,
	}
}

// Release drops the table's backing storage. Payloads and interface
// metadata are caller-owned and are never touched here.
func (t *Table) Release() {
	t.clientEntries = nil
	t.serverEntries = nil
}

// Side reports which half this table grows on InsertNew.
func (t *Table) Side() Side { return t.side }

// halfAndIndex decodes a protocol id into which half it belongs to and its
// index within that half's vector.
func halfAndIndex(id uint32) (isServer bool, idx uint32) {
	if id < ServerIDStart {
		return false, id
	}
	return true, id - ServerIDStart
}

func (t *Table) entries(isServer bool) *[]entry {
	if isServer {
		return &t.serverEntries
	}
	return &t.clientEntries
}

// InsertNew allocates a fresh id in this table's own half: the freelist
// head if non-empty, else a newly appended slot. Returns 0 on failure
// (NoSpace); 0 is otherwise never a successful return for ServerSide
// tables since ServerIDStart != 0, and is a valid id for ClientSide tables
// on their very first allocation.
func (t *Table) InsertNew(flags uint32, payload any) uint32 {
	isServer := t.side == ServerSide
	base := uint32(0)
	if isServer {
		base = ServerIDStart
	}
	entries := t.entries(isServer)

	if t.freeList != nullLink {
		idx := t.freeList
		e := &(*entries)[idx]
		t.freeList = e.next
		e.setLive(flags, payload)
		return idx + base
	}

	idx := uint32(len(*entries))
	*entries = append(*entries, entry{next: nullLink})
	if idx > MaxObjects {
		// The slot stays appended with a nil payload so a later
		// ForEach never dereferences garbage.
		return 0
	}
	e := &(*entries)[idx]
	e.setLive(flags, payload)
	return idx + base
}

// InsertAt materializes a peer-chosen id at a specific index, clobbering
// whatever was there. Growth must be contiguous: id may name an index one
// past the current length (the vector grows by one) or any existing index
// (the slot is overwritten), but nothing further out.
//
// id == 0 is only meaningful for ServerSide tables (the reserved
// client-half null slot); callers on a ClientSide table pass only ids of the
// opposite (server) half, never an id of their own client half.
func (t *Table) InsertAt(flags uint32, id uint32, payload any) error {
	isServer, idx := halfAndIndex(id)
	if idx > MaxObjects {
		return objerr.NewNoSpaceError(id)
	}

	entries := t.entries(isServer)
	count := uint32(len(*entries))
	if count < idx {
		return objerr.NewInvalidError(id, "insert_at: non-contiguous growth")
	}
	if count == idx {
		*entries = append(*entries, entry{next: nullLink})
	}

	e := &(*entries)[idx]
	e.setLive(flags, payload)
	return nil
}

// ReserveNew pre-reserves an id the peer allocated in the opposite half.
// It is an error to reserve an id in this table's own half (InsertNew owns
// that half) or to reserve a slot that is not free. Zombie slots count as
// not-free here.
func (t *Table) ReserveNew(id uint32) error {
	isServer, idx := halfAndIndex(id)
	if isServer && t.side == ServerSide {
		return objerr.NewInvalidError(id, "reserve_new: id belongs to this table's own half")
	}
	if !isServer && t.side == ClientSide {
		return objerr.NewInvalidError(id, "reserve_new: id belongs to this table's own half")
	}
	if idx > MaxObjects {
		return objerr.NewNoSpaceError(id)
	}

	entries := t.entries(isServer)
	count := uint32(len(*entries))
	if count < idx {
		return objerr.NewInvalidError(id, "reserve_new: non-contiguous growth")
	}
	if count == idx {
		*entries = append(*entries, entry{next: nullLink})
		return nil
	}

	e := &(*entries)[idx]
	if !e.isAvailableForReserve() {
		return objerr.NewInvalidError(id, "reserve_new: slot is occupied")
	}
	return nil
}

// Zombify destroys a slot locally: unless it was already Deleted (in which
// case it moves straight to the freelist, short-circuiting the zombie
// state entirely), the slot becomes Zombie and, on ServerSide tables with
// the FIFO enabled, is enqueued. Enqueueing beyond the cap reaps the oldest
// zombie onto the freelist; evicted reports whether that happened on this
// call, so callers don't have to infer it from a before/after count
// comparison (which is wrong whenever this call didn't engage the FIFO at
// all — every ClientSide table, and ServerSide zombifying a client-half id).
func (t *Table) Zombify(id uint32, iface any) (evicted bool, err error) {
	isServer, idx := halfAndIndex(id)
	entries := t.entries(isServer)
	count := uint32(len(*entries))
	if idx >= count {
		return false, objerr.NewOutOfRangeError(id)
	}

	e := &(*entries)[idx]
	if e.isDeleted() {
		e.next = t.freeList
		e.state |= stateFreelisted
		t.freeList = idx
		return false, nil
	}

	e.state = stateZombie
	e.next = nullLink
	e.data = iface

	useZombieList := isServer && t.side == ServerSide && t.zombieCount >= 0
	if !useZombieList {
		return false, nil
	}

	limit := resolvedZombieCap()
	if t.zombieTail != nullLink {
		(*entries)[t.zombieTail].next = idx
	} else {
		t.zombieHead = idx
	}
	t.zombieTail = idx
	t.zombieCount++

	if t.zombieCount > limit {
		evictIdx := t.zombieHead
		evictEntry := &(*entries)[evictIdx]
		t.zombieHead = evictEntry.next
		if t.zombieHead == nullLink {
			t.zombieTail = nullLink
		}
		t.zombieCount--

		evictEntry.next = t.freeList
		evictEntry.state = stateFreelisted
		t.freeList = evictIdx
		return true, nil
	}
	return false, nil
}

// MarkDeleted reconciles a delete_id acknowledgement. It is a no-op
// success when id falls in the half opposite this table's own growth half
// (delete_id concerns ids this side itself tracks in its own half; a
// mismatch means there is nothing local to reconcile); that no-op does not
// touch the zombie FIFO. Every call that reaches an in-range slot of this
// table's own half permanently latches the zombie FIFO off, since an authoritative
// delete_id stream is incompatible with the FIFO's out-of-order reaping.
func (t *Table) MarkDeleted(id uint32) error {
	isServer, idx := halfAndIndex(id)
	if isServer != (t.side == ServerSide) {
		return nil
	}

	entries := t.entries(isServer)
	count := uint32(len(*entries))
	if idx >= count {
		return objerr.NewOutOfRangeError(id)
	}

	t.zombieCount = -1

	e := &(*entries)[idx]
	e.state |= stateDeleted
	if e.isZombie() {
		e.next = t.freeList
		e.state |= stateFreelisted
		e.state &^= stateZombie
		t.freeList = idx
	}
	return nil
}

// Lookup returns the Live payload for id, or nil if the slot is out of
// range, Zombie, or Freelisted.
func (t *Table) Lookup(id uint32) any {
	isServer, idx := halfAndIndex(id)
	entries := t.entries(isServer)
	count := uint32(len(*entries))
	if idx >= count {
		return nil
	}
	e := &(*entries)[idx]
	if e.isFree() {
		return nil
	}
	return e.data
}

// LookupZombie returns the interface metadata stored by Zombify, or nil if
// the slot is not currently Zombie.
func (t *Table) LookupZombie(id uint32) any {
	isServer, idx := halfAndIndex(id)
	entries := t.entries(isServer)
	count := uint32(len(*entries))
	if idx >= count {
		return nil
	}
	e := &(*entries)[idx]
	if !e.isZombie() {
		return nil
	}
	return e.data
}

// LookupFlags returns the low 29 bits stored by InsertNew/InsertAt, or 0
// for any non-Live slot.
func (t *Table) LookupFlags(id uint32) uint32 {
	isServer, idx := halfAndIndex(id)
	entries := t.entries(isServer)
	count := uint32(len(*entries))
	if idx >= count {
		return 0
	}
	e := &(*entries)[idx]
	if e.isFree() {
		return 0
	}
	return e.userFlags()
}

// ForEach visits every Live slot, client half first then server half, in
// index order, calling fn(payload, flags). The callback must not mutate
// the table; doing so is undefined behavior (see the package doc).
func (t *Table) ForEach(fn func(payload any, flags uint32) IterResult) {
	if forEachHalf(t.clientEntries, fn) == Stop {
		return
	}
	forEachHalf(t.serverEntries, fn)
}

func forEachHalf(entries []entry, fn func(any, uint32) IterResult) IterResult {
	for i := range entries {
		e := &entries[i]
		if e.data == nil || e.isFree() {
			continue
		}
		if fn(e.data, e.userFlags()) == Stop {
			return Stop
		}
	}
	return Continue
}

// ZombieListCount reports the current zombie FIFO length, or -1 if the
// FIFO has been permanently disabled by MarkDeleted.
func (t *Table) ZombieListCount() int32 { return t.zombieCount }
