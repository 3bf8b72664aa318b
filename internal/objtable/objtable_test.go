package objtable

import (
	"os"
	"testing"

	objerr "github.com/wl-go/wlgo/internal/objtable/errors"
)

func withZombieCap(t *testing.T, cap string) {
	t.Helper()
	resetZombieCapLatchForTest()
	if cap == "" {
		t.Setenv("WAYLAND_MAX_ZOMBIE_LIST_COUNT", "")
		os.Unsetenv("WAYLAND_MAX_ZOMBIE_LIST_COUNT")
	} else {
		t.Setenv("WAYLAND_MAX_ZOMBIE_LIST_COUNT", cap)
	}
	t.Cleanup(resetZombieCapLatchForTest)
}

// TestZombieListOverflow mirrors map_zombie_list: with the FIFO cap
// latched to 2, the third zombification evicts the oldest and the next
// allocation reuses its slot.
func TestZombieListOverflow(t *testing.T) {
	withZombieCap(t, "2")

	var a, b, c, d, e, f, az, bz, cz int

	tbl := New(ServerSide)
	i := tbl.InsertNew(0, &a)
	j := tbl.InsertNew(0, &b)
	k := tbl.InsertNew(0, &c)
	if i != ServerIDStart || j != ServerIDStart+1 || k != ServerIDStart+2 {
		t.Fatalf("unexpected ids: %#x %#x %#x", i, j, k)
	}

	if tbl.Lookup(i) != &a || tbl.LookupZombie(i) != nil {
		t.Fatalf("i should be live with no zombie shadow")
	}
	if tbl.ZombieListCount() != 0 {
		t.Fatalf("zombie count = %d, want 0", tbl.ZombieListCount())
	}

	if _, err := tbl.Zombify(ServerIDStart+3, nil); err == nil {
		t.Fatalf("zombify on out-of-range id should fail")
	}

	if evicted, err := tbl.Zombify(i, &az); err != nil {
		t.Fatalf("zombify(i): %v", err)
	} else if evicted {
		t.Fatalf("zombify(i) should not evict below the cap")
	}
	if tbl.Lookup(i) != nil || tbl.LookupZombie(i) != &az {
		t.Fatalf("i should now be a zombie shadowing lookup")
	}
	if tbl.ZombieListCount() != 1 {
		t.Fatalf("zombie count = %d, want 1", tbl.ZombieListCount())
	}

	l := tbl.InsertNew(0, &d)
	if l != ServerIDStart+3 {
		t.Fatalf("l = %#x, want %#x", l, ServerIDStart+3)
	}
	if tbl.Lookup(l) != &d || tbl.ZombieListCount() != 1 {
		t.Fatalf("unexpected state after inserting d")
	}

	if _, err := tbl.Zombify(j, &bz); err != nil {
		t.Fatalf("zombify(j): %v", err)
	}
	if tbl.ZombieListCount() != 2 {
		t.Fatalf("zombie count = %d, want 2", tbl.ZombieListCount())
	}

	m := tbl.InsertNew(0, &e)
	if m != ServerIDStart+4 || tbl.ZombieListCount() != 2 {
		t.Fatalf("unexpected state after inserting e")
	}

	// Overflow: zombifying k pushes the FIFO past cap 2, evicting i.
	evicted, err := tbl.Zombify(k, &cz)
	if err != nil {
		t.Fatalf("zombify(k): %v", err)
	}
	if !evicted {
		t.Fatalf("zombify(k) should report an eviction")
	}
	if tbl.Lookup(k) != nil || tbl.LookupZombie(k) != &cz {
		t.Fatalf("k should be zombie")
	}
	if tbl.ZombieListCount() != 2 {
		t.Fatalf("zombie count = %d, want 2 (capped)", tbl.ZombieListCount())
	}

	n := tbl.InsertNew(0, &f)
	if n != i {
		t.Fatalf("n = %#x, want reused slot %#x", n, i)
	}
	if tbl.Lookup(n) != &f {
		t.Fatalf("n should hold f")
	}
	if tbl.ZombieListCount() != 2 {
		t.Fatalf("zombie count = %d, want 2", tbl.ZombieListCount())
	}
}

// TestMarkDeletedLatchesFIFO mirrors map_mark_deleted: mark_deleted
// permanently disables the zombie FIFO and short-circuits subsequent
// zombifications straight to the freelist.
func TestMarkDeletedLatchesFIFO(t *testing.T) {
	withZombieCap(t, "")

	var a, b, c, az, bz int

	tbl := New(ServerSide)

	if err := tbl.MarkDeleted(ServerIDStart); err == nil {
		t.Fatalf("mark_deleted on an empty table should fail (out of range)")
	}

	i := tbl.InsertNew(0, &a)
	if i != ServerIDStart || tbl.ZombieListCount() != 0 {
		t.Fatalf("unexpected initial state")
	}
	if tbl.Lookup(i) != &a {
		t.Fatalf("lookup(i) should be &a")
	}

	if err := tbl.MarkDeleted(i); err != nil {
		t.Fatalf("mark_deleted(i): %v", err)
	}
	if tbl.ZombieListCount() != -1 {
		t.Fatalf("zombie count = %d, want -1", tbl.ZombieListCount())
	}
	if tbl.Lookup(i) != &a {
		t.Fatalf("mark_deleted on a non-zombie Live slot leaves lookup visible")
	}
	if tbl.LookupZombie(i) != nil {
		t.Fatalf("i should not be a zombie")
	}

	if evicted, err := tbl.Zombify(i, &az); err != nil {
		t.Fatalf("zombify(i): %v", err)
	} else if evicted {
		t.Fatalf("zombify-on-deleted should never report an eviction")
	}
	if tbl.Lookup(i) != nil || tbl.LookupZombie(i) != nil {
		t.Fatalf("zombify-on-deleted should shortcut to freelist, not zombie")
	}
	if tbl.ZombieListCount() != -1 {
		t.Fatalf("zombie count should remain -1")
	}

	j := tbl.InsertNew(0, &b)
	if j != ServerIDStart {
		t.Fatalf("j = %#x, want reused slot %#x", j, ServerIDStart)
	}
	if tbl.Lookup(j) != &b {
		t.Fatalf("lookup(j) should be &b")
	}

	if _, err := tbl.Zombify(j, &bz); err != nil {
		t.Fatalf("zombify(j): %v", err)
	}
	if tbl.ZombieListCount() != -1 {
		t.Fatalf("zombie count should remain -1 after zombify")
	}
	if tbl.Lookup(j) != nil || tbl.LookupZombie(j) != &bz {
		t.Fatalf("j should be a genuine zombie this time")
	}

	if err := tbl.MarkDeleted(j); err != nil {
		t.Fatalf("mark_deleted(j): %v", err)
	}
	if tbl.Lookup(j) != nil || tbl.LookupZombie(j) != nil {
		t.Fatalf("j should be fully reaped after mark_deleted")
	}

	k := tbl.InsertNew(0, &c)
	if k != ServerIDStart {
		t.Fatalf("k = %#x, want reused slot %#x", k, ServerIDStart)
	}
}

// TestInsertNew mirrors map_insert_new: sequential allocation on the
// server half, and the id-0 edge case on a fresh client-side table.
func TestInsertNew(t *testing.T) {
	var a, b, c int

	server := New(ServerSide)
	i := server.InsertNew(0, &a)
	j := server.InsertNew(0, &b)
	k := server.InsertNew(0, &c)
	if i != ServerIDStart || j != ServerIDStart+1 || k != ServerIDStart+2 {
		t.Fatalf("unexpected ids: %#x %#x %#x", i, j, k)
	}
	if server.Lookup(i) != &a || server.Lookup(j) != &b || server.Lookup(k) != &c {
		t.Fatalf("lookup round-trip failed")
	}

	client := New(ClientSide)
	i = client.InsertNew(0, &a)
	if i != 0 {
		t.Fatalf("first ClientSide insert_new = %#x, want 0", i)
	}
	if client.Lookup(i) != &a {
		t.Fatalf("lookup(0) should be &a on a fresh ClientSide table")
	}
}

// TestInsertAt mirrors map_insert_at: non-contiguous growth rejects.
func TestInsertAt(t *testing.T) {
	var a, b, c int
	tbl := New(ClientSide)

	if err := tbl.InsertAt(0, ServerIDStart, &a); err != nil {
		t.Fatalf("insert_at(SERVER_ID_START): %v", err)
	}
	if err := tbl.InsertAt(0, ServerIDStart+3, &b); err == nil || !objerr.IsInvalid(err) {
		t.Fatalf("insert_at(SERVER_ID_START+3) should reject non-contiguous growth, got %v", err)
	}
	if err := tbl.InsertAt(0, ServerIDStart+1, &c); err != nil {
		t.Fatalf("insert_at(SERVER_ID_START+1): %v", err)
	}

	if tbl.Lookup(ServerIDStart) != &a {
		t.Fatalf("lookup(SERVER_ID_START) should be &a")
	}
	if tbl.Lookup(ServerIDStart+1) != &c {
		t.Fatalf("lookup(SERVER_ID_START+1) should be &c")
	}
}

// TestRemove mirrors map_remove: mark_deleted then zombify reaps straight
// to the freelist, and the next insert_new reuses the freed slot.
func TestRemove(t *testing.T) {
	withZombieCap(t, "")
	var a, b, c, d int

	tbl := New(ServerSide)
	i := tbl.InsertNew(0, &a)
	j := tbl.InsertNew(0, &b)
	k := tbl.InsertNew(0, &c)
	if i != ServerIDStart || j != ServerIDStart+1 || k != ServerIDStart+2 {
		t.Fatalf("unexpected ids")
	}

	if err := tbl.MarkDeleted(j); err != nil {
		t.Fatalf("mark_deleted(j): %v", err)
	}
	if _, err := tbl.Zombify(j, nil); err != nil {
		t.Fatalf("zombify(j): %v", err)
	}
	if tbl.Lookup(j) != nil {
		t.Fatalf("j should no longer be live")
	}

	l := tbl.InsertNew(0, &d)
	if l != j {
		t.Fatalf("l = %#x, want reused hole %#x", l, j)
	}
	if tbl.Lookup(l) != &d {
		t.Fatalf("lookup(l) should be &d")
	}
}

// TestFlagsTruncation mirrors map_flags: the top 3 status bits are
// silently stripped from a stored flags value (P3).
func TestFlagsTruncation(t *testing.T) {
	var a, b int
	tbl := New(ServerSide)

	i := tbl.InsertNew(0, &a)
	const flagValue uint32 = 0xabcdef10
	const truncated uint32 = flagValue & 0x1FFFFFFF // 0x0bcdef10
	j := tbl.InsertNew(flagValue, &b)

	if i != ServerIDStart || j != ServerIDStart+1 {
		t.Fatalf("unexpected ids")
	}
	if tbl.LookupFlags(i) != 0 {
		t.Fatalf("flags(i) = %#x, want 0", tbl.LookupFlags(i))
	}
	if tbl.LookupFlags(j) != truncated {
		t.Fatalf("flags(j) = %#x, want %#x", tbl.LookupFlags(j), truncated)
	}
}

// TestForEachEmpty mirrors map_iter_empty: traversal of a freshly
// constructed table never invokes the callback.
func TestForEachEmpty(t *testing.T) {
	tbl := New(ServerSide)
	tbl.ForEach(func(any, uint32) IterResult {
		t.Fatalf("callback should not run on an empty table")
		return Stop
	})
}

// TestForEachSelectivity is P9: ForEach visits exactly the Live set.
func TestForEachSelectivity(t *testing.T) {
	var a, b, c int
	tbl := New(ServerSide)
	i := tbl.InsertNew(0, &a)
	_ = tbl.InsertNew(0, &b)
	k := tbl.InsertNew(0, &c)

	if _, err := tbl.Zombify(i, "iface"); err != nil {
		t.Fatalf("zombify: %v", err)
	}

	seen := map[uint32]bool{}
	count := 0
	tbl.ForEach(func(payload any, _ uint32) IterResult {
		count++
		switch payload {
		case &a:
			seen[i] = true
		case &c:
			seen[k] = true
		}
		return Continue
	})
	if count != 2 {
		t.Fatalf("visited %d entries, want 2 (b and c live)", count)
	}
}

// TestForEachStop verifies the Stop sentinel halts traversal immediately.
func TestForEachStop(t *testing.T) {
	var a, b, c int
	tbl := New(ServerSide)
	tbl.InsertNew(0, &a)
	tbl.InsertNew(0, &b)
	tbl.InsertNew(0, &c)

	visits := 0
	tbl.ForEach(func(any, uint32) IterResult {
		visits++
		return Stop
	})
	if visits != 1 {
		t.Fatalf("visits = %d, want 1", visits)
	}
}

// TestReserveNewRejectsOwnHalf is the spec's reserve_new/insert_new split:
// a table may only reserve ids in the opposite half.
func TestReserveNewRejectsOwnHalf(t *testing.T) {
	tbl := New(ServerSide)
	if err := tbl.ReserveNew(ServerIDStart); err == nil {
		t.Fatalf("reserve_new on own half should fail")
	}
	// Growth into the client half must stay contiguous: materialize the
	// reserved null slot (id 0) before reserving id 1.
	if err := tbl.InsertAt(0, 0, nil); err != nil {
		t.Fatalf("insert_at(0): %v", err)
	}
	if err := tbl.ReserveNew(1); err != nil {
		t.Fatalf("reserve_new on opposite half: %v", err)
	}
	// Reserving an already-reserved (non-free) slot fails.
	if err := tbl.ReserveNew(1); err == nil {
		t.Fatalf("reserve_new on an occupied slot should fail")
	}
}

// TestReserveNewRejectsZombie confirms zombie slots are not free for
// reserve_new even though they're unreachable via lookup.
func TestReserveNewRejectsZombie(t *testing.T) {
	tbl := New(ServerSide)
	if err := tbl.InsertAt(0, 0, nil); err != nil {
		t.Fatalf("insert_at(0): %v", err)
	}
	if err := tbl.ReserveNew(1); err != nil {
		t.Fatalf("reserve_new(1): %v", err)
	}
	if err := tbl.InsertAt(0, 1, "payload"); err != nil {
		t.Fatalf("insert_at(1): %v", err)
	}
	if _, err := tbl.Zombify(1, "iface"); err != nil {
		t.Fatalf("zombify(1): %v", err)
	}
	if err := tbl.ReserveNew(1); err == nil {
		t.Fatalf("reserve_new on a zombie slot should fail")
	}
}

// TestAllocationMonotonicity is P1: without intervening frees, ids climb
// sequentially from the table's own base.
func TestAllocationMonotonicity(t *testing.T) {
	tbl := New(ServerSide)
	for n := uint32(0); n < 10; n++ {
		id := tbl.InsertNew(0, n)
		if id != ServerIDStart+n {
			t.Fatalf("id %d = %#x, want %#x", n, id, ServerIDStart+n)
		}
	}
}

// TestSideAsymmetry is P10.
func TestSideAsymmetry(t *testing.T) {
	client := New(ClientSide)
	if id := client.InsertNew(0, "x"); id != 0 {
		t.Fatalf("ClientSide first id = %#x, want 0", id)
	}

	server := New(ServerSide)
	if id := server.InsertNew(0, "x"); id != ServerIDStart {
		t.Fatalf("ServerSide first id = %#x, want %#x", id, ServerIDStart)
	}
}

// TestZombifyOutOfRange is §7 OutOfRange: zombify beyond the grown vector
// fails without mutating anything.
func TestZombifyOutOfRange(t *testing.T) {
	tbl := New(ServerSide)
	if _, err := tbl.Zombify(ServerIDStart, "x"); err == nil || !objerr.IsOutOfRange(err) {
		t.Fatalf("zombify on an empty table should report OutOfRange, got %v", err)
	}
}

// TestEnvOverrideUsesDefaultWhenUnset verifies the latch falls back to 64
// when WAYLAND_MAX_ZOMBIE_LIST_COUNT is absent.
func TestEnvOverrideUsesDefaultWhenUnset(t *testing.T) {
	withZombieCap(t, "")
	if got := resolvedZombieCap(); got != defaultMaxZombieListCount {
		t.Fatalf("resolvedZombieCap() = %d, want %d", got, defaultMaxZombieListCount)
	}
}

// TestEnvOverrideLatchesOnce verifies the env var is read exactly once:
// changing it after the first Zombify call has no further effect.
func TestEnvOverrideLatchesOnce(t *testing.T) {
	withZombieCap(t, "3")
	tbl := New(ServerSide)
	id := tbl.InsertNew(0, "x")
	if _, err := tbl.Zombify(id, "iface"); err != nil {
		t.Fatalf("zombify: %v", err)
	}
	if got := resolvedZombieCap(); got != 3 {
		t.Fatalf("resolvedZombieCap() = %d, want 3", got)
	}

	os.Setenv("WAYLAND_MAX_ZOMBIE_LIST_COUNT", "99")
	if got := resolvedZombieCap(); got != 3 {
		t.Fatalf("resolvedZombieCap() changed after latch: got %d, want 3", got)
	}
}
