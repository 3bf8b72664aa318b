package objtable

import (
	"os"
	"strconv"
	"sync"
)

// envZombieCapVar is read exactly once per process, on the first Zombify
// call (across every table in the process) that enqueues onto a zombie
// FIFO, and latches the zombie FIFO
// cap for the remainder of the process's lifetime.
const envZombieCapVar = "WAYLAND_MAX_ZOMBIE_LIST_COUNT"

var (
	zombieCapOnce sync.Once
	zombieCap     int32 = defaultMaxZombieListCount
)

// resolvedZombieCap returns the process-wide zombie FIFO cap, reading the
// environment override on first use only. Safe to call from any table.
func resolvedZombieCap() int32 {
	zombieCapOnce.Do(func() {
		v := os.Getenv(envZombieCapVar)
		if v == "" {
			return
		}
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return
		}
		zombieCap = int32(n)
	})
	return zombieCap
}

// resetZombieCapLatchForTest undoes the process-global env latch so tests
// can exercise WAYLAND_MAX_ZOMBIE_LIST_COUNT deterministically. Not part of
// the public API.
func resetZombieCapLatchForTest() {
	zombieCapOnce = sync.Once{}
	zombieCap = defaultMaxZombieListCount
}
