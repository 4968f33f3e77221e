package scheduler

import (
	"hash/fnv"
	"math/rand"

	"github.com/arborsched/arbor/internal/domain"
)

// deterministicPick implements the `random` allocation policy's seeding
// rule from §4.D / §9: choose from n eligible candidates using a PRNG
// keyed by (project-seed, task-id, slot-index), so the result never
// depends on iteration order across runs or across processes.
func deterministicPick(projectSeed int64, taskID domain.EntityID, slot domain.Slot, n int) int {
	if n <= 0 {
		return 0
	}
	h := fnv.New64a()
	var buf [24]byte
	putInt64(buf[0:8], projectSeed)
	putInt64(buf[8:16], int64(taskID))
	putInt64(buf[16:24], int64(slot))
	_, _ = h.Write(buf[:])
	src := rand.NewSource(int64(h.Sum64()))
	return rand.New(src).Intn(n)
}

func putInt64(b []byte, v int64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
