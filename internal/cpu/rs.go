package cpu

import mathbits "math/bits"

const rsSlots = 6

// rsEntry is one reservation-station slot: an arithmetic, logical,
// compare, or branch operation waiting on its operands.
type rsEntry struct {
	State State
	Op    Op
	Tag   uint32 // ROB tag this slot feeds
	Qj    uint32 // 0 => Vj already holds the value
	Qk    uint32 // 0 => Vk already holds the value
	Vj    uint32
	Vk    uint32
	PC    uint32 // instruction's own PC, needed only for JALR's link value

	Result uint32
}

// RS is the 6-slot reservation-station pool. Free slots are tracked in
// an occupancy bitmap scanned with math/bits, the slot-allocation idiom
// this simulator's lineage uses for its out-of-order scheduler.
type RS struct {
	Entries  [rsSlots]rsEntry
	occupied uint64
}

const rsMask = uint64(1)<<rsSlots - 1

func (rs *RS) Full() bool { return rs.occupied&rsMask == rsMask }

func (rs *RS) alloc() (int, bool) {
	free := ^rs.occupied & rsMask
	if free == 0 {
		return 0, false
	}
	i := mathbits.TrailingZeros64(free)
	rs.occupied |= 1 << uint(i)
	return i, true
}

func (rs *RS) freeSlot(i int) {
	rs.occupied &^= 1 << uint(i)
	rs.Entries[i] = rsEntry{}
}

// Issue allocates a slot for a waiting arithmetic/logical/compare/branch
// op. Returns false if the pool is full.
func (rs *RS) Issue(op Op, tag uint32, vj, qj, vk, qk uint32, pc uint32) bool {
	i, ok := rs.alloc()
	if !ok {
		return false
	}
	rs.Entries[i] = rsEntry{
		State: StateWaitingCDB,
		Op:    op,
		Tag:   tag,
		Qj:    qj,
		Qk:    qk,
		Vj:    vj,
		Vk:    vk,
		PC:    pc,
	}
	return true
}

// Flush empties the pool, discarding all speculative slots.
func (rs *RS) Flush() {
	rs.occupied = 0
	for i := range rs.Entries {
		rs.Entries[i] = rsEntry{}
	}
}
