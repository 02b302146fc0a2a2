package cpu

const robCapacity = 32

// robEntry is one in-flight instruction tracked by the reorder buffer.
// Dest and Val are interpreted according to Kind: for robA/robL, Dest is
// a register index and Val is the result; for robS, Dest is the
// effective store address and Val is the store data; for robB neither
// Dest nor PredictedTaken's counterpart Val-as-register applies, Val
// instead holds the actual-taken outcome (0 or 1) once known.
type robEntry struct {
	Kind  robKind
	Ready bool
	Tag   uint32
	Raw   uint32
	Dest  uint32
	Val   uint32

	PredictedTaken bool
	PCNow          uint32
	PCTarget       uint32
}

// ROB is the reorder buffer: a ring buffer indexed by (tag-1) % capacity,
// with a monotonically increasing tag counter and separate head/tail
// counts (in issue-order units, not slot indices) tracking which tags
// are currently live.
type ROB struct {
	entries [robCapacity]robEntry
	nextTag uint32
	head    uint32
	tail    uint32
}

func NewROB() *ROB {
	return &ROB{nextTag: 1}
}

func slotFor(tag uint32) uint32 { return (tag - 1) % robCapacity }

func (r *ROB) Empty() bool { return r.tail == r.head }
func (r *ROB) Full() bool  { return r.tail-r.head >= robCapacity }

// HeadTag returns the tag of the oldest live entry, or 0 if empty.
func (r *ROB) HeadTag() uint32 {
	if r.Empty() {
		return 0
	}
	return r.head + 1
}

// Head returns a pointer to the oldest live entry, or nil if empty.
func (r *ROB) Head() *robEntry {
	if r.Empty() {
		return nil
	}
	return &r.entries[slotFor(r.HeadTag())]
}

// At returns a pointer to the entry with the given tag. The caller must
// only call this with a tag it knows to be currently live.
func (r *ROB) At(tag uint32) *robEntry {
	return &r.entries[slotFor(tag)]
}

// issue allocates the next tag and stores e at its slot, advancing the
// tail. The caller must have already checked !Full().
func (r *ROB) issue(e robEntry) uint32 {
	tag := r.nextTag
	e.Tag = tag
	r.entries[slotFor(tag)] = e
	r.nextTag++
	r.tail++
	return tag
}

// IssueSimple allocates a robA/robL/robS entry. Ready defaults to false
// except where the caller has already computed the value (U/J-type
// immediates complete at issue).
func (r *ROB) IssueSimple(kind robKind, raw uint32, dest uint32, ready bool, val uint32) uint32 {
	return r.issue(robEntry{Kind: kind, Raw: raw, Dest: dest, Ready: ready, Val: val})
}

// IssueBranch allocates a robB entry.
func (r *ROB) IssueBranch(raw uint32, predictedTaken bool, pcNow, pcTarget uint32) uint32 {
	return r.issue(robEntry{Kind: robB, Raw: raw, PredictedTaken: predictedTaken, PCNow: pcNow, PCTarget: pcTarget})
}

// Dequeue retires the head entry.
func (r *ROB) Dequeue() {
	if !r.Empty() {
		r.head++
	}
}

// Reception applies a CDB broadcast: if tag is live, mark it ready and
// store its value.
func (r *ROB) Reception(tag uint32, val uint32) {
	if tag == 0 || r.head >= tag || tag > r.tail {
		return
	}
	e := r.At(tag)
	e.Ready = true
	e.Val = val
}

// Flush discards every live entry and resets the tag counter, per the
// branch-misprediction recovery contract.
func (r *ROB) Flush() {
	r.head, r.tail = 0, 0
	r.nextTag = 1
}
