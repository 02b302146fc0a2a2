package cpu

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
)

// Config bundles everything needed to construct a Simulator. The zero
// value is not usable directly; build one through New, which fills in
// defaults for any zero field.
type Config struct {
	MemSize   uint32
	Seed      int64
	MaxCycles uint64
	Trace     io.Writer
}

func (c Config) withDefaults() Config {
	if c.MemSize == 0 {
		c.MemSize = DefaultMemSize
	}
	if c.MaxCycles == 0 {
		c.MaxCycles = 10_000_000
	}
	if c.Trace == nil {
		c.Trace = io.Discard
	}
	return c
}

// Simulator is the single context gathering all pipeline state: memory,
// predictor, register file, instruction queue, reorder buffer,
// reservation stations, load/store buffer and the common data bus. Every
// pipeline stage is a method on *Simulator rather than a free function
// over module-level globals.
type Simulator struct {
	Mem  *Memory
	Pred *Predictor
	Reg  RegFile
	IQ   InstQueue
	Rob  *ROB
	Rs   RS
	Lsb  LSB

	PC    uint32
	Cycle uint64
	bus   cdb

	Finished bool
	Output   uint32

	rng *rand.Rand
	cfg Config
	log *log.Logger
}

// New builds a Simulator with zero-initialized registers and memory,
// PC at 0, and the predictor in its initial state.
func New(cfg Config) *Simulator {
	cfg = cfg.withDefaults()
	return &Simulator{
		Mem:  NewMemory(cfg.MemSize),
		Pred: NewPredictor(),
		Rob:  NewROB(),
		rng:  rand.New(rand.NewSource(cfg.Seed)),
		cfg:  cfg,
		log:  log.New(cfg.Trace, "", 0),
	}
}

func (s *Simulator) resolveSrc(r uint32) (val uint32, tag uint32) {
	if r == 0 {
		return 0, 0
	}
	t := s.Reg.Tag[r]
	if t == 0 {
		return s.Reg.Value[r], 0
	}
	e := s.Rob.At(t)
	if e.Ready {
		return e.Val, 0
	}
	return 0, t
}

// fetch reads and decodes the instruction at PC, enqueues it if it has
// an architectural side effect, and advances PC (or sets the stall flag
// for JALR). It is not a pipeline stage of its own: it runs once at the
// top of every Issue call, and once more immediately after a branch
// misprediction flush so the corrected PC is fetched within the same
// cycle.
func (s *Simulator) fetch() {
	if s.IQ.End || s.IQ.Full() || s.IQ.Stall {
		return
	}
	pcNow := s.PC
	raw := s.Mem.LoadWord(pcNow)
	d := Decode(raw)

	switch d.Type {
	case TypeB:
		predicted := s.Pred.Predict(pcNow)
		s.IQ.Push(IQEntry{PC: pcNow, Raw: raw, PredictedTaken: predicted})
		if predicted {
			s.PC = pcNow + d.Imm
		} else {
			s.PC = pcNow + 4
		}
	case TypeJ:
		if d.Rd != 0 {
			s.IQ.Push(IQEntry{PC: pcNow, Raw: raw})
		}
		s.PC = pcNow + d.Imm
	default:
		if d.Type == TypeS || d.Op == OpJALR || d.Rd != 0 {
			s.IQ.Push(IQEntry{PC: pcNow, Raw: raw})
		}
		if d.Op == OpJALR {
			s.IQ.Stall = true
		} else {
			s.PC = pcNow + 4
		}
	}

	if raw == Terminator {
		s.IQ.End = true
	}
}

// issue is the Issue pipeline stage: it invokes fetch exactly once, then
// attempts to dispatch the instruction-queue head to the ROB and to
// either RS or LSB (or complete it immediately in the ROB).
func (s *Simulator) issue() {
	if s.IQ.Empty() {
		s.fetch()
		return
	}
	e, _ := s.IQ.Peek()
	s.fetch()

	d := Decode(e.Raw)
	switch d.Type {
	case TypeU:
		if s.Rob.Full() {
			return
		}
		s.IQ.Pop()
		val := d.Imm
		if d.Op == OpAUIPC {
			val = e.PC + d.Imm
		}
		tag := s.Rob.IssueSimple(robA, e.Raw, d.Rd, true, val)
		s.Reg.Rename(d.Rd, tag)

	case TypeJ:
		if s.Rob.Full() {
			return
		}
		s.IQ.Pop()
		tag := s.Rob.IssueSimple(robA, e.Raw, d.Rd, true, e.PC+4)
		s.Reg.Rename(d.Rd, tag)

	case TypeB:
		if s.Rs.Full() || s.Rob.Full() {
			return
		}
		s.IQ.Pop()
		tag := s.Rob.IssueBranch(e.Raw, e.PredictedTaken, e.PC, e.PC+d.Imm)
		vj, qj := s.resolveSrc(d.Rs1)
		vk, qk := s.resolveSrc(d.Rs2)
		s.Rs.Issue(d.Op, tag, vj, qj, vk, qk, e.PC)

	case TypeL:
		if s.Lsb.Full() || s.Rob.Full() {
			return
		}
		s.IQ.Pop()
		vj, qj := s.resolveSrc(d.Rs1)
		tag := s.Rob.IssueSimple(robL, e.Raw, d.Rd, false, 0)
		s.Reg.Rename(d.Rd, tag)
		s.Lsb.IssueLoad(d.Op, tag, vj, qj, d.Imm, s.Cycle)

	case TypeS:
		if s.Lsb.Full() || s.Rob.Full() {
			return
		}
		s.IQ.Pop()
		tag := s.Rob.IssueSimple(robS, e.Raw, 0, false, 0)
		vj, qj := s.resolveSrc(d.Rs1)
		vk, qk := s.resolveSrc(d.Rs2)
		s.Lsb.IssueStore(d.Op, tag, vj, qj, vk, qk, d.Imm, s.Cycle)

	case TypeI, TypeR:
		if s.Rs.Full() || s.Rob.Full() {
			return
		}
		s.IQ.Pop()
		vj, qj := s.resolveSrc(d.Rs1)
		var vk, qk uint32
		if d.Type == TypeI {
			vk = d.Imm
		} else {
			vk, qk = s.resolveSrc(d.Rs2)
		}
		tag := s.Rob.IssueSimple(robA, e.Raw, d.Rd, false, 0)
		s.Reg.Rename(d.Rd, tag)
		s.Rs.Issue(d.Op, tag, vj, qj, vk, qk, e.PC)

	default:
		s.IQ.Pop()
	}
}

func sextByte(x uint32) uint32 { return uint32(int32(int8(x))) }
func sextHalf(x uint32) uint32 { return uint32(int32(int16(x))) }

func (s *Simulator) loadFromMemory(op Op, addr uint32) uint32 {
	switch op {
	case OpLB:
		return sextByte(s.Mem.LoadByte(addr))
	case OpLH:
		return sextHalf(s.Mem.LoadHalf(addr))
	case OpLW:
		return s.Mem.LoadWord(addr)
	case OpLBU:
		return s.Mem.LoadByte(addr)
	case OpLHU:
		return s.Mem.LoadHalf(addr)
	default:
		return 0
	}
}

func (s *Simulator) storeToMemory(op Op, addr, data uint32) {
	switch op {
	case OpSB:
		s.Mem.StoreByte(addr, data)
	case OpSH:
		s.Mem.StoreHalf(addr, data)
	case OpSW:
		s.Mem.StoreWord(addr, data)
	}
}

// execute is the Execute pipeline stage. The RS and LSB functional
// units are each modeled as a single shared resource: at most one RS
// slot computes its ALU result per cycle, and at most one LSB slot
// leaves waitingCDB per cycle.
func (s *Simulator) execute() {
	for i := range s.Rs.Entries {
		e := &s.Rs.Entries[i]
		if e.State == StateWaitingCDB && e.Qj == 0 && e.Qk == 0 {
			if e.Op == OpJALR {
				target := ALUCalc(OpJALR, e.Vj, e.Vk)
				e.Result = e.PC + 4
				s.PC = target
				s.IQ.Stall = false
			} else {
				e.Result = ALUCalc(e.Op, e.Vj, e.Vk)
			}
			e.State = StateExecuted
			break
		}
	}

	for i := range s.Lsb.Entries {
		e := &s.Lsb.Entries[i]
		if e.State == StateWaitingCDB && e.Qj == 0 && e.Qk == 0 {
			if e.Kind == 'L' {
				e.Addr = e.Vj + e.Vk
				e.State = StateGetAddr
			} else {
				e.Addr = e.Vj
				s.Rob.At(e.Tag).Dest = e.Addr
				e.State = StateExecuted
			}
			break
		}
	}

	if s.Lsb.loadRemaining > 0 {
		s.Lsb.loadRemaining--
		if s.Lsb.loadRemaining == 0 {
			s.Lsb.Entries[s.Lsb.loadSlot].State = StateExecuted
		}
	}

	for i := range s.Lsb.Entries {
		e := &s.Lsb.Entries[i]
		if e.State != StateGetAddr {
			continue
		}

		blocked := false
		for j := range s.Lsb.Entries {
			o := &s.Lsb.Entries[j]
			if o.Kind == 'S' && o.State == StateWaitingCDB && o.Time < e.Time {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}

		found := false
		var bestTime uint64
		var bestVal uint32
		for j := range s.Lsb.Entries {
			if j == i {
				continue
			}
			o := &s.Lsb.Entries[j]
			if o.Kind != 'S' || o.Time >= e.Time || o.Addr != e.Addr {
				continue
			}
			switch o.State {
			case StateWaitingStore, StateStoring, StateExecuted:
			default:
				continue
			}
			if !found || o.Time > bestTime {
				found, bestTime, bestVal = true, o.Time, o.Vk
			}
		}
		if found {
			e.Result = bestVal
			e.State = StateExecuted
			continue
		}

		if s.Lsb.loadRemaining == 0 {
			e.Result = s.loadFromMemory(e.Op, e.Addr)
			s.Lsb.loadSlot = i
			s.Lsb.loadRemaining = memPortLatency
			e.State = StateLoading
		}
	}
}

func (s *Simulator) receive(tag, val uint32) {
	for i := range s.Rs.Entries {
		e := &s.Rs.Entries[i]
		if e.State != StateWaitingCDB {
			continue
		}
		if e.Qj == tag {
			e.Vj, e.Qj = val, 0
		}
		if e.Qk == tag {
			e.Vk, e.Qk = val, 0
		}
	}
	for i := range s.Lsb.Entries {
		e := &s.Lsb.Entries[i]
		if e.State != StateWaitingCDB {
			continue
		}
		if e.Qj == tag {
			if e.Kind == 'S' {
				e.Vj += val
			} else {
				e.Vj = val
			}
			e.Qj = 0
		}
		if e.Qk == tag {
			e.Vk, e.Qk = val, 0
		}
	}
	s.Rob.Reception(tag, val)
}

// writeResult is the Write-Result pipeline stage: RS is given priority
// to broadcast on the CDB; LSB only broadcasts if RS had nothing ready.
func (s *Simulator) writeResult() {
	var tag, val uint32
	broadcast := false

	for i := range s.Rs.Entries {
		e := &s.Rs.Entries[i]
		if e.State == StateExecuted {
			tag, val = e.Tag, e.Result
			s.Rs.freeSlot(i)
			broadcast = true
			break
		}
	}

	if !broadcast {
		for i := range s.Lsb.Entries {
			e := &s.Lsb.Entries[i]
			if e.State == StateExecuted {
				tag = e.Tag
				if e.Kind == 'L' {
					val = e.Result
					s.Lsb.freeSlot(i)
				} else {
					val = e.Vk
					e.State = StateWaitingStore
				}
				broadcast = true
				break
			}
		}
	}

	if !broadcast {
		return
	}
	s.bus = cdb{Tag: tag, Val: val}
	s.receive(tag, val)
}

// flush discards all speculative state on a branch misprediction,
// leaving committed register values and memory untouched.
func (s *Simulator) flush() {
	s.IQ.Flush()
	s.Rs.Flush()
	s.Lsb.Flush()
	s.Rob.Flush()
	s.Reg.FlushTags()
}

// commit is the Commit pipeline stage.
func (s *Simulator) commit() {
	if s.Lsb.storeRemaining > 0 {
		s.Lsb.storeRemaining--
		if s.Lsb.storeRemaining > 0 {
			return
		}
		e := &s.Lsb.Entries[s.Lsb.storeSlot]
		s.storeToMemory(e.Op, e.Addr, e.Vk)
		s.Lsb.freeSlot(s.Lsb.storeSlot)
		s.Rob.Dequeue()
	}

	head := s.Rob.Head()
	if head == nil || !head.Ready {
		return
	}

	switch head.Kind {
	case robS:
		if s.Lsb.storeRemaining == 0 {
			if i, ok := s.Lsb.findByTag(head.Tag); ok {
				s.Lsb.Entries[i].State = StateStoring
				s.Lsb.storeSlot = i
				s.Lsb.storeRemaining = memPortLatency
			}
		}

	case robB:
		actualTaken := head.Val != 0
		correct := actualTaken == head.PredictedTaken
		s.Pred.Feedback(head.PCNow, actualTaken, correct)
		if correct {
			s.Rob.Dequeue()
			return
		}
		if head.PredictedTaken {
			s.PC = head.PCNow + 4
		} else {
			s.PC = head.PCTarget
		}
		s.flush()
		s.fetch()

	default: // robA, robL
		tag, dest, val := head.Tag, head.Dest, head.Val
		terminator := head.Raw == Terminator
		s.Reg.Write(dest, val)
		s.Reg.ClearTagIfMatches(dest, tag)
		s.bus = cdb{Tag: tag, Val: val}
		s.receive(tag, val)
		s.Rob.Dequeue()
		if terminator {
			s.Output = s.Reg.Value[10] & 0xFF
			s.Finished = true
		}
	}
}

// Run advances the simulator cycle by cycle, permuting the order of
// Commit/WriteResult/Execute/Issue each cycle, until the terminator
// commits, the context is cancelled, or the configured cycle budget is
// exhausted.
func (s *Simulator) Run(ctx context.Context) (uint32, error) {
	stages := [4]func(){s.commit, s.writeResult, s.execute, s.issue}

	for s.Cycle = 0; s.Cycle < s.cfg.MaxCycles; s.Cycle++ {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		s.bus = cdb{}
		order := s.rng.Perm(4)
		for _, idx := range order {
			stages[idx]()
		}

		if s.Finished {
			seen, correct := s.Pred.Stats()
			s.log.Printf("cycle %d: terminator committed, output=%d, branches seen=%d correct=%d", s.Cycle, s.Output, seen, correct)
			return s.Output, nil
		}
	}
	return 0, fmt.Errorf("simulator: exceeded max-cycles budget (%d) without committing the terminator", s.cfg.MaxCycles)
}
