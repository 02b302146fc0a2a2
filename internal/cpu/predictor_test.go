package cpu

import "testing"

func TestPredictorInitAsymmetry(t *testing.T) {
	p := NewPredictor()
	for col := 0; col < 7; col++ {
		if p.pht[col][0] != 1 {
			t.Fatalf("column %d row 0 = %d, want 1 (weakly not-taken)", col, p.pht[col][0])
		}
	}
	if p.pht[7][0] != 0 {
		t.Fatalf("column 7 row 0 = %d, want 0 (left at zero value, per the preserved init asymmetry)", p.pht[7][0])
	}
}

func TestPredictorHash(t *testing.T) {
	p := NewPredictor()
	if got, want := p.hash(1), uint32(233); got != want {
		t.Fatalf("hash(1) = %d, want %d", got, want)
	}
	if got := p.hash(0); got != 0 {
		t.Fatalf("hash(0) = %d, want 0", got)
	}
}

func TestPredictorPredictUsesHighBitOfCounter(t *testing.T) {
	p := NewPredictor()
	pc := uint32(50)
	key := p.hash(pc)
	p.pht[0][key] = 2
	if !p.Predict(pc) {
		t.Fatalf("counter=2 should predict taken")
	}
	p.pht[0][key] = 1
	if p.Predict(pc) {
		t.Fatalf("counter=1 should predict not-taken")
	}
}

func TestPredictorSaturatesHigh(t *testing.T) {
	p := NewPredictor()
	pc := uint32(100)
	key := p.hash(pc)
	p.pht[0][key] = 3
	p.Feedback(pc, true, true)
	if p.pht[0][key] != 3 {
		t.Fatalf("counter should stay saturated at 3, got %d", p.pht[0][key])
	}
}

func TestPredictorSaturatesLow(t *testing.T) {
	p := NewPredictor()
	pc := uint32(200)
	key := p.hash(pc)
	p.pht[0][key] = 0
	p.Feedback(pc, false, true)
	if p.pht[0][key] != 0 {
		t.Fatalf("counter should stay saturated at 0, got %d", p.pht[0][key])
	}
}

func TestPredictorHistoryShiftsIn(t *testing.T) {
	p := NewPredictor()
	pc := uint32(0)
	key := p.hash(pc)
	p.Feedback(pc, true, true)
	if p.ghr[key] != 1 {
		t.Fatalf("ghr = %d, want 1 after one taken feedback", p.ghr[key])
	}
	p.Feedback(pc, false, true)
	if p.ghr[key] != 2 {
		t.Fatalf("ghr = %d, want 2 after taken-then-not-taken", p.ghr[key])
	}
}

func TestPredictorStatsAccumulate(t *testing.T) {
	p := NewPredictor()
	p.Feedback(0, true, true)
	p.Feedback(0, true, false)
	p.Feedback(4, false, true)
	seen, correct := p.Stats()
	if seen != 3 || correct != 2 {
		t.Fatalf("Stats() = (%d, %d), want (3, 2)", seen, correct)
	}
}
