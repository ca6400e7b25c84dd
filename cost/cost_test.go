package cost

import "testing"

func TestProb2CostBounds(t *testing.T) {
	if Prob2Cost(0) != MinProbCost {
		t.Fatalf("Prob2Cost(0) = %d, want %d", Prob2Cost(0), MinProbCost)
	}
	if Prob2Cost(1) != 0 {
		t.Fatalf("Prob2Cost(1) = %d, want 0", Prob2Cost(1))
	}
}

func TestProb2CostMonotone(t *testing.T) {
	prev := Prob2Cost(0.01)
	for _, p := range []float64{0.1, 0.3, 0.5, 0.8, 0.99} {
		c := Prob2Cost(p)
		if c > prev {
			t.Fatalf("Prob2Cost not monotone non-increasing: Prob2Cost(%v)=%d > prev=%d", p, c, prev)
		}
		prev = c
	}
}

func TestCost2ProbRoundTrip(t *testing.T) {
	for _, p := range []float64{0.01, 0.1, 0.5, 0.9, 0.99} {
		c := Prob2Cost(p)
		got := Cost2Prob(c)
		diff := got - p
		if diff < 0 {
			diff = -diff
		}
		if diff > 0.05 {
			t.Fatalf("round trip p=%v -> cost=%d -> prob=%v, diff too large", p, c, got)
		}
	}
}
