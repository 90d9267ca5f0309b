package observability

import "testing"

func TestStageWindowSnapshot(t *testing.T) {
	w := newStageWindow(4)
	for _, ms := range []float64{100, 200, 300} {
		w.Observe("provider_call", ms)
	}

	snap := w.Snapshot()
	if len(snap.Stages) != 1 {
		t.Fatalf("stages = %d, want 1", len(snap.Stages))
	}
	st := snap.Stages[0]
	if st.Stage != "provider_call" || st.Samples != 3 {
		t.Fatalf("unexpected stage stats: %+v", st)
	}
	if st.LastMS != 300 || st.AvgMS != 200 || st.P50MS != 200 {
		t.Fatalf("unexpected aggregates: %+v", st)
	}
}

func TestStageWindowWrapsAtCapacity(t *testing.T) {
	w := newStageWindow(2)
	w.Observe("generate_total", 10)
	w.Observe("generate_total", 20)
	w.Observe("generate_total", 30)

	st := w.Snapshot().Stages[0]
	if st.Samples != 2 {
		t.Fatalf("Samples = %d, want 2 after wrap", st.Samples)
	}
	if st.AvgMS != 25 {
		t.Fatalf("AvgMS = %v, want 25 (oldest sample dropped)", st.AvgMS)
	}
}

func TestStageWindowIgnoresInvalidObservations(t *testing.T) {
	w := newStageWindow(4)
	w.Observe("", 100)
	w.Observe("x", -1)
	if got := len(w.Snapshot().Stages); got != 0 {
		t.Fatalf("stages = %d, want 0", got)
	}
}
