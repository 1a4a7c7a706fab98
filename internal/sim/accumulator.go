package sim

// Accumulator tracks wall-clock time not yet consumed by fixed physics steps.
type Accumulator struct {
	step     float64
	maxSteps int
	value    float64
}

// NewAccumulator creates an accumulator for the given step size and per-frame cap.
func NewAccumulator(step float64, maxSteps int) *Accumulator {
	if maxSteps < 1 {
		maxSteps = 1
	}
	return &Accumulator{step: step, maxSteps: maxSteps}
}

// Add banks elapsed seconds. Negative input is ignored.
func (a *Accumulator) Add(dt float64) {
	if dt > 0 {
		a.value += dt
	}
}

// Drain calls step once per whole fixed step banked, at most maxSteps times.
// capped reports that time was left over because the cap was reached; that
// time stays banked and the simulation runs behind wall-clock time.
func (a *Accumulator) Drain(step func()) (steps int, capped bool) {
	for a.value >= a.step && steps < a.maxSteps {
		step()
		a.value -= a.step
		steps++
	}
	return steps, a.value >= a.step
}

// Value returns the banked seconds.
func (a *Accumulator) Value() float64 { return a.value }

// Reset discards banked time.
func (a *Accumulator) Reset() { a.value = 0 }
