package decay

// fixedRand always returns the same draws, which pins every probability gate
// to one branch.
type fixedRand struct {
	f float64
	n int
}

func (r fixedRand) Float64() float64 { return r.f }

func (r fixedRand) IntN(n int) int {
	if r.n >= n {
		return n - 1
	}
	return r.n
}

// seqRand replays floats in order, cycling when exhausted.
type seqRand struct {
	floats []float64
	i      int
}

func (r *seqRand) Float64() float64 {
	v := r.floats[r.i%len(r.floats)]
	r.i++
	return v
}

func (r *seqRand) IntN(int) int { return 0 }
