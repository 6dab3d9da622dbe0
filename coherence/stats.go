package coherence

// Statistics holds the hit and miss counts of local accesses.
type Statistics struct {
	Hits   uint64
	Misses uint64
}

// Accesses returns the number of counted reads, writes and fetches.
func (s Statistics) Accesses() uint64 {
	return s.Hits + s.Misses
}

// HitRatio returns hits / (hits + misses), or 0 if nothing was accessed.
func (s Statistics) HitRatio() float64 {
	total := s.Accesses()
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}
