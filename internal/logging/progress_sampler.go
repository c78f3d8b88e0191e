package logging

// ProgressSampler suppresses repetitive byte-progress logs for a stream,
// emitting only when the completed percentage crosses a bucket boundary.
type ProgressSampler struct {
	bucketSize float64
	lastBucket int
}

// NewProgressSampler constructs a sampler that emits every bucketSize percent
// (default 25).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 25
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: 0}
}

// Observe records done out of total bytes and reports the current percentage
// together with whether it should be logged. Unknown totals never log.
func (s *ProgressSampler) Observe(done, total int64) (float64, bool) {
	if total <= 0 || done < 0 {
		return 0, false
	}
	percent := float64(done) / float64(total) * 100
	if percent > 100 {
		percent = 100
	}
	if s == nil {
		return percent, true
	}
	bucket := int(percent / s.bucketSize)
	if bucket > s.lastBucket {
		s.lastBucket = bucket
		return percent, true
	}
	return percent, false
}

// Reset clears the sampler state before a new stream starts.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastBucket = 0
}
