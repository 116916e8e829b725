package logging

import "strings"

// ProgressSampler thins out percent logging. It emits when the percentage
// enters a new bucket or when the tracked key (usually a job ID) changes.
type ProgressSampler struct {
	bucketSize int
	lastKey    string
	lastBucket int
}

// NewProgressSampler returns a sampler with the given bucket width in percent.
// Non-positive widths fall back to 10.
func NewProgressSampler(bucketSize int) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether percent for key deserves a log line.
func (s *ProgressSampler) ShouldLog(key string, percent int) bool {
	if s == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key != s.lastKey {
		s.lastKey = key
		s.lastBucket = -1
	}
	if percent < 0 {
		return false
	}
	if percent > 100 {
		percent = 100
	}
	bucket := percent / s.bucketSize
	if bucket <= s.lastBucket {
		return false
	}
	s.lastBucket = bucket
	return true
}

// Reset forgets the last key and bucket.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastKey = ""
	s.lastBucket = -1
}
