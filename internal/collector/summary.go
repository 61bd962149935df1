package collector

// ItemError records a per-document failure.
type ItemError struct {
	Path string
	Err  error
}

// Summary counts the outcome of a batch.
type Summary struct {
	Processed int
	Failed    int
	Skipped   int
	Failures  []ItemError
}

func (s *Summary) fail(p string, err error) {
	s.Failed++
	s.Failures = append(s.Failures, ItemError{Path: p, Err: err})
}
