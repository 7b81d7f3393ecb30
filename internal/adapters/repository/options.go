package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithHistoryLimit bounds how many runs are retained. When the limit is
// exceeded the oldest run is evicted, except the latest completed run.
func WithHistoryLimit(limit int) Option {
	return func(s *MemoryStore) {
		if limit > 0 {
			s.historyLimit = limit
		}
	}
}
