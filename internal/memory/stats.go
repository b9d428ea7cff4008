package memory

import "time"

// Stats summarizes the store contents.
type Stats struct {
	Total      int            `json:"total_memories"`
	ByType     map[string]int `json:"by_type"`
	AvgAgeDays float64        `json:"avg_age_days"`
	Oldest     *time.Time     `json:"oldest_memory,omitempty"`
	Newest     *time.Time     `json:"newest_memory,omitempty"`
}

// Stats computes aggregate statistics over the current records.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{ByType: make(map[string]int)}
	if len(s.records) == 0 {
		return stats
	}

	now := s.now().UTC()
	var ageSum float64
	oldest := s.records[0].Timestamp
	newest := s.records[0].Timestamp
	for _, rec := range s.records {
		stats.Total++
		stats.ByType[string(rec.Type)]++
		ageSum += ageDays(now, rec.Timestamp)
		if rec.Timestamp.Before(oldest) {
			oldest = rec.Timestamp
		}
		if rec.Timestamp.After(newest) {
			newest = rec.Timestamp
		}
	}
	stats.AvgAgeDays = ageSum / float64(stats.Total)
	stats.Oldest = &oldest
	stats.Newest = &newest
	return stats
}
