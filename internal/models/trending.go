package models

// TrendingTrack is one entry of the home page trending feed
type TrendingTrack struct {
	Artist     string         `json:"artist"`
	Track      string         `json:"track"`
	Score      float64        `json:"score"`
	Charts     map[string]int `json:"charts,omitempty"` // chart name -> rank
	BestRank   int            `json:"best_rank,omitempty"`
	ChartCount int            `json:"chart_count,omitempty"`
	ImageURL   string         `json:"image_url,omitempty"`
}

// Key returns the (artist, track) merge key.
func (t TrendingTrack) Key() string {
	return TrackKey(t.Artist, t.Track)
}

// SnapshotMeta describes how a static snapshot was produced
type SnapshotMeta struct {
	GeneratedAt string `json:"generated_at,omitempty"`
	Source      string `json:"source,omitempty"`
	Version     string `json:"version,omitempty"`
}

// SnapshotStats summarises a static snapshot
type SnapshotStats struct {
	TotalTracks int `json:"total_tracks"`
	WithImages  int `json:"with_images"`
	Charts      int `json:"charts"`
}

// Snapshot is the pre-built hybrid_data.json document
type Snapshot struct {
	Meta     SnapshotMeta    `json:"meta"`
	Stats    SnapshotStats   `json:"stats"`
	Trending []TrendingTrack `json:"trending"`
}

// ComputeStats derives snapshot statistics from its tracks.
func (s *Snapshot) ComputeStats() {
	charts := make(map[string]struct{})
	stats := SnapshotStats{TotalTracks: len(s.Trending)}
	for _, t := range s.Trending {
		if t.ImageURL != "" {
			stats.WithImages++
		}
		for c := range t.Charts {
			charts[c] = struct{}{}
		}
	}
	stats.Charts = len(charts)
	s.Stats = stats
}
