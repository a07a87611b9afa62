package data

// SimilarArtist is a candidate produced by the discovery service. The
// platform fields are only set when the candidate could be matched to a real
// profile.
type SimilarArtist struct {
	Name            string  `json:"name"`
	SoundCloudURL   *string `json:"soundcloud_url"`
	SimilarityScore float64 `json:"similarity_score"`
	Reason          string  `json:"reason"`
	FollowerCount   *int64  `json:"follower_count"`
	Genre           *string `json:"genre"`
	Verified        bool    `json:"verified"`
}

// SearchResult is one row of a platform search page.
type SearchResult struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Artist string `json:"artist,omitempty"`
}

// TrendingArtist is a profile ranked within a timeframe.
type TrendingArtist struct {
	ArtistProfile
	Rank      int    `json:"rank"`
	Timeframe string `json:"timeframe"`
}

type PopularityMetrics struct {
	Score      float64 `json:"score"`
	Followers  int64   `json:"followers"`
	TotalPlays int64   `json:"total_plays"`
	TrackCount int     `json:"track_count"`
}

type GrowthTrends struct {
	Score float64 `json:"score"`
	Trend string  `json:"trend"`
}

// ArtistAnalysis is the composite report for one artist. When the analysis
// fails, only Error is set.
type ArtistAnalysis struct {
	Artist              *ArtistProfile     `json:"artist,omitempty"`
	GenreClassification []string           `json:"genre_classification,omitempty"`
	MoodAnalysis        Vector             `json:"mood_analysis,omitempty"`
	PopularityMetrics   *PopularityMetrics `json:"popularity_metrics,omitempty"`
	GrowthTrends        *GrowthTrends      `json:"growth_trends,omitempty"`
	SimilarArtists      []SimilarArtist    `json:"similar_artists,omitempty"`
	Recommendations     []string           `json:"recommendations,omitempty"`
	MarketInsights      map[string]string  `json:"market_insights,omitempty"`

	Error string `json:"error,omitempty"`
}
