package data

import "time"

type TrackInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`

	// seconds
	Duration *int64 `json:"duration"`

	PlayCount    *int64 `json:"play_count"`
	LikeCount    *int64 `json:"like_count"`
	RepostCount  *int64 `json:"repost_count"`
	CommentCount *int64 `json:"comment_count"`

	CreatedAt    *time.Time `json:"created_at"`
	Genre        *string    `json:"genre"`
	Tags         []string   `json:"tags"`
	Description  *string    `json:"description"`
	Downloadable bool       `json:"downloadable"`
	ArtworkURL   *string    `json:"artwork_url"`
}
