package data

import "time"

// ArtistProfile is an artist's profile page, optionally with the tracks from
// their track listing.
type ArtistProfile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`

	AvatarURL *string `json:"avatar_url"`
	BannerURL *string `json:"banner_url"`

	FollowersCount *int64 `json:"followers_count"`
	FollowingCount *int64 `json:"following_count"`
	TrackCount     *int64 `json:"track_count"`
	PlaylistCount  *int64 `json:"playlist_count"`

	Description *string  `json:"description"`
	Location    *string  `json:"location"`
	Genres      []string `json:"genres"`
	Verified    bool     `json:"verified"`

	CreatedAt    *time.Time `json:"created_at"`
	LastActivity *time.Time `json:"last_activity"`

	Tracks []TrackInfo `json:"tracks"`

	// Summed from Tracks by Aggregate.
	TotalPlays int64 `json:"total_plays"`
	TotalLikes int64 `json:"total_likes"`
}

// Aggregate recomputes TotalPlays and TotalLikes from the profile's tracks.
func (p *ArtistProfile) Aggregate() {
	p.TotalPlays, p.TotalLikes = 0, 0
	for _, track := range p.Tracks {
		p.TotalPlays += Count(track.PlayCount)
		p.TotalLikes += Count(track.LikeCount)
	}
}

// Followers returns the follower count, or zero when it's unknown.
func (p *ArtistProfile) Followers() int64 {
	return Count(p.FollowersCount)
}
