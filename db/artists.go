package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amonks/soundscout/data"
	"github.com/goccy/go-json"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrArtistNotCached = errors.New("artist not cached")

// ScrapedArtist is a cached profile. The searchable fields get columns; the
// full profile, tracks included, is kept as JSON.
type ScrapedArtist struct {
	Username       string `gorm:"primaryKey"`
	PlatformID     string
	DisplayName    string `gorm:"index"`
	URL            string
	FollowersCount *int64
	TrackCount     *int64
	TotalPlays     int64
	TotalLikes     int64
	Verified       bool
	Genres         string
	Profile        json.RawMessage `gorm:"type:text"`
	ScrapedAt      time.Time       `gorm:"index"`
}

func (ScrapedArtist) TableName() string { return "scraped_artists" }

type ScrapedTrack struct {
	TrackID        string `gorm:"primaryKey"`
	ArtistUsername string `gorm:"index"`
	Title          string
	URL            string
	Duration       *int64
	PlayCount      *int64
	LikeCount      *int64
	RepostCount    *int64
	CommentCount   *int64
	Genre          *string
	ReleasedAt     *time.Time
	ScrapedAt      time.Time
}

func (ScrapedTrack) TableName() string { return "scraped_tracks" }

// SaveArtist upserts artist and each of its tracks.
func (db *DB) SaveArtist(ctx context.Context, artist *data.ArtistProfile) error {
	profile, err := json.Marshal(artist)
	if err != nil {
		return fmt.Errorf("error encoding artist '%s': %w", artist.Username, err)
	}
	now := time.Now()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := ScrapedArtist{
			Username:       artist.Username,
			PlatformID:     artist.ID,
			DisplayName:    artist.DisplayName,
			URL:            artist.URL,
			FollowersCount: artist.FollowersCount,
			TrackCount:     artist.TrackCount,
			TotalPlays:     artist.TotalPlays,
			TotalLikes:     artist.TotalLikes,
			Verified:       artist.Verified,
			Genres:         strings.Join(artist.Genres, ","),
			Profile:        profile,
			ScrapedAt:      now,
		}
		if err := tx.
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&row).
			Error; err != nil {
			return fmt.Errorf("error inserting artist '%s': %w", artist.Username, err)
		}

		for _, track := range artist.Tracks {
			id := track.ID
			if id == "" {
				id = track.URL
			}
			if id == "" {
				continue
			}
			if err := tx.
				Clauses(clause.OnConflict{UpdateAll: true}).
				Create(&ScrapedTrack{
					TrackID:        id,
					ArtistUsername: artist.Username,
					Title:          track.Title,
					URL:            track.URL,
					Duration:       track.Duration,
					PlayCount:      track.PlayCount,
					LikeCount:      track.LikeCount,
					RepostCount:    track.RepostCount,
					CommentCount:   track.CommentCount,
					Genre:          track.Genre,
					ReleasedAt:     track.CreatedAt,
					ScrapedAt:      now,
				}).
				Error; err != nil {
				return fmt.Errorf("error inserting track '%s' for artist '%s': %w", id, artist.Username, err)
			}
		}
		return nil
	})
}

// GetArtist returns the most recently cached profile for username.
func (db *DB) GetArtist(ctx context.Context, username string) (*data.ArtistProfile, error) {
	var row ScrapedArtist
	err := db.WithContext(ctx).
		Where("username = ?", username).
		First(&row).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: '%s'", ErrArtistNotCached, username)
	} else if err != nil {
		return nil, fmt.Errorf("error getting artist '%s': %w", username, err)
	}

	var artist data.ArtistProfile
	if err := json.Unmarshal(row.Profile, &artist); err != nil {
		return nil, fmt.Errorf("error decoding cached artist '%s': %w", username, err)
	}
	return &artist, nil
}

// CountTracks counts the cached tracks for username.
func (db *DB) CountTracks(ctx context.Context, username string) (int64, error) {
	var count int64
	if err := db.WithContext(ctx).
		Model(&ScrapedTrack{}).
		Where("artist_username = ?", username).
		Count(&count).
		Error; err != nil {
		return 0, fmt.Errorf("error counting tracks for artist '%s': %w", username, err)
	}
	return count, nil
}
