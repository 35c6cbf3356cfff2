// Package playback translates user intents into session mutations.
package playback

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-listen/internal/domain/catalog"
	"github.com/edumarques81/stellar-listen/internal/domain/favorites"
	"github.com/edumarques81/stellar-listen/internal/domain/session"
)

// IndexPolicy controls whether SelectSong moves the index pointer.
type IndexPolicy int

const (
	// KeepIndex leaves currentSongIndex untouched on select (all songs, search).
	KeepIndex IndexPolicy = iota
	// TrackIndex sets currentSongIndex on every select (album, playlist).
	TrackIndex
)

// String returns the policy name.
func (p IndexPolicy) String() string {
	switch p {
	case TrackIndex:
		return "track"
	default:
		return "keep"
	}
}

// Favorites is the part of the favorites registry the controller delegates to.
type Favorites interface {
	Toggle(ctx context.Context, songID string, users catalog.UserProvider) (bool, error)
}

var _ Favorites = (*favorites.Registry)(nil)

// Controller applies select, play-all, pause and favorite intents.
type Controller struct {
	store     *session.Store
	favorites Favorites
	users     catalog.UserProvider
}

// NewController creates a controller over store.
func NewController(store *session.Store, favs Favorites, users catalog.UserProvider) *Controller {
	return &Controller{
		store:     store,
		favorites: favs,
		users:     users,
	}
}

// SelectSong selects id. Re-selecting the current song is a no-op. The index
// is written only under TrackIndex. A paused session starts playing; a
// playing session is never paused by this intent.
func (c *Controller) SelectSong(index int, id string, policy IndexPolicy) {
	snap := c.store.Snapshot()
	if id == snap.CurrentSongID {
		log.Debug().Str("song", id).Msg("Song already selected, ignoring")
		return
	}

	c.store.SetCurrentSongID(id)
	if policy == TrackIndex {
		c.store.SetCurrentSongIndex(index)
	}
	if !snap.IsPlaying {
		c.store.SetPlaying(true)
	}

	log.Info().
		Str("song", id).
		Int("index", index).
		Str("policy", policy.String()).
		Msg("Song selected")
}

// PlayAll restarts from the first song of the active list. It returns false
// and leaves the session unchanged when the list is empty.
func (c *Controller) PlayAll() bool {
	snap := c.store.Snapshot()
	if snap.Songs.Len() == 0 {
		log.Debug().Msg("Play all on empty list, ignoring")
		return false
	}

	first := snap.Songs.Songs[0]
	c.store.SetCurrentSongID(first.ID)
	c.store.SetCurrentSongIndex(0)
	c.store.SetPlaying(true)

	log.Info().Str("song", first.ID).Str("source", string(snap.Songs.Source)).Msg("Play all")
	return true
}

// Pause clears the play flag.
func (c *Controller) Pause() {
	c.store.SetPlaying(false)
}

// Resume sets the play flag if a song is selected.
func (c *Controller) Resume() bool {
	if !c.store.Snapshot().HasCurrentSong() {
		return false
	}
	c.store.SetPlaying(true)
	return true
}

// ToggleFavorite delegates to the favorites registry. Playback state is
// never touched.
func (c *Controller) ToggleFavorite(ctx context.Context, songID string) (bool, error) {
	return c.favorites.Toggle(ctx, songID, c.users)
}
