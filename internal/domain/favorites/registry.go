// Package favorites keeps the client-side mirror of the user's favorite songs.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-listen/internal/domain/catalog"
	"github.com/edumarques81/stellar-listen/internal/domain/notify"
)

// Toast messages.
const (
	MsgAdded        = "Added to favorites"
	MsgRemoved      = "Removed from favorites"
	MsgUpdateFailed = "Failed to update favorites"
	MsgLoginAgain   = "User not found. Please log in again."
)

// Gateway is the subset of the REST gateway the registry needs.
type Gateway interface {
	GetFavorites(ctx context.Context, userID string) ([]catalog.Song, error)
	AddFavorite(ctx context.Context, songID, userID string) error
	RemoveFavorite(ctx context.Context, songID, userID string) error
}

// Listener receives the favorite ids after every change to the mirror.
type Listener func(ids []string)

// Registry is the eventually-consistent mirror of the gateway's favorite set.
// The mirror only changes after the gateway acknowledges a request; a
// failed request leaves it untouched and is not retried.
type Registry struct {
	gateway  Gateway
	notifier notify.Notifier

	mu    sync.RWMutex
	songs []catalog.Song

	subMu sync.Mutex
	subs  []Listener
}

// NewRegistry creates an empty registry.
func NewRegistry(gateway Gateway, notifier notify.Notifier) *Registry {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Registry{
		gateway:  gateway,
		notifier: notifier,
	}
}

// Load replaces the mirror wholesale with the gateway's favorites for the
// current user. If no user is logged in the mirror is cleared, no request is
// made and ErrAuthRequired is returned.
func (r *Registry) Load(ctx context.Context, users catalog.UserProvider) error {
	user, err := catalog.RequireUser(users)
	if err != nil {
		r.Clear()
		notify.Error(r.notifier, MsgLoginAgain)
		return err
	}

	songs, err := r.gateway.GetFavorites(ctx, user.ID)
	if err != nil {
		log.Error().Err(err).Str("user", user.ID).Msg("Failed to fetch favorite songs")
		return fmt.Errorf("load favorites: %w", err)
	}

	r.mu.Lock()
	r.songs = append([]catalog.Song(nil), songs...)
	r.mu.Unlock()

	log.Debug().Str("user", user.ID).Int("count", len(songs)).Msg("Favorites loaded")
	r.publish()
	return nil
}

// Clear empties the mirror, e.g. on logout. Listeners only hear about it
// when something was removed.
func (r *Registry) Clear() {
	r.mu.Lock()
	had := len(r.songs) > 0
	r.songs = nil
	r.mu.Unlock()

	if had {
		r.publish()
	}
}

// IsFavorite reports whether songID is in the mirror.
func (r *Registry) IsFavorite(songID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexLocked(songID) >= 0
}

// Songs returns a copy of the mirror. Entries added by Toggle are
// placeholders carrying only the id.
func (r *Registry) Songs() []catalog.Song {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]catalog.Song(nil), r.songs...)
}

// IDs returns the favorite ids in mirror order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.songs))
	for i, song := range r.songs {
		ids[i] = song.ID
	}
	return ids
}

// Toggle flips songID's membership through the gateway. It returns the
// membership after the call: on failure that is the unchanged membership.
func (r *Registry) Toggle(ctx context.Context, songID string, users catalog.UserProvider) (bool, error) {
	user, err := catalog.RequireUser(users)
	if err != nil {
		notify.Error(r.notifier, MsgLoginAgain)
		return r.IsFavorite(songID), err
	}

	if r.IsFavorite(songID) {
		if err := r.gateway.RemoveFavorite(ctx, songID, user.ID); err != nil {
			log.Error().Err(err).Str("song", songID).Msg("Failed to remove favorite")
			notify.Error(r.notifier, MsgUpdateFailed)
			return true, fmt.Errorf("remove favorite %s: %w", songID, err)
		}
		r.remove(songID)
		notify.Success(r.notifier, MsgRemoved)
		return false, nil
	}

	if err := r.gateway.AddFavorite(ctx, songID, user.ID); err != nil {
		log.Error().Err(err).Str("song", songID).Msg("Failed to add favorite")
		notify.Error(r.notifier, MsgUpdateFailed)
		return false, fmt.Errorf("add favorite %s: %w", songID, err)
	}
	r.insertPlaceholder(songID)
	notify.Success(r.notifier, MsgAdded)
	return true, nil
}

// Remove drops songID through the gateway without toggling. Removing a song
// that is not in the mirror still issues the request.
func (r *Registry) Remove(ctx context.Context, songID string, users catalog.UserProvider) error {
	user, err := catalog.RequireUser(users)
	if err != nil {
		notify.Error(r.notifier, MsgLoginAgain)
		return err
	}

	if err := r.gateway.RemoveFavorite(ctx, songID, user.ID); err != nil {
		notify.Error(r.notifier, "Failed to remove from favorites!")
		return fmt.Errorf("remove favorite %s: %w", songID, err)
	}
	r.remove(songID)
	notify.Success(r.notifier, "Song removed from favorites successfully")
	return nil
}

// Subscribe registers fn for every mirror change.
func (r *Registry) Subscribe(fn Listener) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.subs = append(r.subs, fn)
}

func (r *Registry) insertPlaceholder(songID string) {
	r.mu.Lock()
	if r.indexLocked(songID) < 0 {
		r.songs = append(r.songs, catalog.Song{ID: songID})
	}
	r.mu.Unlock()
	r.publish()
}

func (r *Registry) remove(songID string) {
	r.mu.Lock()
	kept := r.songs[:0:0]
	for _, song := range r.songs {
		if song.ID != songID {
			kept = append(kept, song)
		}
	}
	r.songs = kept
	r.mu.Unlock()
	r.publish()
}

func (r *Registry) indexLocked(songID string) int {
	for i, song := range r.songs {
		if song.ID == songID {
			return i
		}
	}
	return -1
}

func (r *Registry) publish() {
	ids := r.IDs()

	r.subMu.Lock()
	subs := append([]Listener(nil), r.subs...)
	r.subMu.Unlock()

	for _, fn := range subs {
		fn(ids)
	}
}

// IsAuthError reports whether err came from a missing user.
func IsAuthError(err error) bool {
	return errors.Is(err, catalog.ErrAuthRequired)
}
