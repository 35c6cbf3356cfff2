package listing

import (
	"context"
	"fmt"
	"strings"

	"github.com/edumarques81/stellar-listen/internal/domain/catalog"
	"github.com/edumarques81/stellar-listen/internal/domain/notify"
	"github.com/edumarques81/stellar-listen/internal/domain/playback"
	"github.com/edumarques81/stellar-listen/internal/domain/session"
)

// Error messages shown when a list fails to load.
const (
	MsgSongsFailed     = "Error fetching songs"
	MsgAlbumFailed     = "Error fetching album and songs."
	MsgPlaylistFailed  = "Error fetching playlist"
	MsgFavoritesFailed = "Failed to fetch favorite songs."
)

// Catalog is the read side of the gateway used by the list variants.
type Catalog interface {
	GetAllSongs(ctx context.Context) ([]catalog.Song, error)
	GetAlbum(ctx context.Context, name string) (catalog.Album, error)
	GetPlaylist(ctx context.Context, name string) (catalog.Playlist, []catalog.Song, error)
	Search(ctx context.Context, term string) (catalog.SearchResult, error)
}

// FavoritesSource is the favorites mirror as seen by the favorites list.
type FavoritesSource interface {
	FavoritesLoader
	Songs() []catalog.Song
}

// AllSongs shuffles the full catalog once per activation.
func AllSongs(c Catalog) Config {
	return Config{
		Kind:   KindAll,
		Source: func(string) catalog.Source { return catalog.SourceAll },
		Fetch: func(ctx context.Context, _ string) ([]catalog.Song, error) {
			return c.GetAllSongs(ctx)
		},
		Shuffle:      true,
		IndexPolicy:  playback.KeepIndex,
		ErrorMessage: MsgSongsFailed,
	}
}

// AlbumSongs lists the songs of the album named by scope.
func AlbumSongs(c Catalog) Config {
	return Config{
		Kind:   KindAlbum,
		Source: catalog.AlbumSource,
		Fetch: func(ctx context.Context, name string) ([]catalog.Song, error) {
			album, err := c.GetAlbum(ctx, name)
			if err != nil {
				return nil, err
			}
			return album.Songs, nil
		},
		IndexPolicy:  playback.TrackIndex,
		ErrorMessage: MsgAlbumFailed,
	}
}

// PlaylistSongs lists the songs of the playlist named by scope.
func PlaylistSongs(c Catalog) Config {
	return Config{
		Kind:   KindPlaylist,
		Source: catalog.PlaylistSource,
		Fetch: func(ctx context.Context, name string) ([]catalog.Song, error) {
			_, songs, err := c.GetPlaylist(ctx, name)
			return songs, err
		},
		IndexPolicy:  playback.TrackIndex,
		ErrorMessage: MsgPlaylistFailed,
	}
}

// SearchResults lists songs whose name contains the search term.
func SearchResults(c Catalog) Config {
	return Config{
		Kind:   KindSearch,
		Source: func(string) catalog.Source { return catalog.SourceSearch },
		Fetch: func(ctx context.Context, term string) ([]catalog.Song, error) {
			result, err := c.Search(ctx, term)
			if err != nil {
				return nil, err
			}
			return FilterByName(result.Songs, term), nil
		},
		IndexPolicy:  playback.KeepIndex,
		ErrorMessage: MsgSongsFailed,
	}
}

// FavoriteSongs lists the user's favorites.
func FavoriteSongs(favs FavoritesSource, users catalog.UserProvider) Config {
	return Config{
		Kind:   KindFavorites,
		Source: func(string) catalog.Source { return catalog.SourceFavorites },
		Fetch: func(ctx context.Context, _ string) ([]catalog.Song, error) {
			if err := favs.Load(ctx, users); err != nil {
				return nil, err
			}
			return favs.Songs(), nil
		},
		IndexPolicy:         playback.TrackIndex,
		ErrorMessage:        MsgFavoritesFailed,
		FetchLoadsFavorites: true,
	}
}

// FilterByName keeps songs whose name contains term, ignoring case.
// An empty term keeps everything.
func FilterByName(songs []catalog.Song, term string) []catalog.Song {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]catalog.Song, 0, len(songs))
	for _, song := range songs {
		if term == "" || strings.Contains(strings.ToLower(song.Name), term) {
			out = append(out, song)
		}
	}
	return out
}

// Set holds one provider per kind.
type Set struct {
	providers map[Kind]*Provider
}

// NewSet builds the five list variants over the same store and favorites.
func NewSet(c Catalog, store *session.Store, favs FavoritesSource, users catalog.UserProvider, notifier notify.Notifier, opts ...Option) *Set {
	configs := []Config{
		AllSongs(c),
		AlbumSongs(c),
		PlaylistSongs(c),
		SearchResults(c),
		FavoriteSongs(favs, users),
	}

	s := &Set{providers: make(map[Kind]*Provider, len(configs))}
	for _, cfg := range configs {
		s.providers[cfg.Kind] = NewProvider(cfg, store, favs, users, notifier, opts...)
	}
	return s
}

// Get returns the provider for kind.
func (s *Set) Get(kind Kind) (*Provider, error) {
	p, ok := s.providers[kind]
	if !ok {
		return nil, fmt.Errorf("unknown list %q", kind)
	}
	return p, nil
}

// Activate activates the provider for kind.
func (s *Set) Activate(ctx context.Context, kind Kind, scope string) (View, error) {
	p, err := s.Get(kind)
	if err != nil {
		return View{}, err
	}
	return p.Activate(ctx, scope)
}

// OnChange registers fn on every provider.
func (s *Set) OnChange(fn func(View)) {
	for _, p := range s.providers {
		p.OnChange(fn)
	}
}
