// Package listing loads named song collections and publishes them as the
// active session list.
package listing

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-listen/internal/domain/catalog"
	"github.com/edumarques81/stellar-listen/internal/domain/notify"
	"github.com/edumarques81/stellar-listen/internal/domain/playback"
	"github.com/edumarques81/stellar-listen/internal/domain/session"
)

// Kind names a list variant.
type Kind string

const (
	KindAll       Kind = "all"
	KindAlbum     Kind = "album"
	KindPlaylist  Kind = "playlist"
	KindSearch    Kind = "search"
	KindFavorites Kind = "favorites"
)

// Status is the display state of a list view.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// FetchFunc loads the songs for scope (album name, playlist name, search term).
type FetchFunc func(ctx context.Context, scope string) ([]catalog.Song, error)

// Config describes one list variant.
type Config struct {
	Kind         Kind
	Source       func(scope string) catalog.Source
	Fetch        FetchFunc
	Shuffle      bool
	IndexPolicy  playback.IndexPolicy
	ErrorMessage string

	// FetchLoadsFavorites is set when Fetch already refreshes the favorites
	// mirror, so activation skips the separate load.
	FetchLoadsFavorites bool
}

// View is what a list view renders.
type View struct {
	Kind         Kind           `json:"list"`
	Scope        string         `json:"scope"`
	Status       Status         `json:"status"`
	Songs        []catalog.Song `json:"songs"`
	Error        string         `json:"error,omitempty"`
	FavoritesErr string         `json:"favoritesError,omitempty"`
}

// FavoritesLoader refreshes the favorites mirror.
type FavoritesLoader interface {
	Load(ctx context.Context, users catalog.UserProvider) error
}

// Provider runs one list variant against the session store.
//
// Activations are not serialized or cancelled: when two overlap, whichever
// fetch resolves last overwrites the session list.
type Provider struct {
	cfg       Config
	store     *session.Store
	favorites FavoritesLoader
	users     catalog.UserProvider
	notifier  notify.Notifier
	shuffle   func([]catalog.Song)

	mu       sync.RWMutex
	view     View
	onChange []func(View)
}

// Option customizes a Provider.
type Option func(*Provider)

// WithShuffler replaces the random shuffle.
func WithShuffler(fn func([]catalog.Song)) Option {
	return func(p *Provider) {
		p.shuffle = fn
	}
}

// NewProvider creates a provider for cfg.
func NewProvider(cfg Config, store *session.Store, favs FavoritesLoader, users catalog.UserProvider, notifier notify.Notifier, opts ...Option) *Provider {
	if notifier == nil {
		notifier = notify.Discard
	}
	p := &Provider{
		cfg:       cfg,
		store:     store,
		favorites: favs,
		users:     users,
		notifier:  notifier,
		shuffle:   shuffleSongs,
		view:      View{Kind: cfg.Kind, Status: StatusIdle, Songs: []catalog.Song{}},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Kind returns the variant.
func (p *Provider) Kind() Kind { return p.cfg.Kind }

// IndexPolicy returns how selections from this list move the index.
func (p *Provider) IndexPolicy() playback.IndexPolicy { return p.cfg.IndexPolicy }

// View returns the current view.
func (p *Provider) View() View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneView(p.view)
}

// OnChange registers fn for every view update.
func (p *Provider) OnChange(fn func(View)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = append(p.onChange, fn)
}

// Activate fetches scope, publishes it as the session list and refreshes
// favorites. On fetch failure the view shows an error with an empty list and
// the session is left untouched. A favorites failure does not fail the list.
func (p *Provider) Activate(ctx context.Context, scope string) (View, error) {
	p.setView(View{Kind: p.cfg.Kind, Scope: scope, Status: StatusLoading, Songs: []catalog.Song{}})

	var (
		wg     sync.WaitGroup
		favErr error
	)
	if !p.cfg.FetchLoadsFavorites && p.favorites != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			favErr = p.favorites.Load(ctx, p.users)
		}()
	}

	songs, err := p.cfg.Fetch(ctx, scope)
	if err != nil {
		wg.Wait()
		log.Error().Err(err).Str("list", string(p.cfg.Kind)).Str("scope", scope).Msg("Failed to fetch list")
		if !errors.Is(err, catalog.ErrAuthRequired) {
			notify.Error(p.notifier, p.cfg.ErrorMessage)
		}
		view := View{
			Kind:         p.cfg.Kind,
			Scope:        scope,
			Status:       StatusError,
			Songs:        []catalog.Song{},
			Error:        p.cfg.ErrorMessage,
			FavoritesErr: errString(favErr),
		}
		p.setView(view)
		return view, err
	}

	songs = append([]catalog.Song(nil), songs...)
	if p.cfg.Shuffle {
		p.shuffle(songs)
	}

	p.store.ReplaceList(catalog.NewSongList(p.cfg.Source(scope), songs))
	wg.Wait()
	if favErr != nil {
		log.Warn().Err(favErr).Str("list", string(p.cfg.Kind)).Msg("Favorites unavailable for list")
	}

	view := View{
		Kind:         p.cfg.Kind,
		Scope:        scope,
		Status:       StatusReady,
		Songs:        songs,
		FavoritesErr: errString(favErr),
	}
	p.setView(view)

	log.Info().Str("list", string(p.cfg.Kind)).Str("scope", scope).Int("songs", len(songs)).Msg("List activated")
	return cloneView(view), nil
}

func (p *Provider) setView(v View) {
	p.mu.Lock()
	p.view = v
	listeners := append([]func(View){}, p.onChange...)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(cloneView(v))
	}
}

func cloneView(v View) View {
	v.Songs = append([]catalog.Song{}, v.Songs...)
	return v
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func shuffleSongs(songs []catalog.Song) {
	rand.Shuffle(len(songs), func(i, j int) {
		songs[i], songs[j] = songs[j], songs[i]
	})
}
