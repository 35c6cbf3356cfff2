// Package socketio provides the Socket.io server that attached views talk to.
package socketio

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/edumarques81/stellar-listen/internal/audio"
	"github.com/edumarques81/stellar-listen/internal/domain/catalog"
	"github.com/edumarques81/stellar-listen/internal/domain/favorites"
	"github.com/edumarques81/stellar-listen/internal/domain/listing"
	"github.com/edumarques81/stellar-listen/internal/domain/notify"
	"github.com/edumarques81/stellar-listen/internal/domain/playback"
	"github.com/edumarques81/stellar-listen/internal/domain/session"
)

// DefaultDebounceWindow is how long state and favorites pushes are held back.
const DefaultDebounceWindow = 30 * time.Millisecond

// PlaylistLister lists the playlists shown on the playlists page.
type PlaylistLister interface {
	ListPlaylists(ctx context.Context) ([]catalog.Playlist, error)
}

// OutputReporter reports the audio output state.
type OutputReporter interface {
	Status() audio.Status
}

// Deps are the domain services the server drives.
type Deps struct {
	Store      *session.Store
	Lists      *listing.Set
	Controller *playback.Controller
	Favorites  *favorites.Registry
	Playlists  PlaylistLister
	Notifier   notify.Notifier
	Output     OutputReporter // nil when audio output is disabled
}

// Option configures a Server.
type Option func(*Server)

// WithAllowedOrigins sets the Socket.io CORS origins. Empty or ["*"] allows any.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithDebounceWindow overrides DefaultDebounceWindow.
func WithDebounceWindow(d time.Duration) Option {
	return func(s *Server) {
		s.window = d
	}
}

// Server handles Socket.io connections and events.
type Server struct {
	io   *socket.Server
	deps Deps

	origins []string
	window  time.Duration

	debouncer   *PushDebouncer
	unsubscribe func()

	// emit broadcasts to every client.
	emit func(event string, args ...any)

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	clients map[string]*socket.Socket
	closed  bool
}

var _ notify.Notifier = (*Server)(nil)

// NewServer creates a new Socket.io server and subscribes it to the session
// store, the favorites registry and the list providers.
func NewServer(deps Deps, opts ...Option) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		deps:    deps,
		window:  DefaultDebounceWindow,
		ctx:     ctx,
		cancel:  cancel,
		clients: make(map[string]*socket.Socket),
	}
	for _, opt := range opts {
		opt(s)
	}

	serverOpts := socket.DefaultServerOptions()
	serverOpts.SetPingTimeout(20 * time.Second)
	serverOpts.SetPingInterval(25 * time.Second)
	serverOpts.SetCors(&types.Cors{
		Origin:      corsOrigin(s.origins),
		Credentials: true,
	})

	s.io = socket.NewServer(nil, serverOpts)
	s.emit = func(event string, args ...any) {
		s.io.Emit(event, args...)
	}

	s.debouncer = NewPushDebouncer(s.window, s.BroadcastState, s.BroadcastFavorites)

	if deps.Store != nil {
		s.unsubscribe = deps.Store.Subscribe(func(session.Snapshot) {
			s.debouncer.Trigger(TopicState)
		})
	}
	if deps.Favorites != nil {
		deps.Favorites.Subscribe(func([]string) {
			s.debouncer.Trigger(TopicFavorites)
		})
	}
	if deps.Lists != nil {
		deps.Lists.OnChange(s.BroadcastListView)
	}

	s.setupHandlers()

	return s, nil
}

func corsOrigin(origins []string) any {
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		return "*"
	}
	return origins
}

// setupHandlers registers all Socket.io event handlers.
func (s *Server) setupHandlers() {
	s.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		clientID := string(client.Id())
		reply := func(event string, args ...any) {
			client.Emit(event, args...)
		}

		log.Info().Str("id", clientID).Msg("Client connected")

		s.mu.Lock()
		s.clients[clientID] = client
		s.mu.Unlock()

		// Initial state after the client has registered its listeners.
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.getState(reply)
			s.getFavorites(reply)
		}()

		client.On("disconnect", func(args ...any) {
			reason := ""
			if len(args) > 0 {
				if r, ok := args[0].(string); ok {
					reason = r
				}
			}
			log.Info().Str("id", clientID).Str("reason", reason).Msg("Client disconnected")

			s.mu.Lock()
			delete(s.clients, clientID)
			s.mu.Unlock()
		})

		client.On("getState", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("getState")
			s.getState(reply)
		})

		client.On("getListView", func(args ...any) {
			log.Debug().Str("id", clientID).Interface("data", args).Msg("getListView")
			s.getListView(reply, payloadOf(args))
		})

		client.On("openList", func(args ...any) {
			log.Debug().Str("id", clientID).Interface("data", args).Msg("openList")
			go s.openList(s.ctx, payloadOf(args))
		})

		client.On("selectSong", func(args ...any) {
			log.Debug().Str("id", clientID).Interface("data", args).Msg("selectSong")
			s.selectSong(payloadOf(args))
		})

		client.On("playAll", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("playAll")
			s.playAll()
		})

		client.On("play", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("play")
			s.play()
		})

		client.On("pause", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("pause")
			s.pause()
		})

		client.On("toggleFavorite", func(args ...any) {
			log.Debug().Str("id", clientID).Interface("data", args).Msg("toggleFavorite")
			go s.toggleFavorite(s.ctx, payloadOf(args))
		})

		client.On("getFavorites", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("getFavorites")
			s.getFavorites(reply)
		})

		client.On("getPlaylists", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("getPlaylists")
			go s.getPlaylists(s.ctx, reply)
		})

		client.On("getOutputStatus", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("getOutputStatus")
			s.getOutputStatus(reply)
		})
	})
}

// BroadcastState sends the session snapshot to all connected clients.
func (s *Server) BroadcastState() {
	if s.deps.Store == nil {
		return
	}
	state := s.deps.Store.Snapshot().ToJSON()
	s.emit("pushState", state)

	if log.Debug().Enabled() {
		data, _ := json.Marshal(state)
		log.Debug().RawJSON("state", data).Int("clients", s.ClientCount()).Msg("Broadcast state")
	}
}

// BroadcastFavorites sends the favorite ids to all connected clients.
func (s *Server) BroadcastFavorites() {
	if s.deps.Favorites == nil {
		return
	}
	s.emit("pushFavorites", favoritesPayload(s.deps.Favorites.IDs()))
}

// BroadcastListView sends a list view to all connected clients. Views are not
// debounced; every status transition reaches the clients.
func (s *Server) BroadcastListView(view listing.View) {
	s.emit("pushListView", listViewPayload(view))
}

// Notify implements notify.Notifier by emitting pushToastMessage.
func (s *Server) Notify(t notify.Toast) {
	s.emit("pushToastMessage", t)
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ServeHTTP implements http.Handler for the Socket.io server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.io.ServeHandler(nil).ServeHTTP(w, r)
}

// Close cancels in-flight handlers and closes the Socket.io server.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.debouncer.Stop()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.io.Close(nil)
	return nil
}
