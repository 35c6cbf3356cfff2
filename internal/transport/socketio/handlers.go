package socketio

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-listen/internal/domain/catalog"
	"github.com/edumarques81/stellar-listen/internal/domain/listing"
	"github.com/edumarques81/stellar-listen/internal/domain/notify"
	"github.com/edumarques81/stellar-listen/internal/domain/session"
)

// MsgPlaylistsFailed is the toast shown when the playlists page cannot load.
const MsgPlaylistsFailed = "Error fetching playlists"

// replyFunc emits an event to the requesting client only.
type replyFunc func(event string, args ...any)

func (s *Server) getState(reply replyFunc) {
	if s.deps.Store == nil {
		return
	}
	reply("pushState", s.deps.Store.Snapshot().ToJSON())
}

func (s *Server) getListView(reply replyFunc, payload map[string]interface{}) {
	p, err := s.deps.Lists.Get(listing.Kind(getStringFromMap(payload, "list")))
	if err != nil {
		log.Warn().Err(err).Msg("getListView rejected")
		return
	}
	reply("pushListView", listViewPayload(p.View()))
}

// openList activates a list; the resulting views reach clients through the
// provider's change hook.
func (s *Server) openList(ctx context.Context, payload map[string]interface{}) {
	kind := listing.Kind(getStringFromMap(payload, "list"))
	scope := getStringFromMap(payload, "scope")

	view, err := s.deps.Lists.Activate(ctx, kind, scope)
	if err != nil {
		log.Warn().Err(err).Str("list", string(kind)).Str("scope", scope).Msg("openList failed")
		return
	}
	log.Debug().
		Str("list", string(kind)).
		Str("scope", scope).
		Int("songs", len(view.Songs)).
		Msg("List opened")
}

func (s *Server) selectSong(payload map[string]interface{}) {
	id := getStringFromMap(payload, "id")
	if id == "" {
		log.Warn().Interface("data", payload).Msg("selectSong without id")
		return
	}

	p, err := s.deps.Lists.Get(listing.Kind(getStringFromMap(payload, "list")))
	if err != nil {
		log.Warn().Err(err).Msg("selectSong rejected")
		return
	}
	index := getIntFromMap(payload, "index", session.NoIndex)
	s.deps.Controller.SelectSong(index, id, p.IndexPolicy())
}

func (s *Server) playAll() {
	if !s.deps.Controller.PlayAll() {
		log.Debug().Msg("playAll ignored, list is empty")
	}
}

func (s *Server) play() {
	if !s.deps.Controller.Resume() {
		log.Debug().Msg("play ignored, nothing selected")
	}
}

func (s *Server) pause() {
	s.deps.Controller.Pause()
}

// toggleFavorite errors are already reported by the registry toast.
func (s *Server) toggleFavorite(ctx context.Context, payload map[string]interface{}) {
	id := getStringFromMap(payload, "id")
	if id == "" {
		log.Warn().Interface("data", payload).Msg("toggleFavorite without id")
		return
	}
	added, err := s.deps.Controller.ToggleFavorite(ctx, id)
	if err != nil {
		log.Debug().Err(err).Str("song", id).Msg("toggleFavorite failed")
		return
	}
	log.Debug().Str("song", id).Bool("added", added).Msg("Favorite toggled")
}

func (s *Server) getFavorites(reply replyFunc) {
	if s.deps.Favorites == nil {
		return
	}
	reply("pushFavorites", favoritesPayload(s.deps.Favorites.IDs()))
}

func (s *Server) getPlaylists(ctx context.Context, reply replyFunc) {
	if s.deps.Playlists == nil {
		reply("pushPlaylists", []catalog.Playlist{})
		return
	}
	playlists, err := s.deps.Playlists.ListPlaylists(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list playlists")
		notify.Error(s.deps.Notifier, MsgPlaylistsFailed)
		return
	}
	if playlists == nil {
		playlists = []catalog.Playlist{}
	}
	reply("pushPlaylists", playlists)
}

func (s *Server) getOutputStatus(reply replyFunc) {
	if s.deps.Output == nil {
		reply("pushOutputStatus", map[string]interface{}{"state": "disabled"})
		return
	}
	reply("pushOutputStatus", s.deps.Output.Status())
}

func listViewPayload(view listing.View) listing.View {
	if view.Songs == nil {
		view.Songs = []catalog.Song{}
	}
	return view
}

func favoritesPayload(ids []string) map[string]interface{} {
	if ids == nil {
		ids = []string{}
	}
	return map[string]interface{}{"ids": ids}
}

// payloadOf returns the first event argument as an object, or nil.
func payloadOf(args []any) map[string]interface{} {
	if len(args) == 0 {
		return nil
	}
	m, _ := args[0].(map[string]interface{})
	return m
}

func getStringFromMap(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	v, _ := m[key].(string)
	return v
}

func getIntFromMap(m map[string]interface{}, key string, defaultVal int) int {
	if m == nil {
		return defaultVal
	}
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case int64:
		return int(v)
	}
	return defaultVal
}
