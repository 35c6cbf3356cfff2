package playback_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/edumarques81/stellar-listen/internal/domain/catalog"
	"github.com/edumarques81/stellar-listen/internal/domain/favorites"
	"github.com/edumarques81/stellar-listen/internal/domain/playback"
	"github.com/edumarques81/stellar-listen/internal/domain/session"
)

func songs(ids ...string) []catalog.Song {
	out := make([]catalog.Song, len(ids))
	for i, id := range ids {
		out[i] = catalog.Song{ID: id}
	}
	return out
}

func newController(ids ...string) (*playback.Controller, *session.Store) {
	store := session.NewStore()
	store.ReplaceList(catalog.NewSongList(catalog.SourceAll, songs(ids...)))
	return playback.NewController(store, nil, catalog.StaticUser{}), store
}

type fakeFavorites struct {
	calls []string
}

func (f *fakeFavorites) Toggle(ctx context.Context, songID string, users catalog.UserProvider) (bool, error) {
	f.calls = append(f.calls, songID)
	return true, nil
}

func TestSelectSongPolicies(t *testing.T) {
	tests := []struct {
		name          string
		policy        playback.IndexPolicy
		expectedIndex int
	}{
		{"track index", playback.TrackIndex, 2},
		{"keep index", playback.KeepIndex, session.NoIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, store := newController("A", "B", "C")
			ctrl.SelectSong(2, "C", tt.policy)

			snap := store.Snapshot()
			if snap.CurrentSongID != "C" {
				t.Errorf("expected current song C, got %q", snap.CurrentSongID)
			}
			if snap.CurrentSongIndex != tt.expectedIndex {
				t.Errorf("expected index %d, got %d", tt.expectedIndex, snap.CurrentSongIndex)
			}
			if !snap.IsPlaying {
				t.Error("expected selecting a song to start playback")
			}
		})
	}
}

func TestSelectCurrentSongIsNoop(t *testing.T) {
	policies := []playback.IndexPolicy{playback.KeepIndex, playback.TrackIndex}

	for _, policy := range policies {
		t.Run(policy.String(), func(t *testing.T) {
			ctrl, store := newController("A", "B", "C")
			ctrl.SelectSong(1, "B", playback.TrackIndex)
			ctrl.Pause()

			before := store.Snapshot()
			notified := 0
			unsubscribe := store.Subscribe(func(session.Snapshot) { notified++ })
			defer unsubscribe()

			ctrl.SelectSong(0, "B", policy)

			if after := store.Snapshot(); !reflect.DeepEqual(before, after) {
				t.Errorf("expected state unchanged, before %+v after %+v", before, after)
			}
			if notified != 0 {
				t.Errorf("expected no mutations, got %d", notified)
			}
		})
	}
}

func TestSelectSongNeverPauses(t *testing.T) {
	ctrl, store := newController("A", "B")
	ctrl.SelectSong(0, "A", playback.TrackIndex)
	ctrl.SelectSong(1, "B", playback.TrackIndex)

	if !store.Snapshot().IsPlaying {
		t.Error("expected session to keep playing")
	}
}

func TestKeepIndexLeavesPriorIndex(t *testing.T) {
	ctrl, store := newController("A", "B", "C")
	ctrl.PlayAll()
	ctrl.SelectSong(2, "C", playback.KeepIndex)

	snap := store.Snapshot()
	if snap.CurrentSongID != "C" || snap.CurrentSongIndex != 0 {
		t.Errorf("expected id C with stale index 0, got %q/%d", snap.CurrentSongID, snap.CurrentSongIndex)
	}
}

func TestPlayAllRestartsFromFirst(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*playback.Controller)
	}{
		{"from idle", func(*playback.Controller) {}},
		{"mid list", func(c *playback.Controller) { c.SelectSong(2, "C", playback.TrackIndex) }},
		{"paused", func(c *playback.Controller) {
			c.SelectSong(1, "B", playback.TrackIndex)
			c.Pause()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, store := newController("A", "B", "C")
			tt.setup(ctrl)

			if !ctrl.PlayAll() {
				t.Fatal("expected PlayAll to act on a non-empty list")
			}
			snap := store.Snapshot()
			if snap.CurrentSongID != "A" || snap.CurrentSongIndex != 0 || !snap.IsPlaying {
				t.Errorf("expected A/0/playing, got %q/%d/%v", snap.CurrentSongID, snap.CurrentSongIndex, snap.IsPlaying)
			}
		})
	}
}

func TestPlayAllOnEmptyListIsNoop(t *testing.T) {
	ctrl, store := newController()
	before := store.Snapshot()

	if ctrl.PlayAll() {
		t.Error("expected PlayAll to report no-op")
	}
	if after := store.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Errorf("expected unchanged state, got %+v", after)
	}
}

func TestPauseResume(t *testing.T) {
	ctrl, store := newController("A")

	if ctrl.Resume() {
		t.Error("expected resume without a selection to fail")
	}

	ctrl.SelectSong(0, "A", playback.TrackIndex)
	ctrl.Pause()
	if store.Snapshot().IsPlaying {
		t.Error("expected paused")
	}
	if !ctrl.Resume() || !store.Snapshot().IsPlaying {
		t.Error("expected resume to start playback")
	}
}

func TestToggleFavoriteDoesNotTouchPlayback(t *testing.T) {
	store := session.NewStore()
	store.ReplaceList(catalog.NewSongList(catalog.SourceAll, songs("A", "B")))
	favs := &fakeFavorites{}
	ctrl := playback.NewController(store, favs, catalog.StaticUser{})
	ctrl.SelectSong(0, "A", playback.TrackIndex)

	before := store.Snapshot()
	if _, err := ctrl.ToggleFavorite(context.Background(), "B"); err != nil {
		t.Fatalf("ToggleFavorite failed: %v", err)
	}

	if !reflect.DeepEqual(before, store.Snapshot()) {
		t.Error("toggle favorite should not change the session")
	}
	if !reflect.DeepEqual(favs.calls, []string{"B"}) {
		t.Errorf("expected one delegated call, got %v", favs.calls)
	}
}

type okGateway struct{}

func (okGateway) GetFavorites(context.Context, string) ([]catalog.Song, error) { return nil, nil }
func (okGateway) AddFavorite(context.Context, string, string) error { return nil }
func (okGateway) RemoveFavorite(context.Context, string, string) error { return nil }

func TestToggleFavoriteTwiceRoundTrips(t *testing.T) {
	store := session.NewStore()
	reg := favorites.NewRegistry(okGateway{}, nil)
	users := catalog.LoggedInAs(catalog.User{ID: "u1"})
	ctrl := playback.NewController(store, reg, users)

	before := reg.IsFavorite("S1")
	_, _ = ctrl.ToggleFavorite(context.Background(), "S1")
	_, _ = ctrl.ToggleFavorite(context.Background(), "S1")

	if reg.IsFavorite("S1") != before {
		t.Error("expected two toggles to restore membership")
	}
}
