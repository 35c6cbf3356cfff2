// Package session holds the process-wide playback session: the active song
// list, the selected song and the play flag.
package session

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-listen/internal/domain/catalog"
)

// NoIndex marks an unset current song index.
const NoIndex = -1

// Snapshot is an immutable copy of the session state.
type Snapshot struct {
	Songs            catalog.SongList
	CurrentSongID    string // empty when nothing is selected
	CurrentSongIndex int    // NoIndex when unset
	IsPlaying        bool
}

// HasCurrentSong reports whether a song id is selected.
func (s Snapshot) HasCurrentSong() bool {
	return s.CurrentSongID != ""
}

// CurrentSong resolves CurrentSongID against the active list.
// The id may point at a song from a previous list, in which case ok is false.
func (s Snapshot) CurrentSong() (song catalog.Song, ok bool) {
	if s.CurrentSongID == "" {
		return catalog.Song{}, false
	}
	return s.Songs.Find(s.CurrentSongID)
}

// ToJSON returns the snapshot as a map suitable for the pushState event.
func (s Snapshot) ToJSON() map[string]interface{} {
	var currentID interface{}
	if s.CurrentSongID != "" {
		currentID = s.CurrentSongID
	}
	var currentIndex interface{}
	if s.CurrentSongIndex != NoIndex {
		currentIndex = s.CurrentSongIndex
	}

	songs := s.Songs.Songs
	if songs == nil {
		songs = []catalog.Song{}
	}

	return map[string]interface{}{
		"songs":            songs,
		"source":           string(s.Songs.Source),
		"currentSongId":    currentID,
		"currentSongIndex": currentIndex,
		"isPlaying":        s.IsPlaying,
	}
}

// Listener receives the state after every mutation.
type Listener func(Snapshot)

// Store is the canonical session state. It is safe for concurrent access.
// Every mutation is pushed to subscribers, in subscription order, on the
// goroutine that performed it. Mutations are delivered in the order they were
// applied; listeners must not mutate the store.
type Store struct {
	writeMu sync.Mutex

	mu               sync.RWMutex
	songs            catalog.SongList
	currentSongID    string
	currentSongIndex int
	isPlaying        bool

	subMu     sync.Mutex
	nextSubID int
	subs      []subscription
}

type subscription struct {
	id int
	fn Listener
}

// NewStore creates a session with an empty list, no selection and paused.
func NewStore() *Store {
	return &Store{
		currentSongIndex: NoIndex,
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Songs:            s.songs.Clone(),
		CurrentSongID:    s.currentSongID,
		CurrentSongIndex: s.currentSongIndex,
		IsPlaying:        s.isPlaying,
	}
}

// ReplaceList overwrites the active list. Selection and play flag are untouched.
func (s *Store) ReplaceList(list catalog.SongList) {
	s.mutate(func() {
		s.songs = list.Clone()
	})
	log.Debug().Str("source", string(list.Source)).Int("songs", list.Len()).Msg("Session list replaced")
}

// SetCurrentSongID selects a song by id. The index is not recomputed.
func (s *Store) SetCurrentSongID(id string) {
	s.mutate(func() {
		s.currentSongID = id
	})
}

// SetCurrentSongIndex sets the index pointer. No bounds check against the list.
func (s *Store) SetCurrentSongIndex(i int) {
	s.mutate(func() {
		s.currentSongIndex = i
	})
}

// SetPlaying sets the play flag.
func (s *Store) SetPlaying(playing bool) {
	s.mutate(func() {
		s.isPlaying = playing
	})
}

// Reset returns the session to its initial state (explicit navigation reset).
func (s *Store) Reset() {
	s.mutate(func() {
		s.songs = catalog.SongList{}
		s.currentSongID = ""
		s.currentSongIndex = NoIndex
		s.isPlaying = false
	})
}

// Subscribe registers fn for every future mutation and returns a func that
// removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) mutate(apply func()) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	apply()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.subMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}
}
