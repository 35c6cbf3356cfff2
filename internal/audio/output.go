package audio

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-listen/internal/domain/session"
	"github.com/edumarques81/stellar-listen/internal/infra/mpd"
)

// Device is the playback device the output drives.
type Device interface {
	PlayURI(uri string) error
	Play(pos int) error
	Pause(pause bool) error
	Stop() error
	Status() (mpd.Status, error)
}

var _ Device = (*mpd.Client)(nil)

// Status is the output state exposed to views.
type Status struct {
	SongID string  `json:"songId,omitempty"`
	State  string  `json:"state"`
	Locked bool    `json:"locked"` // device held for playback
	Format *Format `json:"format"`
	Error  string  `json:"error,omitempty"`
}

// target is what the device should be doing. An empty uri means stopped.
type target struct {
	songID  string
	uri     string
	playing bool
}

// Output follows session snapshots and reconciles the device against the
// latest one. Device calls run on a dedicated goroutine so session mutations
// never wait on I/O; snapshots observed while the device is busy collapse
// into the newest.
type Output struct {
	device Device

	mu          sync.Mutex
	closed      bool
	sessionSong string // current song id as the session reports it
	desired     target
	lastErr     error
	wake        chan struct{}
	done        chan struct{}
	unsubscribe func()

	applied target // owned by the worker
}

// NewOutput creates an output for device and starts its worker.
func NewOutput(device Device) *Output {
	o := &Output{
		device: device,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go o.run()
	return o
}

// Follow subscribes the output to store.
func (o *Output) Follow(store *session.Store) {
	unsubscribe := store.Subscribe(o.Observe)
	o.mu.Lock()
	o.unsubscribe = unsubscribe
	o.mu.Unlock()
}

// Observe records snap as the desired device state. A selected song that is
// missing from the active list, or has no audio URL, leaves the loaded song as is.
func (o *Output) Observe(snap session.Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	next := o.desired
	next.playing = snap.IsPlaying
	if snap.CurrentSongID != o.sessionSong {
		o.sessionSong = snap.CurrentSongID
		if snap.CurrentSongID == "" {
			next = target{playing: snap.IsPlaying}
		} else if song, ok := snap.CurrentSong(); ok && song.AudioURL != "" {
			next.songID, next.uri = song.ID, song.AudioURL
		} else {
			log.Debug().Str("song", snap.CurrentSongID).Msg("Selected song not in active list, output unchanged")
		}
	}
	if next == o.desired {
		return
	}
	o.desired = next

	select {
	case o.wake <- struct{}{}:
	default: // worker already signalled, it reads the newest target
	}
}

func (o *Output) run() {
	defer close(o.done)
	for range o.wake {
		o.reconcile()
	}
}

func (o *Output) reconcile() {
	o.mu.Lock()
	want := o.desired
	o.mu.Unlock()

	err := o.apply(want)

	o.mu.Lock()
	o.lastErr = err
	o.mu.Unlock()
	if err != nil {
		log.Error().Err(err).Str("song", want.songID).Bool("playing", want.playing).Msg("Audio output command failed")
	}
}

// apply drives the device from o.applied to want. applied only advances past
// calls that succeeded, so a failed step is retried on the next snapshot.
func (o *Output) apply(want target) error {
	switch {
	case want.uri == "" && o.applied.uri != "":
		if err := o.device.Stop(); err != nil {
			return err
		}
		o.applied = target{playing: want.playing}

	case want.uri != o.applied.uri:
		log.Info().Str("song", want.songID).Str("uri", want.uri).Msg("Loading song on output")
		if err := o.device.PlayURI(want.uri); err != nil {
			return err
		}
		o.applied = target{songID: want.songID, uri: want.uri, playing: true}
	}

	if want.playing == o.applied.playing {
		return nil
	}
	var err error
	if want.playing {
		err = o.device.Play(-1)
	} else {
		err = o.device.Pause(true)
	}
	if err != nil {
		return err
	}
	o.applied.playing = want.playing
	return nil
}

// Status queries the device.
func (o *Output) Status() Status {
	o.mu.Lock()
	out := Status{SongID: o.sessionSong}
	if o.lastErr != nil {
		out.Error = o.lastErr.Error()
	}
	o.mu.Unlock()

	st, err := o.device.Status()
	if err != nil {
		out.State = "unavailable"
		out.Error = err.Error()
		return out
	}
	out.State = st.State
	out.Locked = st.State == "play"
	out.Format = ParseFormat(st.Audio)
	return out
}

// Close unsubscribes, applies the pending target and stops the worker.
func (o *Output) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	unsubscribe := o.unsubscribe
	close(o.wake)
	o.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	<-o.done
}
