// Package mpd wraps the gompd client as the audio output device.
package mpd

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog/log"
)

// ErrNotConnected is returned by calls that need an open connection.
var ErrNotConnected = errors.New("mpd: not connected")

// Status is the subset of MPD status the player cares about.
type Status struct {
	State   string // "play", "pause" or "stop"
	SongPos int    // -1 when the queue is empty
	Audio   string // "samplerate:bits:channels"
	Volume  int
}

// Client wraps the MPD connection with reconnect-on-use.
type Client struct {
	mu       sync.Mutex
	client   *mpd.Client
	host     string
	port     int
	password string
}

// NewClient creates a client for host:port. Nothing is dialled until Connect
// or the first command.
func NewClient(host string, port int, password string) *Client {
	return &Client{
		host:     host,
		port:     port,
		password: password,
	}
}

// Addr returns the MPD address.
func (c *Client) Addr() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

// Connect establishes the connection to MPD.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked()
}

func (c *Client) connectLocked() error {
	addr := c.Addr()
	log.Info().Str("addr", addr).Msg("Connecting to MPD")

	client, err := mpd.DialAuthenticated("tcp", addr, c.password)
	if err != nil {
		return fmt.Errorf("failed to connect to MPD: %w", err)
	}

	c.client = client
	log.Info().Msg("Connected to MPD")
	return nil
}

// withConn runs fn on a live connection, reconnecting once if the current
// one has dropped.
func (c *Client) withConn(fn func(*mpd.Client) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		if err := c.client.Ping(); err != nil {
			log.Warn().Err(err).Msg("MPD connection lost, reconnecting...")
			c.client.Close()
			c.client = nil
		}
	}
	if c.client == nil {
		if err := c.connectLocked(); err != nil {
			return err
		}
	}
	return fn(c.client)
}

// Close closes the MPD connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}

// Ping checks the connection without reconnecting.
func (c *Client) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return ErrNotConnected
	}
	return c.client.Ping()
}

// Status returns the current player status.
func (c *Client) Status() (Status, error) {
	var out Status
	err := c.withConn(func(m *mpd.Client) error {
		attrs, err := m.Status()
		if err != nil {
			return err
		}
		out = parseStatus(attrs)
		return nil
	})
	return out, err
}

func parseStatus(attrs mpd.Attrs) Status {
	s := Status{
		State:   attrs["state"],
		SongPos: -1,
		Audio:   attrs["audio"],
	}
	if pos, err := strconv.Atoi(attrs["song"]); err == nil {
		s.SongPos = pos
	}
	if vol, err := strconv.Atoi(attrs["volume"]); err == nil {
		s.Volume = vol
	}
	return s
}

// PlayURI replaces the queue with uri and starts it.
func (c *Client) PlayURI(uri string) error {
	return c.withConn(func(m *mpd.Client) error {
		if err := m.Clear(); err != nil {
			return fmt.Errorf("clear queue: %w", err)
		}
		if err := m.Add(uri); err != nil {
			return fmt.Errorf("add %s: %w", uri, err)
		}
		return m.Play(0)
	})
}

// Play starts playback at pos. A negative pos resumes the current track.
func (c *Client) Play(pos int) error {
	return c.withConn(func(m *mpd.Client) error {
		if pos < 0 {
			return m.Play(-1)
		}
		return m.Play(pos)
	})
}

// Pause sets the pause state.
func (c *Client) Pause(pause bool) error {
	return c.withConn(func(m *mpd.Client) error {
		return m.Pause(pause)
	})
}

// Stop stops playback.
func (c *Client) Stop() error {
	return c.withConn(func(m *mpd.Client) error {
		return m.Stop()
	})
}

// Clear empties the queue.
func (c *Client) Clear() error {
	return c.withConn(func(m *mpd.Client) error {
		return m.Clear()
	})
}

// Add appends uri to the queue.
func (c *Client) Add(uri string) error {
	return c.withConn(func(m *mpd.Client) error {
		return m.Add(uri)
	})
}
