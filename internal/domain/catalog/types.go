// Package catalog defines the music catalog types shared by every domain package.
package catalog

import "strings"

// Song is a playable track as returned by the gateway.
// Songs are immutable once fetched; two copies with the same ID may carry
// different (stale) fields.
type Song struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Artist   string `json:"artist"`
	ImageURL string `json:"image"`
	AudioURL string `json:"file"`
}

// Source tags where a SongList came from.
type Source string

const (
	SourceNone      Source = ""
	SourceAll       Source = "all"
	SourceSearch    Source = "search"
	SourceFavorites Source = "favorites"
)

// AlbumSource returns the provenance tag for an album list.
func AlbumSource(name string) Source {
	return Source("album:" + name)
}

// PlaylistSource returns the provenance tag for a playlist list.
func PlaylistSource(name string) Source {
	return Source("playlist:" + name)
}

// Kind returns the part of the tag before the colon ("album" for "album:Blue").
func (s Source) Kind() string {
	kind, _, _ := strings.Cut(string(s), ":")
	return kind
}

// SongList is an ordered sequence of songs plus its provenance.
type SongList struct {
	Source Source
	Songs  []Song
}

// NewSongList copies songs into a new list.
func NewSongList(source Source, songs []Song) SongList {
	return SongList{Source: source, Songs: cloneSongs(songs)}
}

// Len returns the number of songs.
func (l SongList) Len() int {
	return len(l.Songs)
}

// IndexOf returns the position of the first song with the given id, or -1.
func (l SongList) IndexOf(id string) int {
	for i, song := range l.Songs {
		if song.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the first song with the given id.
func (l SongList) Find(id string) (Song, bool) {
	if i := l.IndexOf(id); i >= 0 {
		return l.Songs[i], true
	}
	return Song{}, false
}

// Clone returns a deep copy of the list.
func (l SongList) Clone() SongList {
	return SongList{Source: l.Source, Songs: cloneSongs(l.Songs)}
}

// IDs returns the song ids in list order.
func (l SongList) IDs() []string {
	ids := make([]string, len(l.Songs))
	for i, song := range l.Songs {
		ids[i] = song.ID
	}
	return ids
}

func cloneSongs(songs []Song) []Song {
	if songs == nil {
		return nil
	}
	out := make([]Song, len(songs))
	copy(out, songs)
	return out
}

// Album is a named group of songs.
type Album struct {
	Name  string `json:"name"`
	Image string `json:"image"`
	Songs []Song `json:"songs"`
}

// Playlist is the playlist header; its songs are fetched separately.
type Playlist struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// User is the logged-in account as stored on the client.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Gmail string `json:"gmail,omitempty"`
	Image string `json:"image,omitempty"`
	Token string `json:"token,omitempty"`
}

// UserProvider yields the current user, if any.
// A missing user means "not logged in".
type UserProvider interface {
	CurrentUser() (User, bool)
}

// StaticUser is a UserProvider over a fixed value. The zero value is logged out.
type StaticUser struct {
	User     User
	LoggedIn bool
}

// LoggedInAs returns a StaticUser for u.
func LoggedInAs(u User) StaticUser {
	return StaticUser{User: u, LoggedIn: true}
}

// CurrentUser implements UserProvider.
func (s StaticUser) CurrentUser() (User, bool) {
	if !s.LoggedIn || s.User.ID == "" {
		return User{}, false
	}
	return s.User, true
}

// RequireUser returns the current user or ErrAuthRequired.
func RequireUser(users UserProvider) (User, error) {
	if users == nil {
		return User{}, ErrAuthRequired
	}
	u, ok := users.CurrentUser()
	if !ok {
		return User{}, ErrAuthRequired
	}
	return u, nil
}

// SearchResult is what the gateway returns for a search term.
type SearchResult struct {
	Songs     []Song     `json:"songs"`
	Playlists []Playlist `json:"playlists"`
}
