package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/edumarques81/stellar-listen/internal/domain/catalog"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := New(WithBaseURL(server.URL+"/api"), WithTimeout(5*time.Second))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBaseURLFor(t *testing.T) {
	if BaseURLFor(true) != ProductionBaseURL {
		t.Errorf("expected production URL, got %s", BaseURLFor(true))
	}
	if BaseURLFor(false) != DevelopmentBaseURL {
		t.Errorf("expected development URL, got %s", BaseURLFor(false))
	}
	if got := New(WithBaseURL("http://example.com/api")).BaseURL(); got != "http://example.com/api/" {
		t.Errorf("expected trailing slash, got %s", got)
	}
}

func TestGetAllSongs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/songs/songs" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
		w.Write([]byte(`{"songs":[{"_id":"1","name":"One","artist":"A","image":"i.jpg","file":"1.mp3"}]}`))
	})

	songs, err := c.GetAllSongs(context.Background())
	if err != nil {
		t.Fatalf("GetAllSongs failed: %v", err)
	}
	expected := catalog.Song{ID: "1", Name: "One", Artist: "A", ImageURL: "i.jpg", AudioURL: "1.mp3"}
	if len(songs) != 1 || songs[0] != expected {
		t.Errorf("expected %+v, got %+v", expected, songs)
	}
}

func TestGetAlbumAndPlaylist(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/albums/Kind of Blue":
			w.Write([]byte(`{"album":{"name":"Kind of Blue","image":"kob.jpg","songs":[{"_id":"a1"}]}}`))
		case "/api/playlists/Road":
			w.Write([]byte(`{"playlist":{"_id":"p1","name":"Road"},"songs":[{"_id":"s1"},{"_id":"s2"}]}`))
		case "/api/playlists/allPlaylist":
			w.Write([]byte(`{"playlists":[{"_id":"p1","name":"Road"}]}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	album, err := c.GetAlbum(ctx, "Kind of Blue")
	if err != nil {
		t.Fatalf("GetAlbum failed: %v", err)
	}
	if album.Name != "Kind of Blue" || len(album.Songs) != 1 {
		t.Errorf("unexpected album %+v", album)
	}

	playlist, songs, err := c.GetPlaylist(ctx, "Road")
	if err != nil {
		t.Fatalf("GetPlaylist failed: %v", err)
	}
	if playlist.ID != "p1" || len(songs) != 2 {
		t.Errorf("unexpected playlist %+v %+v", playlist, songs)
	}

	playlists, err := c.ListPlaylists(ctx)
	if err != nil || len(playlists) != 1 {
		t.Errorf("expected one playlist, got %v (%v)", playlists, err)
	}
}

func TestQueryParams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/getFavorites":
			if r.URL.Query().Get("userId") != "u1" {
				t.Errorf("expected userId u1, got %q", r.URL.Query().Get("userId"))
			}
			w.Write([]byte(`{"favoriteSongs":[{"_id":"f1"}]}`))
		case "/api/songs/search":
			if r.URL.Query().Get("query") != "moon" {
				t.Errorf("expected query moon, got %q", r.URL.Query().Get("query"))
			}
			w.Write([]byte(`{"songs":[{"_id":"s1","name":"Moon"}],"playlists":[]}`))
		}
	})

	favs, err := c.GetFavorites(context.Background(), "u1")
	if err != nil || len(favs) != 1 || favs[0].ID != "f1" {
		t.Errorf("unexpected favorites %v (%v)", favs, err)
	}
	result, err := c.Search(context.Background(), "moon")
	if err != nil || len(result.Songs) != 1 {
		t.Errorf("unexpected search result %+v (%v)", result, err)
	}
}

func TestFavoriteMutations(t *testing.T) {
	tests := []struct {
		name   string
		call   func(*Client) error
		method string
		path   string
	}{
		{"add", func(c *Client) error { return c.AddFavorite(context.Background(), "s1", "u1") }, http.MethodPost, "/api/users/addFavorite"},
		{"remove", func(c *Client) error { return c.RemoveFavorite(context.Background(), "s1", "u1") }, http.MethodDelete, "/api/users/removeFavorite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != tt.method || r.URL.Path != tt.path {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("expected JSON content type, got %q", ct)
				}
				var body favoriteRequest
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Errorf("decode body: %v", err)
				}
				if body.SongID != "s1" || body.UserID != "u1" {
					t.Errorf("unexpected body %+v", body)
				}
				w.WriteHeader(http.StatusOK)
			})

			if err := tt.call(c); err != nil {
				t.Errorf("expected success, got %v", err)
			}
		})
	}
}

func TestStatusErrorIsNetwork(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	})

	err := c.AddFavorite(context.Background(), "s1", "u1")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError || statusErr.Message != "boom" {
		t.Errorf("unexpected status error %+v", statusErr)
	}
	if !catalog.IsNetwork(err) {
		t.Error("expected status error to match ErrNetwork")
	}
}

func TestTransportErrorIsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := New(WithBaseURL(url), WithTimeout(time.Second))
	_, err := c.GetAllSongs(context.Background())
	if !errors.Is(err, catalog.ErrNetwork) {
		t.Errorf("expected network error, got %v", err)
	}
}

func TestCreateAlbumSkipsSongsWithoutFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		form := r.MultipartForm
		if form.Value["name"][0] != "Blue" || form.Value["image"][0] != "blue.jpg" {
			t.Errorf("unexpected album fields %v", form.Value)
		}
		if _, ok := form.Value["songs[0][name]"]; ok {
			t.Error("song without a file should be skipped")
		}
		if form.Value["songs[1][name]"][0] != "Two" {
			t.Errorf("expected songs[1][name] Two, got %v", form.Value["songs[1][name]"])
		}
		files := form.File["songs[1][file]"]
		if len(files) != 1 || files[0].Filename != "two.mp3" {
			t.Errorf("expected songs[1][file] two.mp3, got %v", files)
			return
		}
		f, _ := files[0].Open()
		data, _ := io.ReadAll(f)
		if string(data) != "audio" {
			t.Errorf("unexpected file content %q", data)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"album":{"name":"Blue"}}`))
	})

	album, err := c.CreateAlbum(context.Background(), catalog.AlbumUpload{
		Name:     "Blue",
		ImageURL: "blue.jpg",
		Songs: []catalog.SongUpload{
			{Name: "One"},
			{Name: "Two", Artist: "B", File: &catalog.Attachment{Filename: "two.mp3", Data: []byte("audio")}},
		},
	})
	if err != nil {
		t.Fatalf("CreateAlbum failed: %v", err)
	}
	if album.Name != "Blue" {
		t.Errorf("expected album Blue, got %+v", album)
	}
}

func TestCreateSong(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/songs/createsongs" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if r.FormValue("artist") != "A" {
			t.Errorf("expected artist A, got %q", r.FormValue("artist"))
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("expected file part: %v", err)
		}
		w.Write([]byte(`{"message":"Song created"}`))
	})

	msg, err := c.CreateSong(context.Background(), catalog.SongUpload{
		Name:     "One",
		ImageURL: "one.jpg",
		Artist:   "A",
		File:     &catalog.Attachment{Filename: "one.mp3", Data: []byte("x")},
	})
	if err != nil || msg != "Song created" {
		t.Errorf("expected message, got %q (%v)", msg, err)
	}
}

func TestSignup(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
		wantID  string
	}{
		{"created", http.StatusCreated, `{"result":{"_id":"u1","name":"Ana"}}`, false, "u1"},
		{"ok is not created", http.StatusOK, `{"message":"exists"}`, true, ""},
		{"conflict", http.StatusConflict, `{"message":"User already exists"}`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseMultipartForm(1 << 20); err != nil {
					t.Errorf("parse multipart: %v", err)
					return
				}
				if r.FormValue("gmail") != "ana@example.com" {
					t.Errorf("unexpected gmail %q", r.FormValue("gmail"))
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			user, err := c.Signup(context.Background(), catalog.SignupForm{Name: "Ana", Gmail: "ana@example.com", Password: "pw"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if user.ID != tt.wantID {
				t.Errorf("expected user id %q, got %q", tt.wantID, user.ID)
			}
		})
	}
}
