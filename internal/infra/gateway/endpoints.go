package gateway

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/edumarques81/stellar-listen/internal/domain/catalog"
)

type favoriteRequest struct {
	SongID string `json:"songId"`
	UserID string `json:"userId"`
}

// GetAllSongs returns the full catalog in server order.
func (c *Client) GetAllSongs(ctx context.Context) ([]catalog.Song, error) {
	var out struct {
		Songs []catalog.Song `json:"songs"`
	}
	if err := c.getJSON(ctx, "songs/songs", nil, &out); err != nil {
		return nil, err
	}
	return out.Songs, nil
}

// GetAlbum returns the album named name with its songs.
func (c *Client) GetAlbum(ctx context.Context, name string) (catalog.Album, error) {
	var out struct {
		Album catalog.Album `json:"album"`
	}
	if err := c.getJSON(ctx, "albums/"+url.PathEscape(name), nil, &out); err != nil {
		return catalog.Album{}, err
	}
	return out.Album, nil
}

// GetPlaylist returns the playlist named name and its songs.
func (c *Client) GetPlaylist(ctx context.Context, name string) (catalog.Playlist, []catalog.Song, error) {
	var out struct {
		Playlist catalog.Playlist `json:"playlist"`
		Songs    []catalog.Song   `json:"songs"`
	}
	if err := c.getJSON(ctx, "playlists/"+url.PathEscape(name), nil, &out); err != nil {
		return catalog.Playlist{}, nil, err
	}
	return out.Playlist, out.Songs, nil
}

// ListPlaylists returns every playlist header.
func (c *Client) ListPlaylists(ctx context.Context) ([]catalog.Playlist, error) {
	var out struct {
		Playlists []catalog.Playlist `json:"playlists"`
	}
	if err := c.getJSON(ctx, "playlists/allPlaylist", nil, &out); err != nil {
		return nil, err
	}
	return out.Playlists, nil
}

// Search returns songs and playlists matching term.
func (c *Client) Search(ctx context.Context, term string) (catalog.SearchResult, error) {
	var out catalog.SearchResult
	if err := c.getJSON(ctx, "songs/search", map[string]string{"query": term}, &out); err != nil {
		return catalog.SearchResult{}, err
	}
	return out, nil
}

// GetFavorites returns the user's favorite songs.
func (c *Client) GetFavorites(ctx context.Context, userID string) ([]catalog.Song, error) {
	var out struct {
		FavoriteSongs []catalog.Song `json:"favoriteSongs"`
	}
	if err := c.getJSON(ctx, "users/getFavorites", map[string]string{"userId": userID}, &out); err != nil {
		return nil, err
	}
	return out.FavoriteSongs, nil
}

// AddFavorite marks songID as a favorite of userID.
func (c *Client) AddFavorite(ctx context.Context, songID, userID string) error {
	_, err := c.Request(ctx, http.MethodPost, "users/addFavorite", favoriteRequest{SongID: songID, UserID: userID}, nil, nil)
	return err
}

// RemoveFavorite unmarks songID. The ids travel in a DELETE body.
func (c *Client) RemoveFavorite(ctx context.Context, songID, userID string) error {
	_, err := c.Request(ctx, http.MethodDelete, "users/removeFavorite", favoriteRequest{SongID: songID, UserID: userID}, nil, nil)
	return err
}

// CreateSong uploads a song and returns the server message.
func (c *Client) CreateSong(ctx context.Context, song catalog.SongUpload) (string, error) {
	fields := map[string]string{
		"name":   song.Name,
		"image":  song.ImageURL,
		"artist": song.Artist,
	}
	res, err := c.Multipart(ctx, http.MethodPost, "songs/createsongs", fields, filePart("file", song.File))
	if err != nil {
		return "", err
	}
	return messageOf(res), nil
}

// CreateAlbum uploads an album. Songs without a file are left out of the
// form; the remaining ones keep their original index.
func (c *Client) CreateAlbum(ctx context.Context, album catalog.AlbumUpload) (catalog.Album, error) {
	fields := map[string]string{
		"name":  album.Name,
		"image": album.ImageURL,
	}
	var files []FilePart
	for i, song := range album.Songs {
		if song.File == nil {
			continue
		}
		prefix := "songs[" + strconv.Itoa(i) + "]"
		fields[prefix+"[name]"] = song.Name
		fields[prefix+"[image]"] = song.ImageURL
		fields[prefix+"[artist]"] = song.Artist
		files = append(files, filePart(prefix+"[file]", song.File)...)
	}

	res, err := c.Multipart(ctx, http.MethodPost, "albums/createAlbum", fields, files)
	if err != nil {
		return catalog.Album{}, err
	}

	var out struct {
		Album catalog.Album `json:"album"`
	}
	if len(res.Body) > 0 {
		_ = res.Decode(&out)
	}
	return out.Album, nil
}

// Signup creates an account. Only HTTP 201 counts as success; any other
// status is returned as *StatusError with the server message.
func (c *Client) Signup(ctx context.Context, form catalog.SignupForm) (catalog.User, error) {
	fields := map[string]string{
		"name":     form.Name,
		"gmail":    form.Gmail,
		"password": form.Password,
	}
	res, err := c.Multipart(ctx, http.MethodPost, "users/signup", fields, filePart("file", form.Picture))
	if err != nil {
		return catalog.User{}, err
	}
	if res.StatusCode != http.StatusCreated {
		return catalog.User{}, &StatusError{StatusCode: res.StatusCode, Message: errorMessage(res.Body)}
	}

	var out struct {
		Result catalog.User `json:"result"`
	}
	if err := res.Decode(&out); err != nil {
		return catalog.User{}, err
	}
	return out.Result, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query map[string]string, v any) error {
	res, err := c.Request(ctx, http.MethodGet, path, nil, nil, query)
	if err != nil {
		return err
	}
	if err := res.Decode(v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func filePart(field string, a *catalog.Attachment) []FilePart {
	if a == nil {
		return nil
	}
	return []FilePart{{Field: field, Filename: a.Filename, Reader: bytes.NewReader(a.Data)}}
}

func messageOf(res *Response) string {
	var out struct {
		Message string `json:"message"`
	}
	_ = res.Decode(&out)
	return out.Message
}
