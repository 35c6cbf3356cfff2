package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-listen/internal/audio"
	"github.com/edumarques81/stellar-listen/internal/domain/accounts"
	"github.com/edumarques81/stellar-listen/internal/domain/catalog"
	"github.com/edumarques81/stellar-listen/internal/domain/session"
	"github.com/edumarques81/stellar-listen/internal/version"
)

const (
	maxFormMemory = 32 << 20
	maxUploadSize = 256 << 20
	maxAlbumSongs = 100

	// maxSignupSize leaves room for the text fields and multipart framing.
	maxSignupSize = accounts.MaxPictureSize + 1<<20
)

// Signer signs users up and out.
type Signer interface {
	Signup(ctx context.Context, form catalog.SignupForm) (catalog.User, error)
	Logout() error
}

// Uploader submits songs and albums.
type Uploader interface {
	CreateSong(ctx context.Context, song catalog.SongUpload) (string, error)
	CreateAlbum(ctx context.Context, album catalog.AlbumUpload) (catalog.Album, error)
}

// routes are the HTTP endpoints next to the Socket.io handler.
type routes struct {
	store     *session.Store
	accounts  Signer
	uploads   Uploader
	output    interface{ Status() audio.Status } // nil when audio is disabled
	gateway   string
	staticDir string
}

func (rt *routes) mux(socket http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	if socket != nil {
		mux.Handle("/socket.io/", socket)
	}

	mux.HandleFunc("GET /health", rt.health)
	mux.HandleFunc("GET /api/v1/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, version.GetInfo())
	})
	mux.HandleFunc("GET /api/v1/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rt.store.Snapshot().ToJSON())
	})
	mux.HandleFunc("POST /api/v1/signup", rt.signup)
	mux.HandleFunc("POST /api/v1/logout", rt.logout)
	mux.HandleFunc("POST /api/v1/songs", rt.createSong)
	mux.HandleFunc("POST /api/v1/albums", rt.createAlbum)

	// Serve static files if directory specified (SPA mode)
	if rt.staticDir != "" {
		log.Info().Str("dir", rt.staticDir).Msg("Serving static files")
		files := http.FileServer(http.Dir(rt.staticDir))
		index := filepath.Join(rt.staticDir, "index.html")
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			path := filepath.Join(rt.staticDir, filepath.Clean("/"+r.URL.Path))
			if info, err := os.Stat(path); r.URL.Path == "/" || err != nil || info.IsDir() {
				// For SPA routing, serve index.html for non-existing paths
				http.ServeFile(w, r, index)
				return
			}
			files.ServeHTTP(w, r)
		})
	}

	return mux
}

func (rt *routes) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "ok",
		"gateway": rt.gateway,
		"output":  "disabled",
	}
	if rt.output != nil {
		resp["output"] = rt.output.Status().State
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *routes) signup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSignupSize)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"message": accounts.MsgPictureSize})
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}
	picture, err := attachment(r, "file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := rt.accounts.Signup(r.Context(), catalog.SignupForm{
		Name:     r.FormValue("name"),
		Gmail:    r.FormValue("gmail"),
		Password: r.FormValue("password"),
		Picture:  picture,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"result": user})
}

func (rt *routes) logout(w http.ResponseWriter, r *http.Request) {
	if err := rt.accounts.Logout(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *routes) createSong(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	file, err := attachment(r, "file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	msg, err := rt.uploads.CreateSong(r.Context(), catalog.SongUpload{
		Name:     r.FormValue("name"),
		ImageURL: r.FormValue("image"),
		Artist:   r.FormValue("artist"),
		File:     file,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": msg})
}

// createAlbum reads songs[i][name|image|artist|file] until an index has none
// of the four fields.
func (rt *routes) createAlbum(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	album := catalog.AlbumUpload{
		Name:     r.FormValue("name"),
		ImageURL: r.FormValue("image"),
	}
	for i := 0; i < maxAlbumSongs; i++ {
		field := func(name string) string { return fmt.Sprintf("songs[%d][%s]", i, name) }
		file, err := attachment(r, field("file"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		song := catalog.SongUpload{
			Name:     r.FormValue(field("name")),
			ImageURL: r.FormValue(field("image")),
			Artist:   r.FormValue(field("artist")),
			File:     file,
		}
		if song == (catalog.SongUpload{}) {
			break
		}
		album.Songs = append(album.Songs, song)
	}

	created, err := rt.uploads.CreateAlbum(r.Context(), album)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// attachment reads an optional file part. A missing part is nil.
func attachment(r *http.Request, field string) (*catalog.Attachment, error) {
	f, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	return &catalog.Attachment{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func statusFor(err error) int {
	switch {
	case catalog.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrAuthRequired):
		return http.StatusUnauthorized
	case catalog.IsNetwork(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"message": catalog.ServerMessage(err, err.Error())})
}
