// Package uploads validates and submits new songs and albums.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-listen/internal/domain/catalog"
	"github.com/edumarques81/stellar-listen/internal/domain/notify"
)

// User-facing messages.
const (
	MsgSongUploaded = "Song uploaded successfully!"
	MsgSongFailed   = "Error uploading the song"
	MsgAlbumCreated = "Album created successfully!"
	MsgAlbumFailed  = "Failed to create album."
)

// ValidateSong requires every field of the song form.
func ValidateSong(song catalog.SongUpload) error {
	switch {
	case strings.TrimSpace(song.Name) == "":
		return &catalog.ValidationError{Field: "name", Reason: "song name is required"}
	case strings.TrimSpace(song.ImageURL) == "":
		return &catalog.ValidationError{Field: "image", Reason: "image URL is required"}
	case strings.TrimSpace(song.Artist) == "":
		return &catalog.ValidationError{Field: "artist", Reason: "artist is required"}
	case song.File.Size() == 0:
		return &catalog.ValidationError{Field: "file", Reason: "audio file is required"}
	}
	return nil
}

// ValidateAlbum requires a name, an image and at least one song with a file.
// Songs without a file are dropped on submit, so only those with one are
// checked.
func ValidateAlbum(album catalog.AlbumUpload) error {
	if strings.TrimSpace(album.Name) == "" {
		return &catalog.ValidationError{Field: "name", Reason: "album name is required"}
	}
	if strings.TrimSpace(album.ImageURL) == "" {
		return &catalog.ValidationError{Field: "image", Reason: "album image URL is required"}
	}

	withFile := 0
	for i, song := range album.Songs {
		if song.File == nil {
			continue
		}
		withFile++
		if strings.TrimSpace(song.Name) == "" {
			return &catalog.ValidationError{Field: fmt.Sprintf("songs[%d][name]", i), Reason: "song name is required"}
		}
	}
	if withFile == 0 {
		return &catalog.ValidationError{Field: "songs", Reason: "at least one song needs an audio file"}
	}
	return nil
}

// Gateway submits uploads.
type Gateway interface {
	CreateSong(ctx context.Context, song catalog.SongUpload) (string, error)
	CreateAlbum(ctx context.Context, album catalog.AlbumUpload) (catalog.Album, error)
}

// Service validates and submits uploads.
type Service struct {
	gateway  Gateway
	notifier notify.Notifier
}

// NewService creates an uploads service.
func NewService(gateway Gateway, notifier notify.Notifier) *Service {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Service{gateway: gateway, notifier: notifier}
}

// CreateSong submits song and returns the server message.
func (s *Service) CreateSong(ctx context.Context, song catalog.SongUpload) (string, error) {
	if err := ValidateSong(song); err != nil {
		notify.Error(s.notifier, reason(err))
		return "", err
	}

	msg, err := s.gateway.CreateSong(ctx, song)
	if err != nil {
		log.Error().Err(err).Str("song", song.Name).Msg("Song upload failed")
		notify.Error(s.notifier, catalog.ServerMessage(err, MsgSongFailed))
		return "", fmt.Errorf("create song: %w", err)
	}
	if msg == "" {
		msg = MsgSongUploaded
	}

	log.Info().Str("song", song.Name).Str("artist", song.Artist).Msg("Song uploaded")
	notify.Success(s.notifier, msg)
	return msg, nil
}

// CreateAlbum submits album.
func (s *Service) CreateAlbum(ctx context.Context, album catalog.AlbumUpload) (catalog.Album, error) {
	if err := ValidateAlbum(album); err != nil {
		notify.Error(s.notifier, reason(err))
		return catalog.Album{}, err
	}

	created, err := s.gateway.CreateAlbum(ctx, album)
	if err != nil {
		log.Error().Err(err).Str("album", album.Name).Msg("Album creation failed")
		notify.Error(s.notifier, MsgAlbumFailed)
		return catalog.Album{}, fmt.Errorf("create album: %w", err)
	}

	log.Info().Str("album", album.Name).Int("songs", len(album.Songs)).Msg("Album created")
	notify.Success(s.notifier, MsgAlbumCreated)
	return created, nil
}

func reason(err error) string {
	var ve *catalog.ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return err.Error()
}
