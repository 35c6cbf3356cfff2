// Package accounts validates and submits the signup form and keeps the
// resulting user record.
package accounts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"mime"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/edumarques81/stellar-listen/internal/domain/catalog"
	"github.com/edumarques81/stellar-listen/internal/domain/notify"
)

// MaxPictureSize is the largest accepted profile picture.
const MaxPictureSize = 5 * 1024 * 1024

// User-facing messages.
const (
	MsgInvalidEmail  = "Invalid email address"
	MsgPictureSize   = "File size should be less than 5MB"
	MsgPictureType   = "Only image files are allowed"
	MsgSignedUp      = "User signed up successfully"
	MsgSignupFailed  = "Failed to sign up"
	MsgSignupError   = "An error occurred during signup"
	MsgLoggedOut     = "Logged out"
	MsgMissingFields = "Name and password are required"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks the address shape only.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return &catalog.ValidationError{Field: "gmail", Reason: MsgInvalidEmail}
	}
	return nil
}

// ValidatePicture accepts a nil picture. Otherwise the file must be at most
// MaxPictureSize and either decode as a known image format or be declared
// as image/* (SVG, HEIC and AVIF have no decoder here).
func ValidatePicture(pic *catalog.Attachment) error {
	if pic == nil {
		return nil
	}
	if pic.Size() > MaxPictureSize {
		return &catalog.ValidationError{Field: "file", Reason: MsgPictureSize}
	}
	if _, format, err := image.DecodeConfig(bytes.NewReader(pic.Data)); err == nil {
		log.Debug().Str("format", format).Str("file", pic.Filename).Msg("Profile picture accepted")
		return nil
	}
	if declaredImage(pic.ContentType) {
		log.Debug().Str("type", pic.ContentType).Str("file", pic.Filename).Msg("Profile picture accepted by declared type")
		return nil
	}
	return &catalog.ValidationError{Field: "file", Reason: MsgPictureType}
}

func declaredImage(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && strings.HasPrefix(mediaType, "image/")
}

// ValidateSignup checks the whole form. The email is checked first.
func ValidateSignup(form catalog.SignupForm) error {
	if err := ValidateEmail(form.Gmail); err != nil {
		return err
	}
	if err := ValidatePicture(form.Picture); err != nil {
		return err
	}
	if strings.TrimSpace(form.Name) == "" || form.Password == "" {
		return &catalog.ValidationError{Field: "name", Reason: MsgMissingFields}
	}
	return nil
}

// Gateway creates accounts.
type Gateway interface {
	Signup(ctx context.Context, form catalog.SignupForm) (catalog.User, error)
}

// UserStore persists the logged-in user.
type UserStore interface {
	SaveUser(u catalog.User) error
	ClearUser() error
}

// Favorites is the per-user favorites mirror, switched along with the user.
type Favorites interface {
	Load(ctx context.Context, users catalog.UserProvider) error
	Clear()
}

// Option customizes a Service.
type Option func(*Service)

// WithFavorites reloads favs after signup and clears it on logout.
func WithFavorites(favs Favorites) Option {
	return func(s *Service) {
		s.favorites = favs
	}
}

// Service runs signup and logout.
type Service struct {
	gateway   Gateway
	users     UserStore
	notifier  notify.Notifier
	favorites Favorites
}

// NewService creates an accounts service.
func NewService(gateway Gateway, users UserStore, notifier notify.Notifier, opts ...Option) *Service {
	if notifier == nil {
		notifier = notify.Discard
	}
	s := &Service{gateway: gateway, users: users, notifier: notifier}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup validates form, submits it and stores the created user. Validation
// failures never reach the gateway.
func (s *Service) Signup(ctx context.Context, form catalog.SignupForm) (catalog.User, error) {
	if err := ValidateSignup(form); err != nil {
		notify.Error(s.notifier, validationReason(err))
		return catalog.User{}, err
	}

	user, err := s.gateway.Signup(ctx, form)
	if err != nil {
		log.Error().Err(err).Str("gmail", form.Gmail).Msg("Signup failed")
		// A network failure has no server answer to show.
		msg := MsgSignupError
		var answered interface{ ServerMessage() string }
		if errors.As(err, &answered) {
			msg = catalog.ServerMessage(err, MsgSignupFailed)
		}
		notify.Error(s.notifier, msg)
		return catalog.User{}, fmt.Errorf("signup: %w", err)
	}

	if err := s.users.SaveUser(user); err != nil {
		notify.Error(s.notifier, MsgSignupError)
		return catalog.User{}, fmt.Errorf("save user: %w", err)
	}

	notify.Success(s.notifier, MsgSignedUp)

	if s.favorites != nil {
		// The previous user's hearts must not outlive the switch, even if the
		// reload fails.
		s.favorites.Clear()
		if err := s.favorites.Load(ctx, catalog.LoggedInAs(user)); err != nil {
			log.Warn().Err(err).Str("user", user.ID).Msg("Favorites reload after signup failed")
		}
	}
	return user, nil
}

// Logout forgets the stored user and their favorites.
func (s *Service) Logout() error {
	if err := s.users.ClearUser(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if s.favorites != nil {
		s.favorites.Clear()
	}
	notify.Info(s.notifier, MsgLoggedOut)
	return nil
}

func validationReason(err error) string {
	var ve *catalog.ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return err.Error()
}
