package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/photomemories/backend/internal/models"
)

var (
	// ErrDuplicateEmail is returned when registering with an email that already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrEmailConflict is returned when an external login's email is already
	// tied to a different sign-in method.
	ErrEmailConflict = errors.New("email already registered with a different sign-in method")
	// ErrInvalidCredentials covers bad email/password pairs and password logins
	// against external-provider accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidProvider is returned for unknown external providers.
	ErrInvalidProvider = errors.New("invalid auth provider")
)

// ExternalLogin carries the identity asserted by an external provider
// (Google, Microsoft, Facebook) after the frontend's OAuth dance.
type ExternalLogin struct {
	Provider          models.AuthProvider
	ExternalID        string
	Email             string
	DisplayName       string
	ProfilePictureURL *string
}

type Service interface {
	Register(ctx context.Context, email, password, displayName string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	LoginExternal(ctx context.Context, login ExternalLogin) (*models.User, string, error)
	VerifyToken(ctx context.Context, token string) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, displayName, pictureURL *string, autoSync *bool) (*models.User, error)
}

type service struct {
	repo   *Repository
	secret []byte
	ttl    time.Duration
}

func NewService(repo *Repository, secret []byte, ttl time.Duration) *service {
	return &service{repo: repo, secret: secret, ttl: ttl}
}

var _ Service = (*service)(nil)

func (s *service) Register(ctx context.Context, email, password, displayName string) (*models.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	hashStr := string(hash)
	user, err := s.repo.Create(ctx, &models.User{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  displayName,
		AuthProvider: models.ProviderLocal,
		PasswordHash: &hashStr,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, "", ErrDuplicateEmail
		}
		return nil, "", err
	}
	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if user.PasswordHash == nil {
		// External-provider account; it has no password to check.
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// LoginExternal gets or creates the account for an external identity. First
// login creates the user with the starter free-enhancement grant; an email
// already owned by another sign-in method is a conflict, not a merge.
func (s *service) LoginExternal(ctx context.Context, login ExternalLogin) (*models.User, string, error) {
	if !login.Provider.Valid() || login.Provider == models.ProviderLocal {
		return nil, "", ErrInvalidProvider
	}

	user, err := s.repo.GetByExternalID(ctx, login.Provider, login.ExternalID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", err
	}
	if user != nil && login.DisplayName != "" && (user.DisplayName != login.DisplayName || login.ProfilePictureURL != nil) {
		// Keep the profile in sync with the provider.
		name := login.DisplayName
		user, err = s.repo.UpdateProfile(ctx, user.ID, &name, login.ProfilePictureURL, nil)
		if err != nil {
			return nil, "", err
		}
	}
	if user == nil {
		if existing, err := s.repo.GetByEmail(ctx, login.Email); err == nil && existing != nil {
			return nil, "", ErrEmailConflict
		} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, "", err
		}
		externalID := login.ExternalID
		user, err = s.repo.Create(ctx, &models.User{
			ID:                uuid.New(),
			Email:             login.Email,
			DisplayName:       login.DisplayName,
			ProfilePictureURL: login.ProfilePictureURL,
			AuthProvider:      login.Provider,
			ExternalID:        &externalID,
		})
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return nil, "", ErrEmailConflict
			}
			return nil, "", err
		}
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *service) issueToken(userID uuid.UUID) (string, error) {
	c := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(s.secret)
}

func (s *service) VerifyToken(ctx context.Context, token string) (uuid.UUID, error) {
	tok, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	c, ok := tok.Claims.(*jwt.RegisteredClaims)
	if !ok || !tok.Valid {
		return uuid.Nil, errors.New("invalid token")
	}
	return uuid.Parse(c.Subject)
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, displayName, pictureURL *string, autoSync *bool) (*models.User, error) {
	return s.repo.UpdateProfile(ctx, id, displayName, pictureURL, autoSync)
}
