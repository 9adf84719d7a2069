package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sharetube/listenroom/internal/repository/profile"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

type iProfileRepo interface {
	Set(context.Context, *profile.SetProfileParams) error
	Get(context.Context, string) (profile.Profile, error)
}

type service struct {
	profileRepo iProfileRepo
	secret      []byte
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(profileRepo iProfileRepo, secret string, logger *slog.Logger) *service {
	return &service{
		profileRepo: profileRepo,
		secret:      []byte(secret),
		logger:      logger,
		now:         time.Now,
	}
}

type Profile struct {
	MemberId  string  `json:"member_id"`
	Username  string  `json:"username"`
	Color     string  `json:"color"`
	AvatarUrl *string `json:"avatar_url"`
}

type CreateSessionParams struct {
	Username  string
	Color     string
	AvatarUrl *string
}

type CreateSessionResponse struct {
	AuthToken string
	Profile   Profile
}

// CreateSession issues a new member identity. Missing display info is
// generated.
func (s service) CreateSession(ctx context.Context, params *CreateSessionParams) (CreateSessionResponse, error) {
	p := Profile{
		MemberId:  uuid.NewString(),
		Username:  params.Username,
		Color:     params.Color,
		AvatarUrl: params.AvatarUrl,
	}
	if p.Username == "" {
		p.Username = RandomUsername()
	}
	if p.Color == "" {
		p.Color = RandomColor()
	}

	if err := s.saveProfile(ctx, p); err != nil {
		return CreateSessionResponse{}, err
	}

	authToken, err := s.generateJWT(p.MemberId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to generate jwt", "error", err)
		return CreateSessionResponse{}, fmt.Errorf("failed to generate jwt: %w", err)
	}

	return CreateSessionResponse{
		AuthToken: authToken,
		Profile:   p,
	}, nil
}

// Authenticate resolves an auth token to the member's stored profile.
func (s service) Authenticate(ctx context.Context, authToken string) (Profile, error) {
	claims, err := s.parseJWT(authToken)
	if err != nil {
		s.logger.DebugContext(ctx, "failed to parse jwt", "error", err)
		return Profile{}, err
	}

	stored, err := s.profileRepo.Get(ctx, claims.MemberId)
	if err != nil {
		if !errors.Is(err, profile.ErrProfileNotFound) {
			return Profile{}, fmt.Errorf("failed to get profile: %w", err)
		}

		// profile expired, the identity itself is still valid
		s.logger.InfoContext(ctx, "profile expired, generating a new one", "member_id", claims.MemberId)
		p := Profile{MemberId: claims.MemberId, Username: RandomUsername(), Color: RandomColor()}
		if err := s.saveProfile(ctx, p); err != nil {
			return Profile{}, err
		}
		return p, nil
	}

	return Profile{
		MemberId:  claims.MemberId,
		Username:  stored.Username,
		Color:     stored.Color,
		AvatarUrl: stored.AvatarUrl,
	}, nil
}

func (s service) SaveProfile(ctx context.Context, p Profile) error {
	return s.saveProfile(ctx, p)
}

func (s service) saveProfile(ctx context.Context, p Profile) error {
	if err := s.profileRepo.Set(ctx, &profile.SetProfileParams{
		MemberId: p.MemberId,
		Profile: profile.Profile{
			Username:  p.Username,
			Color:     p.Color,
			AvatarUrl: p.AvatarUrl,
		},
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to save profile", "member_id", p.MemberId, "error", err)
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}
