package auth

import (
	"context"
	"fmt"

	"github.com/scastellanos/solidapp/internal/apperrors"
	"github.com/scastellanos/solidapp/internal/models"
	"github.com/scastellanos/solidapp/internal/repository"
)

type Config struct {
	Token TokenConfig

	// Hasher used during registration and login
	// Defaults to bcrypt if not set
	Hasher PasswordHasher
}

type Service struct {
	tokens  *TokenManager
	hasher  PasswordHasher
	storage repository.Storage
}

func NewService(cfg Config, storage repository.Storage) (*Service, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	tokens, err := NewTokenManager(cfg.Token, storage.Refresh())
	if err != nil {
		return nil, err
	}

	return &Service{
		tokens:  tokens,
		hasher:  hasher,
		storage: storage,
	}, nil
}

type RegisterParams struct {
	Login    string
	Name     string
	Surname  string
	Password string
}

func (s *Service) Register(ctx context.Context, arg RegisterParams) (models.TokenPair, error) {
	var pair models.TokenPair

	hash, err := s.hasher.Hash(arg.Password)
	if err != nil {
		return pair, fmt.Errorf("can't use this as password: %w", err)
	}

	user, err := s.storage.User().CreateUser(ctx, repository.CreateUserParams{
		Login:          arg.Login,
		Name:           arg.Name,
		Surname:        arg.Surname,
		HashedPassword: hash,
	})
	if err != nil {
		return pair, err
	}

	return s.tokens.GeneratePair(ctx, user)
}

func (s *Service) Login(ctx context.Context, login string, password string) (models.TokenPair, error) {
	var pair models.TokenPair

	user, err := s.storage.User().GetUserByLogin(ctx, login)
	if err != nil {
		return pair, apperrors.ErrUserNotFound
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return pair, apperrors.ErrUserNotFound
	}

	if user.Disabled {
		return pair, apperrors.ErrUserDisabled
	}

	return s.tokens.GeneratePair(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshString string) (models.TokenPair, error) {
	var pair models.TokenPair

	userID, err := s.tokens.ConsumeRefresh(ctx, refreshString)
	if err != nil {
		return pair, err
	}

	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return pair, err
	}

	if user.Disabled {
		return pair, apperrors.ErrUserDisabled
	}

	return s.tokens.GeneratePair(ctx, user)
}

// UserFromToken resolves an access token into a live user. Disabled
// users are rejected even while their token is still valid.
func (s *Service) UserFromToken(ctx context.Context, accessToken string) (models.User, error) {
	var user models.User

	userID, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return user, err
	}

	user, err = s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return user, err
	}

	if user.Disabled {
		return user, apperrors.ErrUserDisabled
	}

	return user, nil
}
