package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/omniful/go_commons/log"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Afonso-Front-End/torre-de-controle/internal/apperr"
	"github.com/Afonso-Front-End/torre-de-controle/internal/auth"
	"github.com/Afonso-Front-End/torre-de-controle/internal/models"
	"github.com/Afonso-Front-End/torre-de-controle/internal/repository"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	IssueAccessToken(userID, nome string) (string, time.Time, error)
}

type AuthService interface {
	Login(ctx context.Context, nome, senha string) (*models.TokenResponse, error)
	CreateAccount(ctx context.Context, nome, nomeBase, senha string) (*models.AccountResponse, error)
	UpdateProfile(ctx context.Context, userID, foto string) (*models.ProfileResponse, error)
	Me(ctx context.Context, userID string) (*models.MeResponse, error)
	UpdateConfig(ctx context.Context, userID string, patch map[string]interface{}) (*models.ConfigResponse, error)
}

type authService struct {
	users  repository.UserRepository
	tokens TokenIssuer
}

func NewAuthService(users repository.UserRepository, tokens TokenIssuer) AuthService {
	return &authService{users: users, tokens: tokens}
}

// findUser maps a missing account to NotFound.
func (s *authService) findUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(constants.ErrUserNotFound)
		}
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, nome, senha string) (*models.TokenResponse, error) {
	user, err := s.users.FindByName(ctx, nome)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized(constants.ErrBadCredentials)
		}
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	ok, err := auth.VerifyPassword(user.SenhaHash, senha)
	if err != nil || !ok {
		return nil, apperr.Unauthorized(constants.ErrBadCredentials)
	}

	token, _, err := s.tokens.IssueAccessToken(user.ID.Hex(), user.Nome)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	return &models.TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

// CreateAccount registers a user with an empty config per table.
func (s *authService) CreateAccount(ctx context.Context, nome, nomeBase, senha string) (*models.AccountResponse, error) {
	_, err := s.users.FindByName(ctx, nome)
	switch {
	case err == nil:
		return nil, apperr.Conflict(constants.ErrUserExists)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}

	hash, err := auth.HashPassword(senha)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Nome:      nome,
		NomeBase:  nomeBase,
		SenhaHash: hash,
		Role:      models.RoleUser,
		Tabelas:   models.NewTables(constants.MaxTableID),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperr.Storage(constants.ErrDatabaseWrite, err)
	}
	logger.Info(fmt.Sprintf("Created account %s (%s)", user.ID.Hex(), nome))
	return &models.AccountResponse{
		ID:       user.ID.Hex(),
		Nome:     user.Nome,
		NomeBase: user.NomeBase,
		Role:     user.Role,
	}, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID, foto string) (*models.ProfileResponse, error) {
	if err := s.users.Update(ctx, userID, bson.M{"foto": foto}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(constants.ErrUserNotFound)
		}
		return nil, apperr.Storage(constants.ErrDatabaseWrite, err)
	}
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.ProfileResponse{Nome: user.Nome, Foto: user.Foto}, nil
}

// Me returns the user's profile. Accounts created before tables existed
// get them on first read.
func (s *authService) Me(ctx context.Context, userID string) (*models.MeResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Tabelas == nil {
		user.Tabelas = models.NewTables(constants.MaxTableID)
		if err := s.users.Update(ctx, userID, bson.M{"tabelas": user.Tabelas}); err != nil {
			logger.Error(fmt.Sprintf("Failed to backfill tables for user %s: %v", userID, err))
		}
	}
	return &models.MeResponse{
		Nome:    user.Nome,
		Foto:    user.Foto,
		Config:  user.Config,
		Tabelas: user.Tabelas,
	}, nil
}

// UpdateConfig merges patch over the stored config, key by key.
func (s *authService) UpdateConfig(ctx context.Context, userID string, patch map[string]interface{}) (*models.ConfigResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	cfg := user.Config
	if err := cfg.Merge(patch); err != nil {
		return nil, apperr.InvalidInput(fmt.Sprintf(constants.ErrInvalidConfig, err))
	}
	if err := s.users.Update(ctx, userID, bson.M{"config": cfg.ToMap()}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(constants.ErrUserNotFound)
		}
		return nil, apperr.Storage(constants.ErrDatabaseWrite, err)
	}
	return &models.ConfigResponse{Config: cfg}, nil
}
