package repositories

import (
	"context"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"realtime-chat/internal/kvstore"
	"realtime-chat/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrUserNotFound is returned when an ID or email resolves to no user record.
var ErrUserNotFound = errors.New("user not found")

// UserRepository reads and writes user records and the email index.
type UserRepository interface {
	GetUser(ctx context.Context, userID string) (models.User, error)
	GetUserIDByEmail(ctx context.Context, email string) (string, error)
	CreateUser(ctx context.Context, user models.User) error
	GetUsers(ctx context.Context, userIDs []string) ([]models.User, error)
}

type userRepo struct {
	store kvstore.Store
}

// NewUserRepo builds a store-backed UserRepository.
func NewUserRepo(store kvstore.Store) UserRepository {
	return &userRepo{store: store}
}

func (r *userRepo) GetUser(ctx context.Context, userID string) (models.User, error) {
	raw, err := r.store.Get(ctx, userKey(userID))
	if err != nil {
		if errors.Is(err, kvstore.ErrNil) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return models.User{}, fmt.Errorf("parse user %s: %w", userID, err)
	}
	return user, nil
}

func (r *userRepo) GetUserIDByEmail(ctx context.Context, email string) (string, error) {
	userID, err := r.store.Get(ctx, userEmailKey(email))
	if err != nil {
		if errors.Is(err, kvstore.ErrNil) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return userID, nil
}

// CreateUser writes the user record and its email index. Called on first
// sign-in only; profile fields are overwritten on later sign-ins to stay in
// sync with the identity provider.
func (r *userRepo) CreateUser(ctx context.Context, user models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, userKey(user.ID), string(raw)); err != nil {
		return err
	}
	return r.store.Set(ctx, userEmailKey(user.Email), user.ID)
}

func (r *userRepo) GetUsers(ctx context.Context, userIDs []string) ([]models.User, error) {
	users := make([]models.User, 0, len(userIDs))
	for _, userID := range userIDs {
		user, err := r.GetUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}
