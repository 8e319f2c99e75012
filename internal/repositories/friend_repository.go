package repositories

import (
	"context"

	"realtime-chat/internal/kvstore"
)

// FriendRepository mutates and queries the friend relationship and
// friend-request sets. Friendship is mirrored: after AddFriendship both
// users hold each other's ID. There is no transaction spanning the two
// writes; set adds are idempotent so concurrent accepts converge.
type FriendRepository interface {
	HasIncomingRequest(ctx context.Context, userID, senderID string) (bool, error)
	AddIncomingRequest(ctx context.Context, userID, senderID string) error
	RemoveIncomingRequest(ctx context.Context, userID, senderID string) error
	ListIncomingRequestIDs(ctx context.Context, userID string) ([]string, error)
	AreFriends(ctx context.Context, userID, otherID string) (bool, error)
	AddFriendship(ctx context.Context, userID, otherID string) error
	ListFriendIDs(ctx context.Context, userID string) ([]string, error)
}

type friendRepo struct {
	store kvstore.Store
}

// NewFriendRepo builds a store-backed FriendRepository.
func NewFriendRepo(store kvstore.Store) FriendRepository {
	return &friendRepo{store: store}
}

func (r *friendRepo) HasIncomingRequest(ctx context.Context, userID, senderID string) (bool, error) {
	return r.store.SIsMember(ctx, IncomingRequestsKey(userID), senderID)
}

func (r *friendRepo) AddIncomingRequest(ctx context.Context, userID, senderID string) error {
	return r.store.SAdd(ctx, IncomingRequestsKey(userID), senderID)
}

// RemoveIncomingRequest is idempotent: removing an absent member is a no-op.
func (r *friendRepo) RemoveIncomingRequest(ctx context.Context, userID, senderID string) error {
	return r.store.SRem(ctx, IncomingRequestsKey(userID), senderID)
}

func (r *friendRepo) ListIncomingRequestIDs(ctx context.Context, userID string) ([]string, error) {
	return r.store.SMembers(ctx, IncomingRequestsKey(userID))
}

func (r *friendRepo) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	return r.store.SIsMember(ctx, FriendsKey(userID), otherID)
}

// AddFriendship mirrors the two IDs into each other's friend sets. If the
// second write fails the first is not rolled back; a later accept repairs the
// mirror because sadd is idempotent.
func (r *friendRepo) AddFriendship(ctx context.Context, userID, otherID string) error {
	if err := r.store.SAdd(ctx, FriendsKey(userID), otherID); err != nil {
		return err
	}
	return r.store.SAdd(ctx, FriendsKey(otherID), userID)
}

func (r *friendRepo) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	return r.store.SMembers(ctx, FriendsKey(userID))
}
