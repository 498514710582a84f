// Package access decides whether a user may act in a chat. Every decision
// re-reads current membership from storage so a revoked member loses access
// on their next action; results are never cached.
package access

import (
	"context"
	"errors"

	"chat-gateway/internal/models"
	"chat-gateway/internal/repositories"
)

var (
	// ErrNotFound means the addressed chat or group does not exist.
	ErrNotFound = errors.New("chat not found")
	// ErrForbidden means the chat exists but the user may not access it.
	ErrForbidden = errors.New("forbidden")
)

// Authority answers membership questions for chat targets.
type Authority struct {
	singleChats repositories.SingleChatRepository
	groups      repositories.GroupRepository
}

// NewAuthority constructs an Authority over the chat directory.
func NewAuthority(singleChats repositories.SingleChatRepository, groups repositories.GroupRepository) *Authority {
	return &Authority{singleChats: singleChats, groups: groups}
}

// Authorize reports whether the user may access the target chat. Single
// chats admit exactly their two participants. Groups admit the owner
// unconditionally and otherwise any member whose record has no left_at.
func (a *Authority) Authorize(ctx context.Context, userID string, target models.ChatTarget) error {
	if target.IsSingle() {
		return a.authorizeSingle(ctx, userID, target.SingleChatID)
	}
	return a.authorizeGroup(ctx, userID, target.GroupID)
}

func (a *Authority) authorizeSingle(ctx context.Context, userID string, chatID string) error {
	chat, err := a.singleChats.GetSingleChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !chat.HasParticipant(userID) {
		return ErrForbidden
	}
	return nil
}

func (a *Authority) authorizeGroup(ctx context.Context, userID string, groupID string) error {
	group, err := a.groups.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return ErrNotFound
		}
		return err
	}
	if group.OwnerID == userID {
		return nil
	}

	members, err := a.groups.ListMembers(ctx, groupID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.UserID == userID && m.Active() {
			return nil
		}
	}
	return ErrForbidden
}
