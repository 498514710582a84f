package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-gateway/internal/models"
	"chat-gateway/internal/repositories"
)

type SingleChatRepositoryMock struct {
	mock.Mock
}

func (m *SingleChatRepositoryMock) CreateOrGetSingleChat(ctx context.Context, userID string, otherID string) (models.SingleChat, error) {
	args := m.Called(ctx, userID, otherID)
	var chat models.SingleChat
	if val := args.Get(0); val != nil {
		chat = val.(models.SingleChat)
	}
	return chat, args.Error(1)
}

func (m *SingleChatRepositoryMock) GetSingleChat(ctx context.Context, chatID string) (models.SingleChat, error) {
	args := m.Called(ctx, chatID)
	var chat models.SingleChat
	if val := args.Get(0); val != nil {
		chat = val.(models.SingleChat)
	}
	return chat, args.Error(1)
}

func (m *SingleChatRepositoryMock) ListSingleChatsForUser(ctx context.Context, userID string) ([]models.SingleChat, error) {
	args := m.Called(ctx, userID)
	var list []models.SingleChat
	if val := args.Get(0); val != nil {
		list = val.([]models.SingleChat)
	}
	return list, args.Error(1)
}

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) CreateGroup(ctx context.Context, ownerID string, title string, memberIDs []string) (models.Group, error) {
	args := m.Called(ctx, ownerID, title, memberIDs)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) GetGroup(ctx context.Context, groupID string) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) ListGroupsForUser(ctx context.Context, userID string) ([]models.Group, error) {
	args := m.Called(ctx, userID)
	var list []models.Group
	if val := args.Get(0); val != nil {
		list = val.([]models.Group)
	}
	return list, args.Error(1)
}

func (m *GroupRepositoryMock) ListMembers(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	args := m.Called(ctx, groupID)
	var list []models.GroupMember
	if val := args.Get(0); val != nil {
		list = val.([]models.GroupMember)
	}
	return list, args.Error(1)
}

func (m *GroupRepositoryMock) AddMember(ctx context.Context, groupID string, userID string, role string) (models.GroupMember, error) {
	args := m.Called(ctx, groupID, userID, role)
	var member models.GroupMember
	if val := args.Get(0); val != nil {
		member = val.(models.GroupMember)
	}
	return member, args.Error(1)
}

func (m *GroupRepositoryMock) MarkMemberLeft(ctx context.Context, groupID string, userID string) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, params repositories.CreateMessageParams) (models.Message, error) {
	args := m.Called(ctx, params)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessageView(ctx context.Context, messageID string) (models.MessageView, error) {
	args := m.Called(ctx, messageID)
	var view models.MessageView
	if val := args.Get(0); val != nil {
		view = val.(models.MessageView)
	}
	return view, args.Error(1)
}

func (m *MessageRepositoryMock) UpdateMessageContent(ctx context.Context, messageID string, content string) error {
	args := m.Called(ctx, messageID, content)
	return args.Error(0)
}

func (m *MessageRepositoryMock) SoftDeleteMessage(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) ListBySingleChat(ctx context.Context, chatID string) ([]models.MessageView, error) {
	args := m.Called(ctx, chatID)
	var list []models.MessageView
	if val := args.Get(0); val != nil {
		list = val.([]models.MessageView)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) ListByGroup(ctx context.Context, groupID string) ([]models.MessageView, error) {
	args := m.Called(ctx, groupID)
	var list []models.MessageView
	if val := args.Get(0); val != nil {
		list = val.([]models.MessageView)
	}
	return list, args.Error(1)
}

var (
	_ repositories.SingleChatRepository = (*SingleChatRepositoryMock)(nil)
	_ repositories.GroupRepository      = (*GroupRepositoryMock)(nil)
	_ repositories.MessageRepository    = (*MessageRepositoryMock)(nil)
)
