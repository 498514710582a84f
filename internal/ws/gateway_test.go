package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-gateway/internal/access"
	"chat-gateway/internal/mocks"
	"chat-gateway/internal/models"
	"chat-gateway/internal/repositories"
)

type gatewayFixture struct {
	gateway  *Gateway
	hub      *Hub
	chats    *mocks.SingleChatRepositoryMock
	groups   *mocks.GroupRepositoryMock
	messages *mocks.MessageRepositoryMock
}

func newGatewayFixture() *gatewayFixture {
	chats := new(mocks.SingleChatRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	hub := NewHub()
	authority := access.NewAuthority(chats, groups)
	return &gatewayFixture{
		gateway:  NewGateway(hub, authority, messages, nil, nil),
		hub:      hub,
		chats:    chats,
		groups:   groups,
		messages: messages,
	}
}

func (f *gatewayFixture) allowSingle(chatID string, user1, user2 string) {
	f.chats.On("GetSingleChat", mock.Anything, chatID).
		Return(models.SingleChat{ID: chatID, User1ID: user1, User2ID: user2}, nil)
}

func (f *gatewayFixture) allowGroup(groupID, ownerID string, members ...models.GroupMember) {
	f.groups.On("GetGroup", mock.Anything, groupID).
		Return(models.Group{ID: groupID, OwnerID: ownerID}, nil)
	f.groups.On("ListMembers", mock.Anything, groupID).
		Return(members, nil)
}

func requireError(t *testing.T, c *Client, message string) {
	t.Helper()
	env := recvEvent(t, c)
	require.Equal(t, EventError, env.Event)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.Equal(t, message, p.Message)
}

func TestJoinSingleChatSuccess(t *testing.T) {
	f := newGatewayFixture()
	f.allowSingle("c1", "u1", "u2")
	c := newTestClient("u1", "alice")

	f.gateway.dispatch(context.Background(), c, []byte(`{"event":"join_chat","data":{"singleChatId":"c1"}}`))

	env := recvEvent(t, c)
	require.Equal(t, EventJoined, env.Event)
	var p JoinedPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.Equal(t, "single:c1", p.Room)
	require.True(t, f.hub.Subscribed("single:c1", c))
}

func TestJoinDeniedForNonParticipant(t *testing.T) {
	f := newGatewayFixture()
	f.allowSingle("c1", "u1", "u2")
	c := newTestClient("u3", "carol")

	f.gateway.dispatch(context.Background(), c, []byte(`{"event":"join_chat","data":{"singleChatId":"c1"}}`))

	requireError(t, c, "Forbidden")
	require.False(t, f.hub.Subscribed("single:c1", c))
}

func TestJoinUnknownChat(t *testing.T) {
	f := newGatewayFixture()
	f.chats.On("GetSingleChat", mock.Anything, "missing").
		Return(models.SingleChat{}, repositories.ErrChatNotFound)
	c := newTestClient("u1", "alice")

	f.gateway.dispatch(context.Background(), c, []byte(`{"event":"join_chat","data":{"singleChatId":"missing"}}`))

	requireError(t, c, "Chat not found")
}

func TestJoinRejectsAmbiguousTarget(t *testing.T) {
	f := newGatewayFixture()
	c := newTestClient("u1", "alice")

	f.gateway.dispatch(context.Background(), c, []byte(`{"event":"join_chat","data":{"singleChatId":"c1","groupId":"g1"}}`))

	requireError(t, c, "Provide exactly one of singleChatId or groupId")
}

func TestUnknownEventRejected(t *testing.T) {
	f := newGatewayFixture()
	c := newTestClient("u1", "alice")

	f.gateway.dispatch(context.Background(), c, []byte(`{"event":"nonsense","data":{}}`))

	requireError(t, c, "Provide exactly one of singleChatId or groupId")
}

func TestLeaveChatUnsubscribes(t *testing.T) {
	f := newGatewayFixture()
	c := newTestClient("u1", "alice")
	f.hub.Subscribe("group:g1", c)

	f.gateway.dispatch(context.Background(), c, []byte(`{"event":"leave_chat","data":{"groupId":"g1"}}`))

	require.False(t, f.hub.Subscribed("group:g1", c))
	requireNoEvent(t, c)
}

func TestMessageSendBroadcastsToRoom(t *testing.T) {
	f := newGatewayFixture()
	f.allowSingle("c1", "u1", "u2")
	sender := newTestClient("u1", "alice")
	peer := newTestClient("u2", "bob")
	f.hub.Subscribe("single:c1", sender)
	f.hub.Subscribe("single:c1", peer)

	chatID := "c1"
	f.messages.On("CreateMessage", mock.Anything, repositories.CreateMessageParams{
		SenderID:     "u1",
		SingleChatID: &chatID,
		Content:      "hello",
		MessageType:  "TEXT",
	}).Return(models.Message{ID: "m1", SenderID: "u1"}, nil).Once()
	f.messages.On("GetMessageView", mock.Anything, "m1").
		Return(models.MessageView{Message: models.Message{ID: "m1", SenderID: "u1", Content: "hello"}}, nil).Once()

	f.gateway.dispatch(context.Background(), sender,
		[]byte(`{"event":"message:send","data":{"singleChatId":"c1","content":"hello","messageType":"TEXT"}}`))

	// The sender's own connection gets the broadcast too.
	require.Equal(t, EventMessageNew, recvEvent(t, sender).Event)
	env := recvEvent(t, peer)
	require.Equal(t, EventMessageNew, env.Event)
	var view models.MessageView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Equal(t, "m1", view.ID)
	require.Equal(t, "hello", view.Content)

	f.messages.AssertExpectations(t)
}

func TestMessageSendTrimsWhitespaceOnlyContent(t *testing.T) {
	f := newGatewayFixture()
	c := newTestClient("u1", "alice")

	f.gateway.dispatch(context.Background(), c,
		[]byte(`{"event":"message:send","data":{"singleChatId":"c1","content":"   "}}`))

	requireError(t, c, "Content is required")
	f.messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestMessageSendDeniedForNonMember(t *testing.T) {
	f := newGatewayFixture()
	f.allowGroup("g1", "owner")
	c := newTestClient("u1", "alice")

	f.gateway.dispatch(context.Background(), c,
		[]byte(`{"event":"message:send","data":{"groupId":"g1","content":"hi"}}`))

	requireError(t, c, "Forbidden")
	f.messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestMessageSendOwnerWithoutMemberRecord(t *testing.T) {
	f := newGatewayFixture()
	f.allowGroup("g1", "owner")
	c := newTestClient("owner", "olga")
	f.hub.Subscribe("group:g1", c)

	groupID := "g1"
	f.messages.On("CreateMessage", mock.Anything, repositories.CreateMessageParams{
		SenderID: "owner",
		GroupID:  &groupID,
		Content:  "hi",
	}).Return(models.Message{ID: "m1", SenderID: "owner"}, nil).Once()
	f.messages.On("GetMessageView", mock.Anything, "m1").
		Return(models.MessageView{Message: models.Message{ID: "m1", SenderID: "owner"}}, nil).Once()

	f.gateway.dispatch(context.Background(), c,
		[]byte(`{"event":"message:send","data":{"groupId":"g1","content":"hi"}}`))

	require.Equal(t, EventMessageNew, recvEvent(t, c).Event)
	f.messages.AssertExpectations(t)
}

func TestMessageEditBySenderBroadcasts(t *testing.T) {
	f := newGatewayFixture()
	f.allowSingle("c1", "u1", "u2")
	c := newTestClient("u1", "alice")
	f.hub.Subscribe("single:c1", c)

	f.messages.On("GetMessage", mock.Anything, "m1").
		Return(models.Message{ID: "m1", SenderID: "u1"}, nil).Once()
	f.messages.On("UpdateMessageContent", mock.Anything, "m1", "updated").Return(nil).Once()
	f.messages.On("GetMessageView", mock.Anything, "m1").
		Return(models.MessageView{Message: models.Message{ID: "m1", SenderID: "u1", Content: "updated"}}, nil).Once()

	f.gateway.dispatch(context.Background(), c,
		[]byte(`{"event":"message:edit","data":{"singleChatId":"c1","messageId":"m1","content":"updated"}}`))

	env := recvEvent(t, c)
	require.Equal(t, EventMessageEdited, env.Event)
	f.messages.AssertExpectations(t)
}

func TestMessageEditByOtherUserForbidden(t *testing.T) {
	f := newGatewayFixture()
	c := newTestClient("u2", "bob")

	f.messages.On("GetMessage", mock.Anything, "m1").
		Return(models.Message{ID: "m1", SenderID: "u1"}, nil).Once()

	f.gateway.dispatch(context.Background(), c,
		[]byte(`{"event":"message:edit","data":{"singleChatId":"c1","messageId":"m1","content":"hijack"}}`))

	requireError(t, c, "Forbidden")
	f.messages.AssertNotCalled(t, "UpdateMessageContent", mock.Anything, mock.Anything, mock.Anything)
}

func TestMessageEditMissingMessage(t *testing.T) {
	f := newGatewayFixture()
	c := newTestClient("u1", "alice")

	f.messages.On("GetMessage", mock.Anything, "missing").
		Return(models.Message{}, repositories.ErrMessageNotFound).Once()

	f.gateway.dispatch(context.Background(), c,
		[]byte(`{"event":"message:edit","data":{"singleChatId":"c1","messageId":"missing","content":"x"}}`))

	requireError(t, c, "Message or chat not found")
}

func TestMessageEditRequiresContent(t *testing.T) {
	f := newGatewayFixture()
	c := newTestClient("u1", "alice")

	f.gateway.dispatch(context.Background(), c,
		[]byte(`{"event":"message:edit","data":{"singleChatId":"c1","messageId":"m1","content":"  "}}`))

	requireError(t, c, "Provide exactly one of singleChatId or groupId and content")
	f.messages.AssertNotCalled(t, "GetMessage", mock.Anything, mock.Anything)
}

func TestMessageDeleteBySenderBroadcasts(t *testing.T) {
	f := newGatewayFixture()
	f.allowSingle("c1", "u1", "u2")
	sender := newTestClient("u1", "alice")
	peer := newTestClient("u2", "bob")
	f.hub.Subscribe("single:c1", sender)
	f.hub.Subscribe("single:c1", peer)

	f.messages.On("GetMessage", mock.Anything, "m1").
		Return(models.Message{ID: "m1", SenderID: "u1"}, nil).Once()
	f.messages.On("SoftDeleteMessage", mock.Anything, "m1").Return(nil).Once()

	f.gateway.dispatch(context.Background(), sender,
		[]byte(`{"event":"message:delete","data":{"singleChatId":"c1","messageId":"m1"}}`))

	env := recvEvent(t, peer)
	require.Equal(t, EventMessageDeleted, env.Event)
	var p DeletedPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.Equal(t, "m1", p.MessageID)
	f.messages.AssertExpectations(t)
}

func TestMessageDeleteByOtherUserForbidden(t *testing.T) {
	f := newGatewayFixture()
	c := newTestClient("u2", "bob")

	f.messages.On("GetMessage", mock.Anything, "m1").
		Return(models.Message{ID: "m1", SenderID: "u1"}, nil).Once()

	f.gateway.dispatch(context.Background(), c,
		[]byte(`{"event":"message:delete","data":{"singleChatId":"c1","messageId":"m1"}}`))

	requireError(t, c, "Forbidden")
	f.messages.AssertNotCalled(t, "SoftDeleteMessage", mock.Anything, mock.Anything)
}

func TestTypingStartExcludesSender(t *testing.T) {
	f := newGatewayFixture()
	f.allowSingle("c1", "u1", "u2")
	sender := newTestClient("u1", "alice")
	peer := newTestClient("u2", "bob")
	f.hub.Subscribe("single:c1", sender)
	f.hub.Subscribe("single:c1", peer)

	f.gateway.dispatch(context.Background(), sender,
		[]byte(`{"event":"typing:start","data":{"singleChatId":"c1"}}`))

	requireNoEvent(t, sender)
	env := recvEvent(t, peer)
	require.Equal(t, EventTypingStart, env.Event)
	var p TypingStartPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.Equal(t, "u1", p.UserID)
	require.Equal(t, "alice", p.Username)
}

func TestTypingFailuresAreSilent(t *testing.T) {
	f := newGatewayFixture()
	f.allowGroup("g1", "owner")
	c := newTestClient("u1", "alice")

	// Not a member: no error frame, no broadcast.
	f.gateway.dispatch(context.Background(), c,
		[]byte(`{"event":"typing:start","data":{"groupId":"g1"}}`))
	requireNoEvent(t, c)

	// Invalid target: equally silent.
	f.gateway.dispatch(context.Background(), c,
		[]byte(`{"event":"typing:stop","data":{}}`))
	requireNoEvent(t, c)
}

func TestTypingStopPayload(t *testing.T) {
	f := newGatewayFixture()
	f.allowSingle("c1", "u1", "u2")
	sender := newTestClient("u1", "alice")
	peer := newTestClient("u2", "bob")
	f.hub.Subscribe("single:c1", sender)
	f.hub.Subscribe("single:c1", peer)

	f.gateway.dispatch(context.Background(), sender,
		[]byte(`{"event":"typing:stop","data":{"singleChatId":"c1"}}`))

	env := recvEvent(t, peer)
	require.Equal(t, EventTypingStop, env.Event)
	var p TypingStopPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.Equal(t, "u1", p.UserID)
}
