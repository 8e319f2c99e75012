package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"realtime-chat/internal/auth"
	"realtime-chat/internal/mocks"
	"realtime-chat/internal/models"
	"realtime-chat/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupFriendRouter(handler *FriendHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		auth.SetSession(c, auth.Session{UserID: "u1", Name: "Alice", Email: "alice@example.com"})
		c.Next()
	})
	r.POST("/api/friends/add", handler.AddFriend)
	r.POST("/api/friends/accept", handler.AcceptFriend)
	r.POST("/api/friends/reject", handler.RejectFriend)
	r.GET("/api/friends", handler.ListFriends)
	r.GET("/api/friends/requests", handler.ListRequests)
	return r
}

func TestAddFriendSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	friends := new(mocks.FriendRepositoryMock)
	broker := new(mocks.BrokerMock)
	handler := NewFriendHandler(users, friends, broker, nil, testLogger())
	router := setupFriendRouter(handler)

	users.On("GetUserIDByEmail", mock.Anything, "bob@example.com").Return("u2", nil).Once()
	friends.On("HasIncomingRequest", mock.Anything, "u2", "u1").Return(false, nil).Once()
	friends.On("AreFriends", mock.Anything, "u1", "u2").Return(false, nil).Once()
	broker.On("Trigger", mock.Anything, "user__u2__incoming_friend_requests", "incoming_friend_requests",
		models.FriendRequest{SenderID: "u1", SenderEmail: "alice@example.com"}).Return(nil).Once()
	friends.On("AddIncomingRequest", mock.Anything, "u2", "u1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/friends/add", bytes.NewBufferString(`{"email":"bob@example.com"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
	friends.AssertExpectations(t)
	broker.AssertExpectations(t)
}

func TestAddFriendInvalidPayload(t *testing.T) {
	handler := NewFriendHandler(new(mocks.UserRepositoryMock), new(mocks.FriendRepositoryMock), new(mocks.BrokerMock), nil, testLogger())
	router := setupFriendRouter(handler)

	for _, body := range []string{`{}`, `{"email":"not-an-email"}`, `not json`} {
		req := httptest.NewRequest(http.MethodPost, "/api/friends/add", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, "body %q", body)
	}
}

func TestAddFriendUnknownEmail(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewFriendHandler(users, new(mocks.FriendRepositoryMock), new(mocks.BrokerMock), nil, testLogger())
	router := setupFriendRouter(handler)

	users.On("GetUserIDByEmail", mock.Anything, "ghost@example.com").Return("", repositories.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/friends/add", bytes.NewBufferString(`{"email":"ghost@example.com"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	users.AssertExpectations(t)
}

func TestAddFriendSelf(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewFriendHandler(users, new(mocks.FriendRepositoryMock), new(mocks.BrokerMock), nil, testLogger())
	router := setupFriendRouter(handler)

	users.On("GetUserIDByEmail", mock.Anything, "alice@example.com").Return("u1", nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/friends/add", bytes.NewBufferString(`{"email":"alice@example.com"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	users.AssertExpectations(t)
}

func TestAddFriendAlreadyRequested(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	friends := new(mocks.FriendRepositoryMock)
	handler := NewFriendHandler(users, friends, new(mocks.BrokerMock), nil, testLogger())
	router := setupFriendRouter(handler)

	users.On("GetUserIDByEmail", mock.Anything, "bob@example.com").Return("u2", nil).Once()
	friends.On("HasIncomingRequest", mock.Anything, "u2", "u1").Return(true, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/friends/add", bytes.NewBufferString(`{"email":"bob@example.com"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	friends.AssertExpectations(t)
}

func TestAddFriendAlreadyFriends(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	friends := new(mocks.FriendRepositoryMock)
	handler := NewFriendHandler(users, friends, new(mocks.BrokerMock), nil, testLogger())
	router := setupFriendRouter(handler)

	users.On("GetUserIDByEmail", mock.Anything, "bob@example.com").Return("u2", nil).Once()
	friends.On("HasIncomingRequest", mock.Anything, "u2", "u1").Return(false, nil).Once()
	friends.On("AreFriends", mock.Anything, "u1", "u2").Return(true, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/friends/add", bytes.NewBufferString(`{"email":"bob@example.com"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	friends.AssertExpectations(t)
}

func TestAddFriendPersistsDespiteTriggerFailure(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	friends := new(mocks.FriendRepositoryMock)
	broker := new(mocks.BrokerMock)
	handler := NewFriendHandler(users, friends, broker, nil, testLogger())
	router := setupFriendRouter(handler)

	users.On("GetUserIDByEmail", mock.Anything, "bob@example.com").Return("u2", nil).Once()
	friends.On("HasIncomingRequest", mock.Anything, "u2", "u1").Return(false, nil).Once()
	friends.On("AreFriends", mock.Anything, "u1", "u2").Return(false, nil).Once()
	broker.On("Trigger", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError).Once()
	friends.On("AddIncomingRequest", mock.Anything, "u2", "u1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/friends/add", bytes.NewBufferString(`{"email":"bob@example.com"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	friends.AssertExpectations(t)
}

func TestAcceptFriendSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	friends := new(mocks.FriendRepositoryMock)
	broker := new(mocks.BrokerMock)
	handler := NewFriendHandler(users, friends, broker, nil, testLogger())
	router := setupFriendRouter(handler)

	alice := models.User{ID: "u1", Name: "Alice", Email: "alice@example.com"}
	bob := models.User{ID: "u2", Name: "Bob", Email: "bob@example.com"}

	friends.On("AreFriends", mock.Anything, "u1", "u2").Return(false, nil).Once()
	friends.On("HasIncomingRequest", mock.Anything, "u1", "u2").Return(true, nil).Once()
	users.On("GetUser", mock.Anything, "u1").Return(alice, nil).Once()
	users.On("GetUser", mock.Anything, "u2").Return(bob, nil).Once()
	broker.On("Trigger", mock.Anything, "user__u2__friends", "new_friend", alice).Return(nil).Once()
	broker.On("Trigger", mock.Anything, "user__u1__friends", "new_friend", bob).Return(nil).Once()
	friends.On("AddFriendship", mock.Anything, "u1", "u2").Return(nil).Once()
	friends.On("RemoveIncomingRequest", mock.Anything, "u1", "u2").Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/friends/accept", bytes.NewBufferString(`{"id":"u2"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
	friends.AssertExpectations(t)
	broker.AssertExpectations(t)
}

func TestAcceptFriendAlreadyFriends(t *testing.T) {
	friends := new(mocks.FriendRepositoryMock)
	handler := NewFriendHandler(new(mocks.UserRepositoryMock), friends, new(mocks.BrokerMock), nil, testLogger())
	router := setupFriendRouter(handler)

	friends.On("AreFriends", mock.Anything, "u1", "u2").Return(true, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/friends/accept", bytes.NewBufferString(`{"id":"u2"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	friends.AssertExpectations(t)
}

func TestAcceptFriendNoPendingRequest(t *testing.T) {
	friends := new(mocks.FriendRepositoryMock)
	handler := NewFriendHandler(new(mocks.UserRepositoryMock), friends, new(mocks.BrokerMock), nil, testLogger())
	router := setupFriendRouter(handler)

	friends.On("AreFriends", mock.Anything, "u1", "u2").Return(false, nil).Once()
	friends.On("HasIncomingRequest", mock.Anything, "u1", "u2").Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/friends/accept", bytes.NewBufferString(`{"id":"u2"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	friends.AssertExpectations(t)
}

func TestRejectFriendAlwaysSucceeds(t *testing.T) {
	friends := new(mocks.FriendRepositoryMock)
	handler := NewFriendHandler(new(mocks.UserRepositoryMock), friends, new(mocks.BrokerMock), nil, testLogger())
	router := setupFriendRouter(handler)

	// srem on an absent member is a no-op, so two rejects both report ok.
	friends.On("RemoveIncomingRequest", mock.Anything, "u1", "u2").Return(nil).Twice()

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/friends/reject", bytes.NewBufferString(`{"id":"u2"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	friends.AssertExpectations(t)
}

func TestRejectFriendInvalidPayload(t *testing.T) {
	handler := NewFriendHandler(new(mocks.UserRepositoryMock), new(mocks.FriendRepositoryMock), new(mocks.BrokerMock), nil, testLogger())
	router := setupFriendRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/friends/reject", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListFriendsSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	friends := new(mocks.FriendRepositoryMock)
	handler := NewFriendHandler(users, friends, new(mocks.BrokerMock), nil, testLogger())
	router := setupFriendRouter(handler)

	friends.On("ListFriendIDs", mock.Anything, "u1").Return([]string{"u2"}, nil).Once()
	users.On("GetUsers", mock.Anything, []string{"u2"}).Return([]models.User{{ID: "u2", Name: "Bob"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/friends", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Friends []models.User `json:"friends"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Friends, 1)
	assert.Equal(t, "Bob", resp.Friends[0].Name)
	users.AssertExpectations(t)
	friends.AssertExpectations(t)
}

func TestListRequestsSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	friends := new(mocks.FriendRepositoryMock)
	handler := NewFriendHandler(users, friends, new(mocks.BrokerMock), nil, testLogger())
	router := setupFriendRouter(handler)

	friends.On("ListIncomingRequestIDs", mock.Anything, "u1").Return([]string{"u3"}, nil).Once()
	users.On("GetUser", mock.Anything, "u3").Return(models.User{ID: "u3", Email: "carol@example.com"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/friends/requests", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Requests []models.FriendRequest `json:"requests"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Requests, 1)
	assert.Equal(t, "carol@example.com", resp.Requests[0].SenderEmail)
	users.AssertExpectations(t)
	friends.AssertExpectations(t)
}

func TestListRequestsRepoError(t *testing.T) {
	friends := new(mocks.FriendRepositoryMock)
	handler := NewFriendHandler(new(mocks.UserRepositoryMock), friends, new(mocks.BrokerMock), nil, testLogger())
	router := setupFriendRouter(handler)

	friends.On("ListIncomingRequestIDs", mock.Anything, "u1").Return(([]string)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/friends/requests", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	friends.AssertExpectations(t)
}
