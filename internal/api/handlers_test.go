package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/npezzotti/go-liveroom/internal/config"
	"github.com/npezzotti/go-liveroom/internal/database"
	"github.com/npezzotti/go-liveroom/internal/identity"
	"github.com/npezzotti/go-liveroom/internal/room"
	"github.com/npezzotti/go-liveroom/internal/stats"
	"github.com/npezzotti/go-liveroom/internal/testutil"
	"github.com/npezzotti/go-liveroom/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// newTestApp builds an app over the mock repository. Stats expectations are
// intentionally loose here; the service tests pin down the counters.
func newTestApp(t *testing.T, db database.LiveRoomRepository) *LiveRoomApp {
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything).Return()
	su.On("Incr", mock.Anything).Return()

	ids := identity.NewStore(testutil.TestLogger(t), db, su)
	rooms := room.NewService(testutil.TestLogger(t), db, ids, su, room.DefaultMaxUserCount)

	return NewLiveRoomApp(http.NewServeMux(), testutil.TestLogger(t), ids, rooms, db, &config.Config{})
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	if s, ok := body.(string); ok {
		return httptest.NewRequest(method, target, strings.NewReader(s))
	}

	buf, err := json.Marshal(body)
	assert.NoError(t, err, "failed to marshal request body")
	return httptest.NewRequest(method, target, bytes.NewBuffer(buf))
}

func authedRequest(t *testing.T, method, target string, body any, token string) *http.Request {
	t.Helper()
	req := jsonRequest(t, method, target, body)
	return req.WithContext(WithToken(req.Context(), token))
}

func Test_healthCheck(t *testing.T) {
	tcases := []struct {
		name    string
		mockErr error
	}{
		{
			name:    "successful health check",
			mockErr: nil,
		},
		{
			name:    "failed health check",
			mockErr: errors.New("db error"),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockLiveRoomRepository{}
			defer mockRepo.AssertExpectations(t)
			mockRepo.On("Ping").Return(tc.mockErr).Once()

			app := newTestApp(t, mockRepo)
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			app.healthCheck(rr, req)

			if tc.mockErr != nil {
				assert.Equal(t, http.StatusInternalServerError, rr.Code, "expected status code to be 500")
			} else {
				assert.Equal(t, http.StatusOK, rr.Code, "expected status code to be 200")
				assert.Equal(t, "OK", rr.Body.String(), "expected response body to be 'OK'")
			}
		})
	}
}

func TestUserCreateHandler(t *testing.T) {
	tcases := []struct {
		name        string
		body        any
		mockErr     error
		setupMock   bool
		expectedErr *ApiError
	}{
		{
			name:      "successfully registers a user",
			body:      UserCreateRequest{UserName: "alice", LeaderCardId: 3},
			setupMock: true,
		},
		{
			name:        "fails with invalid json body",
			body:        "invalid json",
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "fails with missing user name",
			body:        UserCreateRequest{LeaderCardId: 3},
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "fails with db error",
			body:        UserCreateRequest{UserName: "alice", LeaderCardId: 3},
			mockErr:     errors.New("db error"),
			setupMock:   true,
			expectedErr: NewInternalServerError(nil),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockLiveRoomRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.setupMock {
				mockRepo.On("CreateUser", mock.MatchedBy(func(p database.CreateUserParams) bool {
					return p.Name == "alice" && p.LeaderCardId == 3 && p.Token != ""
				})).Return(database.User{Id: 1, Name: "alice", LeaderCardId: 3}, tc.mockErr).Once()
			}

			app := newTestApp(t, mockRepo)
			rr := httptest.NewRecorder()
			app.userCreate(rr, jsonRequest(t, http.MethodPost, "/user/create", tc.body))

			if tc.expectedErr == nil {
				assert.Equal(t, http.StatusOK, rr.Code)

				var resp UserCreateResponse
				err := json.NewDecoder(rr.Body).Decode(&resp)
				assert.NoError(t, err, "failed to decode response")
				assert.NotEmpty(t, resp.UserToken, "expected a token in the response")
			} else {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code, "expected status code to match")
			}
		})
	}
}

func TestUserMeHandler(t *testing.T) {
	tcases := []struct {
		name        string
		token       string
		mockUser    database.User
		mockErr     error
		setupMock   bool
		expectedErr *ApiError
	}{
		{
			name:      "returns the caller's identity",
			token:     "t1",
			mockUser:  database.User{Id: 1, Name: "alice", LeaderCardId: 3},
			setupMock: true,
		},
		{
			name:        "unknown token",
			token:       "t1",
			mockErr:     sql.ErrNoRows,
			setupMock:   true,
			expectedErr: NewNotFoundError(),
		},
		{
			name:        "storage error",
			token:       "t1",
			mockErr:     errors.New("db error"),
			setupMock:   true,
			expectedErr: NewInternalServerError(nil),
		},
		{
			name:        "no token in context",
			expectedErr: NewUnauthorizedError(),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockLiveRoomRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.setupMock {
				mockRepo.On("GetUserByToken", tc.token).Return(tc.mockUser, tc.mockErr).Once()
			}

			app := newTestApp(t, mockRepo)
			req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
			if tc.token != "" {
				req = req.WithContext(WithToken(req.Context(), tc.token))
			}

			rr := httptest.NewRecorder()
			app.userMe(rr, req)

			if tc.expectedErr == nil {
				assert.Equal(t, http.StatusOK, rr.Code)

				var user types.SafeUser
				err := json.NewDecoder(rr.Body).Decode(&user)
				assert.NoError(t, err, "failed to decode response")
				assert.Equal(t, tc.mockUser.Id, user.Id)
				assert.Equal(t, tc.mockUser.Name, user.Name)
				assert.Equal(t, tc.mockUser.LeaderCardId, user.LeaderCardId)
			} else {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code, "expected status code to match")
			}
		})
	}
}

func TestUserUpdateHandler(t *testing.T) {
	tcases := []struct {
		name        string
		body        any
		mockErr     error
		setupMock   bool
		expectedErr *ApiError
	}{
		{
			name:      "updates the caller's identity",
			body:      UserUpdateRequest{UserName: "alice2", LeaderCardId: 5},
			setupMock: true,
		},
		{
			name:        "fails with invalid json body",
			body:        "invalid json",
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "fails with missing user name",
			body:        UserUpdateRequest{LeaderCardId: 5},
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "unknown token",
			body:        UserUpdateRequest{UserName: "alice2", LeaderCardId: 5},
			mockErr:     sql.ErrNoRows,
			setupMock:   true,
			expectedErr: NewNotFoundError(),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockLiveRoomRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.setupMock {
				params := database.UpdateUserParams{Token: "t1", Name: "alice2", LeaderCardId: 5}
				mockRepo.On("UpdateUserByToken", params).Return(database.User{Id: 1, Name: "alice2", LeaderCardId: 5}, tc.mockErr).Once()
			}

			app := newTestApp(t, mockRepo)
			rr := httptest.NewRecorder()
			app.userUpdate(rr, authedRequest(t, http.MethodPost, "/user/update", tc.body, "t1"))

			if tc.expectedErr == nil {
				assert.Equal(t, http.StatusOK, rr.Code)
				assert.JSONEq(t, "{}", rr.Body.String(), "expected empty object response")
			} else {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code, "expected status code to match")
			}
		})
	}
}

func TestRoomCreateHandler(t *testing.T) {
	tcases := []struct {
		name        string
		body        any
		resolveErr  error
		createErr   error
		setupMock   bool
		expectedErr *ApiError
	}{
		{
			name:      "creates a room with the caller seated",
			body:      RoomCreateRequest{LiveId: 10, SelectDifficulty: types.DifficultyNormal},
			setupMock: true,
		},
		{
			name:        "fails with invalid json body",
			body:        "invalid json",
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "fails with unknown difficulty",
			body:        RoomCreateRequest{LiveId: 10, SelectDifficulty: 9},
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "unresolvable token",
			body:        RoomCreateRequest{LiveId: 10, SelectDifficulty: types.DifficultyNormal},
			resolveErr:  sql.ErrNoRows,
			setupMock:   true,
			expectedErr: NewUnauthorizedError(),
		},
		{
			name:        "fails with db error",
			body:        RoomCreateRequest{LiveId: 10, SelectDifficulty: types.DifficultyNormal},
			createErr:   errors.New("db error"),
			setupMock:   true,
			expectedErr: NewInternalServerError(nil),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockLiveRoomRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.setupMock {
				mockRepo.On("GetUserByToken", "t1").Return(database.User{Id: 7}, tc.resolveErr).Once()
				if tc.resolveErr == nil {
					mockRepo.On("CreateRoom", database.CreateRoomParams{
						LiveId:       10,
						MaxUserCount: room.DefaultMaxUserCount,
						HostId:       7,
						Difficulty:   int(types.DifficultyNormal),
					}).Return(database.Room{Id: 42, LiveId: 10, JoinedUserCount: 1, MaxUserCount: 4}, tc.createErr).Once()
				}
			}

			app := newTestApp(t, mockRepo)
			rr := httptest.NewRecorder()
			app.roomCreate(rr, authedRequest(t, http.MethodPost, "/room/create", tc.body, "t1"))

			if tc.expectedErr == nil {
				assert.Equal(t, http.StatusOK, rr.Code)

				var resp RoomCreateResponse
				err := json.NewDecoder(rr.Body).Decode(&resp)
				assert.NoError(t, err, "failed to decode response")
				assert.Equal(t, 42, resp.RoomId)
			} else {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code, "expected status code to match")
			}
		})
	}
}

func TestRoomListHandler(t *testing.T) {
	tcases := []struct {
		name        string
		body        any
		mockRooms   []database.Room
		mockErr     error
		setupMock   bool
		expected    []types.RoomInfo
		expectedErr *ApiError
	}{
		{
			name: "lists rooms for a live",
			body: RoomListRequest{LiveId: 10},
			mockRooms: []database.Room{
				{Id: 1, LiveId: 10, JoinedUserCount: 1, MaxUserCount: 4},
			},
			setupMock: true,
			expected: []types.RoomInfo{
				{RoomId: 1, LiveId: 10, JoinedUserCount: 1, MaxUserCount: 4},
			},
		},
		{
			name:      "wildcard lists every room",
			body:      RoomListRequest{LiveId: 0},
			mockRooms: []database.Room{},
			setupMock: true,
			expected:  []types.RoomInfo{},
		},
		{
			name:        "fails with invalid json body",
			body:        "invalid json",
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "fails with negative live id",
			body:        RoomListRequest{LiveId: -1},
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "fails with db error",
			body:        RoomListRequest{LiveId: 10},
			mockErr:     errors.New("db error"),
			setupMock:   true,
			expectedErr: NewInternalServerError(nil),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockLiveRoomRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.setupMock {
				liveId := tc.body.(RoomListRequest).LiveId
				if tc.mockErr != nil {
					// reads are retried once on storage failure
					mockRepo.On("ListRooms", liveId).Return(tc.mockRooms, tc.mockErr).Twice()
				} else {
					mockRepo.On("ListRooms", liveId).Return(tc.mockRooms, tc.mockErr).Once()
				}
			}

			app := newTestApp(t, mockRepo)
			rr := httptest.NewRecorder()
			app.roomList(rr, jsonRequest(t, http.MethodPost, "/room/list", tc.body))

			if tc.expectedErr == nil {
				assert.Equal(t, http.StatusOK, rr.Code)

				var resp RoomListResponse
				err := json.Unmarshal(rr.Body.Bytes(), &resp)
				assert.NoError(t, err, "failed to decode response")
				assert.Equal(t, tc.expected, resp.RoomInfo)
				// the room_info key must be a list even when empty
				assert.Contains(t, rr.Body.String(), "room_info")
			} else {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code, "expected status code to match")
			}
		})
	}
}

func TestRoomJoinHandler(t *testing.T) {
	tcases := []struct {
		name           string
		body           any
		joinErr        error
		setupMock      bool
		expectedResult types.JoinRoomResult
		expectedErr    *ApiError
	}{
		{
			name:           "admitted",
			body:           RoomJoinRequest{RoomId: 42, SelectDifficulty: types.DifficultyHard},
			setupMock:      true,
			expectedResult: types.JoinOk,
		},
		{
			name:           "room full",
			body:           RoomJoinRequest{RoomId: 42, SelectDifficulty: types.DifficultyHard},
			joinErr:        database.ErrRoomFull,
			setupMock:      true,
			expectedResult: types.JoinRoomFull,
		},
		{
			name:           "room disbanded",
			body:           RoomJoinRequest{RoomId: 42, SelectDifficulty: types.DifficultyHard},
			joinErr:        database.ErrRoomNotFound,
			setupMock:      true,
			expectedResult: types.JoinDisbanded,
		},
		{
			name:           "already joined maps to other error",
			body:           RoomJoinRequest{RoomId: 42, SelectDifficulty: types.DifficultyHard},
			joinErr:        database.ErrAlreadyJoined,
			setupMock:      true,
			expectedResult: types.JoinOtherError,
		},
		{
			name:        "fails with invalid json body",
			body:        "invalid json",
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "fails with unknown difficulty",
			body:        RoomJoinRequest{RoomId: 42, SelectDifficulty: 0},
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "fails with db error",
			body:        RoomJoinRequest{RoomId: 42, SelectDifficulty: types.DifficultyHard},
			joinErr:     errors.New("db error"),
			setupMock:   true,
			expectedErr: NewInternalServerError(nil),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockLiveRoomRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.setupMock {
				mockRepo.On("GetUserByToken", "t1").Return(database.User{Id: 7}, nil).Once()
				mockRepo.On("JoinRoom", 42, 7, int(types.DifficultyHard)).
					Return(database.Room{Id: 42, JoinedUserCount: 2, MaxUserCount: 4}, tc.joinErr).Once()
			}

			app := newTestApp(t, mockRepo)
			rr := httptest.NewRecorder()
			app.roomJoin(rr, authedRequest(t, http.MethodGet, "/room/join", tc.body, "t1"))

			if tc.expectedErr == nil {
				assert.Equal(t, http.StatusOK, rr.Code, "join outcomes are 200 responses")

				var resp RoomJoinResponse
				err := json.NewDecoder(rr.Body).Decode(&resp)
				assert.NoError(t, err, "failed to decode response")
				assert.Equal(t, tc.expectedResult, resp.Result)
			} else {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code, "expected status code to match")
			}
		})
	}
}

func TestRoomLeaveHandler(t *testing.T) {
	tcases := []struct {
		name        string
		leaveErr    error
		disbanded   bool
		expectedErr *ApiError
	}{
		{
			name: "leaves the room",
		},
		{
			name:      "last member out disbands the room",
			disbanded: true,
		},
		{
			name:        "room does not exist",
			leaveErr:    database.ErrRoomNotFound,
			expectedErr: NewNotFoundError(),
		},
		{
			name:        "caller not a member",
			leaveErr:    database.ErrNotJoined,
			expectedErr: NewNotFoundError(),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockLiveRoomRepository{}
			defer mockRepo.AssertExpectations(t)

			mockRepo.On("GetUserByToken", "t1").Return(database.User{Id: 7}, nil).Once()
			mockRepo.On("LeaveRoom", 42, 7).Return(tc.disbanded, tc.leaveErr).Once()

			app := newTestApp(t, mockRepo)
			rr := httptest.NewRecorder()
			app.roomLeave(rr, authedRequest(t, http.MethodPost, "/room/leave", RoomLeaveRequest{RoomId: 42}, "t1"))

			if tc.expectedErr == nil {
				assert.Equal(t, http.StatusOK, rr.Code)
				assert.JSONEq(t, "{}", rr.Body.String(), "expected empty object response")
			} else {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code, "expected status code to match")
			}
		})
	}
}
