package database

import (
	"github.com/stretchr/testify/mock"
)

type MockLiveRoomRepository struct {
	mock.Mock
}

func (m *MockLiveRoomRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockLiveRoomRepository) CreateUser(params CreateUserParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockLiveRoomRepository) GetUserByToken(token string) (User, error) {
	args := m.Called(token)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockLiveRoomRepository) UpdateUserByToken(params UpdateUserParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockLiveRoomRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockLiveRoomRepository) ListRooms(liveId int) ([]Room, error) {
	args := m.Called(liveId)
	return args.Get(0).([]Room), args.Error(1)
}
func (m *MockLiveRoomRepository) JoinRoom(roomId, userId, difficulty int) (Room, error) {
	args := m.Called(roomId, userId, difficulty)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockLiveRoomRepository) LeaveRoom(roomId, userId int) (bool, error) {
	args := m.Called(roomId, userId)
	return args.Bool(0), args.Error(1)
}
