package database

type LiveRoomRepository interface {
	Ping() error
	CreateUser(params CreateUserParams) (User, error)
	GetUserByToken(token string) (User, error)
	UpdateUserByToken(params UpdateUserParams) (User, error)
	CreateRoom(params CreateRoomParams) (Room, error)
	ListRooms(liveId int) ([]Room, error)
	JoinRoom(roomId, userId, difficulty int) (Room, error)
	LeaveRoom(roomId, userId int) (disbanded bool, err error)
}
