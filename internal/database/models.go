package database

import "time"

type User struct {
	Id           int
	Name         string
	Token        string
	LeaderCardId int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Room struct {
	Id              int
	LiveId          int
	JoinedUserCount int
	MaxUserCount    int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type RoomMember struct {
	Id         int
	RoomId     int
	UserId     int
	Difficulty int
	CreatedAt  time.Time
}

type CreateUserParams struct {
	Name         string
	Token        string
	LeaderCardId int
}

type UpdateUserParams struct {
	Token        string
	Name         string
	LeaderCardId int
}

type CreateRoomParams struct {
	LiveId       int
	MaxUserCount int
	HostId       int
	Difficulty   int
}
