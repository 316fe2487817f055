package types

// SafeUser is the user record with the token stripped out. It is the only
// user shape that ever leaves the service.
type SafeUser struct {
	Id           int    `json:"id"`
	Name         string `json:"name"`
	LeaderCardId int    `json:"leader_card_id"`
}

type RoomInfo struct {
	RoomId          int `json:"room_id"`
	LiveId          int `json:"live_id"`
	JoinedUserCount int `json:"joined_user_count"`
	MaxUserCount    int `json:"max_user_count"`
}

// LiveDifficulty is the closed set of difficulty tags. Values travel as
// JSON integers on the wire.
type LiveDifficulty int

const (
	DifficultyNormal LiveDifficulty = 1
	DifficultyHard   LiveDifficulty = 2
)

func (d LiveDifficulty) Valid() bool {
	return d == DifficultyNormal || d == DifficultyHard
}

func (d LiveDifficulty) String() string {
	switch d {
	case DifficultyNormal:
		return "normal"
	case DifficultyHard:
		return "hard"
	default:
		return "unknown"
	}
}

// JoinRoomResult classifies the outcome of a join attempt. It is a business
// outcome, not an error channel: every value is delivered in a 200 response.
type JoinRoomResult int

const (
	JoinOk JoinRoomResult = iota + 1
	JoinRoomFull
	JoinDisbanded
	JoinOtherError
)

func (r JoinRoomResult) String() string {
	switch r {
	case JoinOk:
		return "Ok"
	case JoinRoomFull:
		return "RoomFull"
	case JoinDisbanded:
		return "Disbanded"
	case JoinOtherError:
		return "OtherError"
	default:
		return "unknown"
	}
}
