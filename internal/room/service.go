package room

import (
	"errors"
	"fmt"
	"log"

	"github.com/npezzotti/go-liveroom/internal/database"
	"github.com/npezzotti/go-liveroom/internal/identity"
	"github.com/npezzotti/go-liveroom/internal/stats"
	"github.com/npezzotti/go-liveroom/internal/types"
)

// DefaultMaxUserCount is the seat capacity of a room.
const DefaultMaxUserCount = 4

// listAttempts bounds retries of the room listing read. Listing is
// idempotent, so a transient storage failure is retried; the join-admission
// write never is, since a blind retry could admit twice.
const listAttempts = 2

// Service arbitrates the room lifecycle: creation, listing, join admission
// and leave. All cross-step consistency is delegated to the repository's
// transactions; the service holds no room state of its own.
type Service struct {
	log      *log.Logger
	db       database.LiveRoomRepository
	ids      *identity.Store
	stats    stats.StatsProvider
	capacity int
}

func NewService(logger *log.Logger, db database.LiveRoomRepository, ids *identity.Store, sp stats.StatsProvider, capacity int) *Service {
	if capacity <= 0 {
		capacity = DefaultMaxUserCount
	}

	sp.RegisterMetric(stats.RoomsCreated)
	sp.RegisterMetric(stats.JoinsAdmitted)
	sp.RegisterMetric(stats.JoinsRejected)
	sp.RegisterMetric(stats.RoomsDisbanded)

	return &Service{
		log:      logger,
		db:       db,
		ids:      ids,
		stats:    sp,
		capacity: capacity,
	}
}

// Create opens a room for liveId and seats the caller as its first member.
func (s *Service) Create(token string, liveId int, difficulty types.LiveDifficulty) (int, error) {
	user, err := s.ids.Resolve(token)
	if err != nil {
		return 0, err
	}

	room, err := s.db.CreateRoom(database.CreateRoomParams{
		LiveId:       liveId,
		MaxUserCount: s.capacity,
		HostId:       user.Id,
		Difficulty:   int(difficulty),
	})
	if err != nil {
		return 0, fmt.Errorf("create room: %w", err)
	}

	s.stats.Incr(stats.RoomsCreated)
	s.log.Printf("user %d created room %d for live %d", user.Id, room.Id, liveId)

	return room.Id, nil
}

// List returns rooms for liveId; zero is a wildcard for all rooms.
func (s *Service) List(liveId int) ([]types.RoomInfo, error) {
	var rooms []database.Room
	var err error
	for attempt := 0; attempt < listAttempts; attempt++ {
		rooms, err = s.db.ListRooms(liveId)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	var infos = make([]types.RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, types.RoomInfo{
			RoomId:          room.Id,
			LiveId:          room.LiveId,
			JoinedUserCount: room.JoinedUserCount,
			MaxUserCount:    room.MaxUserCount,
		})
	}

	return infos, nil
}

// Join attempts to seat the caller in roomId and classifies the outcome.
// Repository errors that describe a business outcome become a
// JoinRoomResult; anything else is a storage failure and returns an error.
// The admission write is never retried here: a retry without the row lock
// could admit twice.
func (s *Service) Join(token string, roomId int, difficulty types.LiveDifficulty) (types.JoinRoomResult, error) {
	user, err := s.ids.Resolve(token)
	if err != nil {
		return 0, err
	}

	_, err = s.db.JoinRoom(roomId, user.Id, int(difficulty))
	switch {
	case err == nil:
		s.stats.Incr(stats.JoinsAdmitted)
		return types.JoinOk, nil
	case errors.Is(err, database.ErrRoomNotFound):
		s.stats.Incr(stats.JoinsRejected)
		return types.JoinDisbanded, nil
	case errors.Is(err, database.ErrRoomFull):
		s.stats.Incr(stats.JoinsRejected)
		return types.JoinRoomFull, nil
	case errors.Is(err, database.ErrRoomOverCapacity):
		// Unreachable while the capacity invariant holds. Seeing it means
		// the ledger and the counter have diverged.
		s.log.Printf("LEDGER CORRUPTION: room %d joined_user_count exceeds max_user_count", roomId)
		s.stats.Incr(stats.JoinsRejected)
		return types.JoinOtherError, nil
	case errors.Is(err, database.ErrAlreadyJoined):
		s.stats.Incr(stats.JoinsRejected)
		return types.JoinOtherError, nil
	default:
		return 0, fmt.Errorf("join room: %w", err)
	}
}

// Leave gives the caller's seat back. The repository disbands the room when
// the last member leaves.
func (s *Service) Leave(token string, roomId int) error {
	user, err := s.ids.Resolve(token)
	if err != nil {
		return err
	}

	disbanded, err := s.db.LeaveRoom(roomId, user.Id)
	if err != nil {
		return err
	}

	if disbanded {
		s.stats.Incr(stats.RoomsDisbanded)
		s.log.Printf("room %d disbanded", roomId)
	}

	return nil
}
