package database

import (
	"database/sql"
	"errors"
	"time"
)

const (
	createMemberQuery = "INSERT INTO room_members (room_id, user_id, difficulty, created_at) " +
		"VALUES ($1, $2, $3, $4) RETURNING id, room_id, user_id"
	lockRoomQuery = "SELECT id, live_id, joined_user_count, max_user_count FROM rooms " +
		"WHERE id = $1 FOR UPDATE"
)

func insertMember(tx *sql.Tx, roomId, userId, difficulty int) (RoomMember, error) {
	row := tx.QueryRow(
		createMemberQuery,
		roomId,
		userId,
		difficulty,
		time.Now().UTC(),
	)

	var m RoomMember
	err := row.Scan(
		&m.Id,
		&m.RoomId,
		&m.UserId,
	)

	return m, err
}

func (db *PgLiveRoomRepository) CreateUser(params CreateUserParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO users (name, token, leader_card_id, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, name, token, leader_card_id",
		params.Name,
		params.Token,
		params.LeaderCardId,
		time.Now().UTC(),
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Name,
		&u.Token,
		&u.LeaderCardId,
	)

	return u, err
}

func (db *PgLiveRoomRepository) GetUserByToken(token string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, leader_card_id FROM users "+
			"WHERE token = $1 LIMIT 1",
		token,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Name,
		&user.LeaderCardId,
	)

	return user, err
}

func (db *PgLiveRoomRepository) UpdateUserByToken(params UpdateUserParams) (User, error) {
	res := db.conn.QueryRow(
		"UPDATE users SET name = $2, leader_card_id = $3, updated_at = $4 "+
			"WHERE token = $1 RETURNING id, name, leader_card_id",
		params.Token,
		params.Name,
		params.LeaderCardId,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Name,
		&u.LeaderCardId,
	)

	return u, err
}

// CreateRoom inserts the room with the host already counted and the host's
// membership row in a single transaction, so a room is never observable
// without its creator.
func (db *PgLiveRoomRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Room{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res := tx.QueryRow(
		"INSERT INTO rooms (live_id, joined_user_count, max_user_count, created_at, updated_at) "+
			"VALUES ($1, 1, $2, $3, $4) RETURNING id, live_id, joined_user_count, max_user_count",
		params.LiveId,
		params.MaxUserCount,
		time.Now().UTC(),
		time.Now().UTC(),
	)

	var room Room
	err = res.Scan(
		&room.Id,
		&room.LiveId,
		&room.JoinedUserCount,
		&room.MaxUserCount,
	)
	if err != nil {
		return Room{}, err
	}

	_, err = insertMember(tx, room.Id, params.HostId, params.Difficulty)
	if err != nil {
		return Room{}, err
	}

	if err = tx.Commit(); err != nil {
		return Room{}, err
	}

	return room, nil
}

// ListRooms returns rooms in insertion order. A liveId of zero is a
// wildcard matching every room.
func (db *PgLiveRoomRepository) ListRooms(liveId int) ([]Room, error) {
	query := "SELECT id, live_id, joined_user_count, max_user_count FROM rooms ORDER BY id"
	args := []any{}
	if liveId != 0 {
		query = "SELECT id, live_id, joined_user_count, max_user_count FROM rooms " +
			"WHERE live_id = $1 ORDER BY id"
		args = append(args, liveId)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms = make([]Room, 0)
	for rows.Next() {
		var room Room
		if err = rows.Scan(&room.Id, &room.LiveId, &room.JoinedUserCount, &room.MaxUserCount); err != nil {
			break
		}

		rooms = append(rooms, room)
	}
	if err != nil {
		return nil, err
	}

	return rooms, rows.Err()
}

// JoinRoom admits userId into roomId if a seat is free. The room row is
// locked before the capacity check, so two concurrent joins against the
// last seat serialize and exactly one is admitted. The membership insert
// and the counter increment commit together or not at all.
func (db *PgLiveRoomRepository) JoinRoom(roomId, userId, difficulty int) (Room, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Room{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	row := tx.QueryRow(lockRoomQuery, roomId)

	var room Room
	err = row.Scan(
		&room.Id,
		&room.LiveId,
		&room.JoinedUserCount,
		&room.MaxUserCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrRoomNotFound
		}
		return Room{}, err
	}

	switch {
	case room.JoinedUserCount == room.MaxUserCount:
		err = ErrRoomFull
		return Room{}, err
	case room.JoinedUserCount > room.MaxUserCount:
		err = ErrRoomOverCapacity
		return Room{}, err
	}

	_, err = insertMember(tx, room.Id, userId, difficulty)
	if err != nil {
		if IsUniqueViolation(err) {
			err = ErrAlreadyJoined
		}
		return Room{}, err
	}

	err = tx.QueryRow(
		"UPDATE rooms SET joined_user_count = joined_user_count + 1, updated_at = $2 "+
			"WHERE id = $1 RETURNING joined_user_count",
		room.Id,
		time.Now().UTC(),
	).Scan(&room.JoinedUserCount)
	if err != nil {
		return Room{}, err
	}

	if err = tx.Commit(); err != nil {
		return Room{}, err
	}

	return room, nil
}

// LeaveRoom removes userId's membership under the same room row lock the
// join path takes. The last member out deletes the room, which is what
// makes later joins observe Disbanded.
func (db *PgLiveRoomRepository) LeaveRoom(roomId, userId int) (bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	row := tx.QueryRow(lockRoomQuery, roomId)

	var room Room
	err = row.Scan(
		&room.Id,
		&room.LiveId,
		&room.JoinedUserCount,
		&room.MaxUserCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrRoomNotFound
		}
		return false, err
	}

	res, err := tx.Exec(
		"DELETE FROM room_members WHERE room_id = $1 AND user_id = $2",
		room.Id,
		userId,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		err = ErrNotJoined
		return false, err
	}

	var disbanded bool
	if room.JoinedUserCount <= 1 {
		_, err = tx.Exec("DELETE FROM rooms WHERE id = $1", room.Id)
		if err != nil {
			return false, err
		}
		disbanded = true
	} else {
		_, err = tx.Exec(
			"UPDATE rooms SET joined_user_count = joined_user_count - 1, updated_at = $2 WHERE id = $1",
			room.Id,
			time.Now().UTC(),
		)
		if err != nil {
			return false, err
		}
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}

	return disbanded, nil
}
