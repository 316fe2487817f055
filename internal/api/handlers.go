package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/npezzotti/go-liveroom/internal/database"
	"github.com/npezzotti/go-liveroom/internal/identity"
	"github.com/npezzotti/go-liveroom/internal/types"
)

type UserCreateRequest struct {
	UserName     string `json:"user_name"`
	LeaderCardId int    `json:"leader_card_id"`
}

type UserCreateResponse struct {
	UserToken string `json:"user_token"`
}

type UserUpdateRequest struct {
	UserName     string `json:"user_name"`
	LeaderCardId int    `json:"leader_card_id"`
}

type RoomCreateRequest struct {
	LiveId           int                  `json:"live_id"`
	SelectDifficulty types.LiveDifficulty `json:"select_difficulty"`
}

type RoomCreateResponse struct {
	RoomId int `json:"room_id"`
}

type RoomListRequest struct {
	LiveId int `json:"live_id"`
}

type RoomListResponse struct {
	RoomInfo []types.RoomInfo `json:"room_info"`
}

type RoomJoinRequest struct {
	RoomId           int                  `json:"room_id"`
	SelectDifficulty types.LiveDifficulty `json:"select_difficulty"`
}

type RoomJoinResponse struct {
	Result types.JoinRoomResult `json:"result"`
}

type RoomLeaveRequest struct {
	RoomId int `json:"room_id"`
}

// Empty is the body of responses that carry no data.
type Empty struct{}

func (s *LiveRoomApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *LiveRoomApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Printf("health check: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *LiveRoomApp) userCreate(w http.ResponseWriter, r *http.Request) {
	var req UserCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.UserName == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	token, err := s.ids.Register(req.UserName, req.LeaderCardId)
	if err != nil {
		s.log.Println("register user:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, UserCreateResponse{UserToken: token})
}

func (s *LiveRoomApp) userMe(w http.ResponseWriter, r *http.Request) {
	token, ok := Token(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.ids.Resolve(token)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, identity.ErrInvalidToken) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, user)
}

func (s *LiveRoomApp) userUpdate(w http.ResponseWriter, r *http.Request) {
	token, ok := Token(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req UserUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.UserName == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.ids.Update(token, req.UserName, req.LeaderCardId); err != nil {
		var errResp *ApiError
		if errors.Is(err, identity.ErrInvalidToken) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, Empty{})
}

func (s *LiveRoomApp) roomCreate(w http.ResponseWriter, r *http.Request) {
	token, ok := Token(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req RoomCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !req.SelectDifficulty.Valid() {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	roomId, err := s.rooms.Create(token, req.LiveId, req.SelectDifficulty)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, identity.ErrInvalidToken) {
			errResp = NewUnauthorizedError()
		} else {
			s.log.Println("create room:", err)
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, RoomCreateResponse{RoomId: roomId})
}

func (s *LiveRoomApp) roomList(w http.ResponseWriter, r *http.Request) {
	var req RoomListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.LiveId < 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	rooms, err := s.rooms.List(req.LiveId)
	if err != nil {
		s.log.Println("list rooms:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, RoomListResponse{RoomInfo: rooms})
}

func (s *LiveRoomApp) roomJoin(w http.ResponseWriter, r *http.Request) {
	token, ok := Token(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req RoomJoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !req.SelectDifficulty.Valid() {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	result, err := s.rooms.Join(token, req.RoomId, req.SelectDifficulty)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, identity.ErrInvalidToken) {
			errResp = NewUnauthorizedError()
		} else {
			s.log.Println("join room:", err)
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, RoomJoinResponse{Result: result})
}

func (s *LiveRoomApp) roomLeave(w http.ResponseWriter, r *http.Request) {
	token, ok := Token(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req RoomLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.rooms.Leave(token, req.RoomId); err != nil {
		var errResp *ApiError
		switch {
		case errors.Is(err, identity.ErrInvalidToken):
			errResp = NewUnauthorizedError()
		case errors.Is(err, database.ErrRoomNotFound), errors.Is(err, database.ErrNotJoined):
			errResp = NewNotFoundError()
		default:
			s.log.Println("leave room:", err)
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, Empty{})
}
