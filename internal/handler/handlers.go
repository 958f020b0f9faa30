package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hallvik/quizrelay/internal/service"
	"github.com/hallvik/quizrelay/internal/ws"
)

type createRoomReq struct {
	QuizID    string `json:"quiz_id"`
	TimeLimit int    `json:"time_limit"`
}

type createRoomResp struct {
	RoomCode       string `json:"room_code"`
	OrganizerToken string `json:"organizer_token"`
}

// RegisterHandlers wires the control-plane HTTP surface of spec.md §6:
// room creation/status, liveness, and the realtime WebSocket upgrade.
func RegisterHandlers(mux *http.ServeMux, svc service.GameService, wsServer *ws.Server, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/room/create", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req createRoomReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Warn("create room bad json", zap.Error(err))
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.QuizID == "" || req.TimeLimit <= 0 {
			http.Error(w, "quiz_id and time_limit are required", http.StatusBadRequest)
			return
		}

		created, err := svc.CreateRoom(r.Context(), req.QuizID, time.Duration(req.TimeLimit)*time.Second)
		if err != nil {
			log.Warn("create room failed", zap.String("quiz_id", req.QuizID), zap.Error(err))
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		log.Info("room created", zap.String("code", created.RoomCode), zap.String("quiz_id", req.QuizID))
		_ = json.NewEncoder(w).Encode(createRoomResp{
			RoomCode:       created.RoomCode,
			OrganizerToken: created.OrganizerToken,
		})
	})

	mux.HandleFunc("/room/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		code := strings.TrimPrefix(r.URL.Path, "/room/")
		room, ok := svc.GetRoom(code)
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(room.Snapshot())
	})

	mux.HandleFunc("/ws/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/ws/")
		roomCode, _, _ := strings.Cut(rest, "/")
		log.Info("ws connect attempt", zap.String("room", roomCode))
		wsServer.ServeHTTP(w, r, roomCode)
	})
}
