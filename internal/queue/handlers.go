package queue

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"partymatch/internal/models"
	"partymatch/internal/utils"
)

// JoinHandler enqueues a player for matchmaking.
func (s *Scheduler) JoinHandler(w http.ResponseWriter, r *http.Request) {
	var req models.JoinQueueReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "invalid json"})
		return
	}

	if err := s.Join(r.Context(), &req); err != nil {
		if models.IsValidation(err) {
			utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: err.Error()})
			return
		}
		s.logger.Error("failed to join queue", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, models.Resp{OK: false, Info: "failed to join queue"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: "queued"})
}

// CancelHandler removes a player from the queue.
func (s *Scheduler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "invalid json"})
		return
	}
	if req.UserID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "userId required"})
		return
	}

	if err := s.Leave(r.Context(), req.UserID); err != nil {
		s.logger.Error("failed to leave queue", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, models.Resp{OK: false, Info: "failed to leave queue"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: "left queue"})
}

// CheckHandler reports whether a player is queued or matched.
func (s *Scheduler) CheckHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "userId required"})
		return
	}

	resp, err := s.Check(r.Context(), userID)
	if err != nil {
		s.logger.Error("failed to check queue status", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, models.Resp{OK: false, Info: "failed to check status"})
		return
	}
	utils.WriteData(w, http.StatusOK, resp)
}

// WsHandler upgrades the connection and registers it for match pushes.
// The connection is dropped when the client disconnects.
func (s *Scheduler) WsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s.connMu.Lock()
	if old, ok := s.connections[userID]; ok {
		old.Close()
	}
	s.connections[userID] = conn
	s.connMu.Unlock()

	s.logger.Debug("websocket connected", zap.String("userId", userID))

	go func() {
		defer func() {
			s.connMu.Lock()
			if s.connections[userID] == conn {
				delete(s.connections, userID)
			}
			s.connMu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
