package sessions

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"partymatch/internal/history"
	"partymatch/internal/models"
	"partymatch/internal/narrator"
	"partymatch/internal/ratings"
	"partymatch/internal/utils"
)

// Handlers exposes the session surface over HTTP.
type Handlers struct {
	manager  *Manager
	prefs    *PreferenceMatcher
	codes    *CodeService
	ratings  *ratings.Store
	history  *history.Store
	narrator narrator.Narrator
	logger   *zap.Logger
}

func NewHandlers(manager *Manager, prefs *PreferenceMatcher, codes *CodeService, rs *ratings.Store, hs *history.Store, n narrator.Narrator, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	if n == nil {
		n = narrator.Static{}
	}
	return &Handlers{
		manager:  manager,
		prefs:    prefs,
		codes:    codes,
		ratings:  rs,
		history:  hs,
		narrator: n,
		logger:   logger,
	}
}

func (h *Handlers) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "invalid json"})
		return
	}
	if req.Player.ID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "player id required"})
		return
	}

	session, err := h.manager.CreateSession(r.Context(), req.Mode, req.Player, req.Settings)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: err.Error()})
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: session})
}

func (h *Handlers) JoinHandler(w http.ResponseWriter, r *http.Request) {
	var req models.JoinSessionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "invalid json"})
		return
	}

	session, err := h.manager.JoinSession(r.Context(), req.SessionID, req.Player)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: session})
}

func (h *Handlers) AssignDMHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AssignDMReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "invalid json"})
		return
	}

	if err := h.manager.AssignDM(req.SessionID, req.PlayerID); err != nil {
		h.writeSessionError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: "dm assigned"})
}

func (h *Handlers) StartHandler(w http.ResponseWriter, r *http.Request) {
	var req models.StartSessionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "invalid json"})
		return
	}

	session, err := h.manager.StartSession(r.Context(), req.SessionID)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: session})
}

func (h *Handlers) GetHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "sessionId required"})
		return
	}

	session, err := h.manager.Session(sessionID)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: session})
}

// GenerateCodeHandler issues a join code for an existing session.
func (h *Handlers) GenerateCodeHandler(w http.ResponseWriter, r *http.Request) {
	var req models.StartSessionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "invalid json"})
		return
	}

	if _, err := h.manager.Session(req.SessionID); err != nil {
		h.writeSessionError(w, err)
		return
	}

	code, err := h.codes.GenerateCode(r.Context(), req.SessionID)
	if err != nil {
		h.logger.Error("failed to generate game code", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, models.Resp{OK: false, Info: "failed to generate code"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: code})
}

// ValidateCodeHandler resolves a join code to its session id.
func (h *Handlers) ValidateCodeHandler(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "code required"})
		return
	}

	sessionID, err := h.codes.ValidateCode(r.Context(), code)
	if errors.Is(err, models.ErrCodeNotFound) {
		utils.WriteJSON(w, http.StatusNotFound, models.Resp{OK: false, Info: err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("code validation failed", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, models.Resp{OK: false, Info: "code validation failed"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: sessionID})
}

// FindOrCreateHandler runs AI-DM preference matching.
func (h *Handlers) FindOrCreateHandler(w http.ResponseWriter, r *http.Request) {
	var req models.FindOrCreateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "invalid json"})
		return
	}
	if req.Player.ID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "player id required"})
		return
	}

	session := h.prefs.FindOrCreate(req.Player, req.Preferences)
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: session})
}

// LeavePreferenceHandler removes a player from a preference session.
func (h *Handlers) LeavePreferenceHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
		PlayerID  string `json:"playerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "invalid json"})
		return
	}

	h.prefs.Leave(req.SessionID, req.PlayerID)
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: "left session"})
}

// FeedbackHandler folds post-session peer ratings into the store.
func (h *Handlers) FeedbackHandler(w http.ResponseWriter, r *http.Request) {
	var req models.SessionFeedbackReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "invalid json"})
		return
	}
	if req.PlayerID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "playerId required"})
		return
	}

	updated, err := h.ratings.ApplyFeedback(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to apply session feedback", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, models.Resp{OK: false, Info: "failed to apply feedback"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: updated})
}

// HistoryHandler lists recently formed matches.
func (h *Handlers) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	records, err := h.history.RecentMatches(r.Context(), 20)
	if err != nil {
		h.logger.Error("failed to load match history", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, models.Resp{OK: false, Info: "failed to load history"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: records})
}

// NarrateHandler produces DM narration for a player action in an
// AI-DM session. Generation failures degrade to canned lines, so this
// endpoint only errors on bad input.
func (h *Handlers) NarrateHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
		Action    string `json:"action"`
		Kind      string `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "invalid json"})
		return
	}

	session, err := h.manager.Session(req.SessionID)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	if session.Mode == models.ModeFriendDM {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "session has a human DM"})
		return
	}

	text := h.narrator.Generate(r.Context(), req.Action, req.Kind)
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: text})
}

func (h *Handlers) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrSessionNotFound), errors.Is(err, models.ErrPlayerNotFound):
		utils.WriteJSON(w, http.StatusNotFound, models.Resp{OK: false, Info: err.Error()})
	case errors.Is(err, models.ErrSessionFull):
		utils.WriteJSON(w, http.StatusConflict, models.Resp{OK: false, Info: err.Error()})
	case models.IsValidation(err):
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: err.Error()})
	default:
		utils.WriteJSON(w, http.StatusInternalServerError, models.Resp{OK: false, Info: err.Error()})
	}
}
