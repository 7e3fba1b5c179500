package regional

import (
	"encoding/json"
	"net/http"

	"partymatch/internal/models"
	"partymatch/internal/utils"
)

type preferencesReq struct {
	PlayerID    string                  `json:"playerId"`
	Preferences models.MatchPreferences `json:"preferences"`
}

// SetPreferencesHandler stores a player's regional criteria.
func (m *Matcher) SetPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	var req preferencesReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "invalid json"})
		return
	}
	if req.PlayerID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "playerId required"})
		return
	}

	m.SetPlayerPreferences(req.PlayerID, req.Preferences)
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: "preferences stored"})
}

// FindMatchHandler lists compatible players; an empty list is a valid
// answer.
func (m *Matcher) FindMatchHandler(w http.ResponseWriter, r *http.Request) {
	var req preferencesReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "invalid json"})
		return
	}

	matches := m.FindMatch(req.PlayerID, req.Preferences)
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: matches})
}

// CreateSessionHandler pins a group to a regional server.
func (m *Matcher) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Region    string   `json:"region"`
		PlayerIDs []string `json:"playerIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "invalid json"})
		return
	}
	if len(req.PlayerIDs) == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "playerIds required"})
		return
	}

	session := m.CreateRegionalSession(req.Region, req.PlayerIDs)
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: session})
}
