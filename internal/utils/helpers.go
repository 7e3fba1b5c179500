package utils

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"partymatch/internal/models"
)

// WriteJSON writes the standard API envelope.
func WriteJSON(w http.ResponseWriter, code int, resp models.Resp) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}

// WriteData writes an arbitrary JSON body.
func WriteData(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

// GenerateSessionToken signs a join token binding a player to a
// session for 24 hours.
func GenerateSessionToken(sessionID, playerID string, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sessionId": sessionID,
		"playerId":  playerID,
		"exp":       time.Now().Add(24 * time.Hour).Unix(),
		"iat":       time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseSessionToken verifies a join token and returns its session and
// player ids.
func ParseSessionToken(tokenString string, secret []byte) (sessionID, playerID string, err error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", jwt.ErrTokenInvalidClaims
	}
	sessionID, _ = claims["sessionId"].(string)
	playerID, _ = claims["playerId"].(string)
	return sessionID, playerID, nil
}
