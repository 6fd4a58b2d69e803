package api

import "github.com/golang-jwt/jwt/v4"

type Claims struct {
	jwt.RegisteredClaims
}

type LoginRequest struct {
	APIKey string `json:"api_key"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type SendTransactionRequest struct {
	PuzzleHash string `json:"puzzlehash"`
	Amount     string `json:"amount"`
}

type FarmBlockRequest struct {
	PuzzleHash string `json:"puzzle_hash"`
}

type OpenConnectionRequest struct {
	Host string `json:"host"`
	Port string `json:"port"`
}

type CloseConnectionRequest struct {
	NodeID string `json:"node_id"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
