// file: model/token.go

package model

import "time"

// TokenResponse is returned when an access token is issued.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
