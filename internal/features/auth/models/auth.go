package models

import "time"

// VerifyInitRequest carries the raw init-data string produced by the
// Telegram WebApp host.
type VerifyInitRequest struct {
	InitData string `json:"initData"`
}

// VerifyTokenRequest carries a one-time login token from a bot deep link.
type VerifyTokenRequest struct {
	Token string `json:"token"`
}

// VerifiedUser is the identity returned by both verification endpoints.
type VerifiedUser struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
}

// LoginToken is a single-use token binding a browser session to a Telegram
// user. Issued by the bot, consumed exactly once by /api/verify-token.
type LoginToken struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Fullname  string    `json:"fullname"`
	CreatedAt time.Time `json:"created_at"`
}
