package models

import "time"

// Wallet is the 1:1 companion record created for every user at registration.
// Balance is kept in minor currency units.
type Wallet struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	WalletKey string    `json:"walletKey"`
	Points    int64     `json:"points"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
