package auth

import "time"

// User is the public view of a registered shopper.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// account is the persisted user record. The password is stored and compared
// in plaintext; hashing it is a known follow-up.
type account struct {
	User
	Password string `json:"password"`
}

// Token is an issued bearer credential.
type Token struct {
	Value     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Valid reports whether the token is still usable at now.
func (t Token) Valid(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}
