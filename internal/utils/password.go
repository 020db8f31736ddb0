package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt hash of an operator password using the
// given cost.  Costs outside bcrypt's supported range fall back to the
// library default.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares a bcrypt hash and a plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
