package auth

import "golang.org/x/crypto/bcrypt"

// HashString returns the bcrypt hash of s at the default cost. Used for
// passwords; never store s itself.
func HashString(s string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyHashedString reports whether s matches the bcrypt hash.
func VerifyHashedString(s, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(s)) == nil
}
