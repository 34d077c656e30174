package password

import "golang.org/x/crypto/bcrypt"

const (
	// DefaultCost is the default bcrypt cost
	DefaultCost = 12

	// MinLength is the minimum accepted password length
	MinLength = 8
)

// Hash hashes a password using bcrypt
func Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify compares a password with a hash
func Verify(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
