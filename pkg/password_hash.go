package pkg

import "golang.org/x/crypto/bcrypt"

const DefaultHashCost = 14

func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, DefaultHashCost)
}

func HashPasswordWithCost(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return BytesToString(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
