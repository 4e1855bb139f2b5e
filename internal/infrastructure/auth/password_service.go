package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/Mishael-2584/odel-portal/domain"
)

// BcryptPasswordService verifies admin credentials against bcrypt hashes.
// Student logins never touch this path; students authenticate with magic
// codes only.
type BcryptPasswordService struct {
	cost int
}

// NewPasswordService returns a password service at the default bcrypt cost.
func NewPasswordService() domain.PasswordService {
	return &BcryptPasswordService{cost: bcrypt.DefaultCost}
}

func (s *BcryptPasswordService) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches hashedPassword. Malformed hashes
// verify as false rather than erroring, so a corrupt admin row fails closed.
func (s *BcryptPasswordService) Verify(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

var _ domain.PasswordService = (*BcryptPasswordService)(nil)
