package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Mishael-2584/odel-portal/domain"
)

// Token type discriminators. A student token can never validate as an admin
// token and vice versa.
const (
	tokenTypeStudent = "student"
	tokenTypeAdmin   = "admin"
)

// JWTServiceImpl implements domain.TokenService
type JWTServiceImpl struct {
	secretKey  []byte
	issuer     string
	sessionTTL time.Duration
}

// NewJWTService creates a new JWT service. Both token kinds expire
// sessionTTL after issuance.
func NewJWTService(secretKey, issuer string, sessionTTL time.Duration) domain.TokenService {
	return &JWTServiceImpl{
		secretKey:  []byte(secretKey),
		issuer:     issuer,
		sessionTTL: sessionTTL,
	}
}

// generateJTI creates a unique JWT ID
func (j *JWTServiceImpl) generateJTI() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// GenerateStudentToken implements domain.TokenService
func (j *JWTServiceImpl) GenerateStudentToken(c *domain.StudentClaims) (string, error) {
	now := time.Now()
	exp := now.Add(j.sessionTTL)
	c.IssuedAt = now.Unix()
	c.ExpiresAt = exp.Unix()

	roles := c.Roles
	if len(roles) == 0 {
		roles = []string{"student"}
		c.Roles = roles
	}

	claims := jwt.MapClaims{
		"type":            tokenTypeStudent,
		"email":           c.Email,
		"moodle_user_id":  c.MoodleUserID,
		"moodle_username": c.MoodleUsername,
		"student_name":    c.StudentName,
		"roles":           roles,
		"session_id":      c.SessionID,
		"iss":             j.issuer,
		"iat":             now.Unix(),
		"exp":             exp.Unix(),
		"jti":             j.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// GenerateAdminToken implements domain.TokenService
func (j *JWTServiceImpl) GenerateAdminToken(c *domain.AdminClaims) (string, error) {
	now := time.Now()
	exp := now.Add(j.sessionTTL)
	c.IssuedAt = now.Unix()
	c.ExpiresAt = exp.Unix()

	claims := jwt.MapClaims{
		"type":       tokenTypeAdmin,
		"admin_id":   c.AdminID,
		"email":      c.Email,
		"name":       c.Name,
		"role":       c.Role,
		"session_id": c.SessionID,
		"iss":        j.issuer,
		"iat":        now.Unix(),
		"exp":        exp.Unix(),
		"jti":        j.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// ValidateStudentToken implements domain.TokenService
func (j *JWTServiceImpl) ValidateStudentToken(tokenString string) (*domain.StudentClaims, error) {
	claims, err := j.parse(tokenString, tokenTypeStudent)
	if err != nil {
		return nil, err
	}

	email, ok := claims["email"].(string)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}
	userID, ok := claims["moodle_user_id"].(float64)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}
	username, _ := claims["moodle_username"].(string)
	name, _ := claims["student_name"].(string)

	roles := []string{"student"}
	if raw, ok := claims["roles"].([]any); ok && len(raw) > 0 {
		roles = make([]string, 0, len(raw))
		for _, r := range raw {
			if s, ok := r.(string); ok {
				roles = append(roles, s)
			}
		}
	}

	result := &domain.StudentClaims{
		Email:          email,
		MoodleUserID:   int(userID),
		MoodleUsername: username,
		StudentName:    name,
		Roles:          roles,
	}
	fillTimes(claims, &result.IssuedAt, &result.ExpiresAt)
	if sessionID, ok := claims["session_id"].(string); ok {
		result.SessionID = sessionID
	}
	return result, nil
}

// ValidateAdminToken implements domain.TokenService
func (j *JWTServiceImpl) ValidateAdminToken(tokenString string) (*domain.AdminClaims, error) {
	claims, err := j.parse(tokenString, tokenTypeAdmin)
	if err != nil {
		return nil, err
	}

	adminID, ok := claims["admin_id"].(float64)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}
	email, ok := claims["email"].(string)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}
	role, ok := claims["role"].(string)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}
	name, _ := claims["name"].(string)

	result := &domain.AdminClaims{
		AdminID: uint(adminID),
		Email:   email,
		Name:    name,
		Role:    role,
	}
	fillTimes(claims, &result.IssuedAt, &result.ExpiresAt)
	if sessionID, ok := claims["session_id"].(string); ok {
		result.SessionID = sessionID
	}
	return result, nil
}

// parse validates signature, expiry, and the type discriminator. It never
// panics on a hostile token; every failure maps to a sentinel error.
func (j *JWTServiceImpl) parse(tokenString, wantType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrTokenMalformed
		}
		return j.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if !token.Valid {
		return nil, domain.ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}
	if _, ok := claims["exp"].(float64); !ok {
		return nil, domain.ErrTokenMalformed
	}

	if typ, _ := claims["type"].(string); typ != wantType {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

func fillTimes(claims jwt.MapClaims, iat, exp *int64) {
	if v, ok := claims["iat"].(float64); ok {
		*iat = int64(v)
	}
	if v, ok := claims["exp"].(float64); ok {
		*exp = int64(v)
	}
}
