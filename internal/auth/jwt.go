package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"grievance/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const officerIDKey contextKey = "officerID"
const officerEmailKey contextKey = "officerEmail"

// ErrInvalidCredentials is returned by Login for both an unknown email
// and a wrong password, so the two cases are indistinguishable.
var ErrInvalidCredentials = errors.New("invalid email or password")

const officerTokenTTL = 2 * time.Hour
const accessGrantTTL = 15 * time.Minute

// OfficerStore loads officer records for login checks.
type OfficerStore interface {
	GetOfficerByEmail(ctx context.Context, email string) (model.Officer, error)
}

// JWTConfig signs and verifies both officer session tokens and the
// short-lived tracking access grants.
type JWTConfig struct {
	SecretKey string
}

// NewJWTConfig creates a new JWT config
func NewJWTConfig(secretKey string) *JWTConfig {
	if secretKey == "" {
		secretKey = "default-secret-key-change-in-production" // Default for development
	}
	return &JWTConfig{SecretKey: secretKey}
}

// Login verifies the officer's credentials and returns a signed session
// token.
func (c *JWTConfig) Login(ctx context.Context, store OfficerStore, email, password string) (string, model.Officer, error) {
	officer, err := store.GetOfficerByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", model.Officer{}, ErrInvalidCredentials
		}
		return "", model.Officer{}, fmt.Errorf("failed to load officer: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(officer.PasswordHash), []byte(password)); err != nil {
		return "", model.Officer{}, ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   strconv.FormatInt(officer.ID, 10),
		"email": officer.Email,
		"role":  officer.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(officerTokenTTL).Unix(),
	})

	signed, err := token.SignedString([]byte(c.SecretKey))
	if err != nil {
		return "", model.Officer{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, officer, nil
}

// RequireOfficer rejects requests without a valid officer session token.
func (c *JWTConfig) RequireOfficer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(c.SecretKey), nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			http.Error(w, "Invalid token claims", http.StatusUnauthorized)
			return
		}
		if scope, _ := claims["scope"].(string); scope != "" {
			// Tracking access grants never open officer routes.
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		if sub, _ := claims["sub"].(string); sub != "" {
			if id, err := strconv.ParseInt(sub, 10, 64); err == nil {
				ctx = context.WithValue(ctx, officerIDKey, id)
			}
		}
		if email, _ := claims["email"].(string); email != "" {
			ctx = context.WithValue(ctx, officerEmailKey, email)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// VerifyOfficer checks an officer session token outside the middleware
// path and returns the officer ID.
func (c *JWTConfig) VerifyOfficer(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(c.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid token claims")
	}
	if scope, _ := claims["scope"].(string); scope != "" {
		return 0, errors.New("not an officer token")
	}
	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid subject")
	}
	return id, nil
}

// IssueAccessGrant mints a short-lived read token for a single
// complaint, handed out after a successful tracking OTP verification.
func (c *JWTConfig) IssueAccessGrant(complaintID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"scope":        "tracking",
		"complaint_id": complaintID,
		"iat":          now.Unix(),
		"exp":          now.Add(accessGrantTTL).Unix(),
	})
	return token.SignedString([]byte(c.SecretKey))
}

// VerifyAccessGrant checks a tracking token and returns the complaint
// it grants read access to.
func (c *JWTConfig) VerifyAccessGrant(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(c.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}
	if scope, _ := claims["scope"].(string); scope != "tracking" {
		return "", errors.New("not a tracking token")
	}
	complaintID, _ := claims["complaint_id"].(string)
	if complaintID == "" {
		return "", errors.New("token has no complaint")
	}
	return complaintID, nil
}

// HashPassword hashes an officer password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// GetOfficerID extracts the officer ID from context.
func GetOfficerID(ctx context.Context) int64 {
	if id, ok := ctx.Value(officerIDKey).(int64); ok {
		return id
	}
	return 0
}

// GetOfficerEmail extracts the officer email from context.
func GetOfficerEmail(ctx context.Context) string {
	if email, ok := ctx.Value(officerEmailKey).(string); ok {
		return email
	}
	return ""
}
