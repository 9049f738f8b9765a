package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/services"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes the purpose of a signed token
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
	KindReset   Kind = "reset"
)

// Claims represents the claims carried by every issued token
type Claims struct {
	jwt.RegisteredClaims
	Kind        Kind   `json:"kind"`
	SuperUser   bool   `json:"su,omitempty"`
	Fingerprint string `json:"fp,omitempty"`
}

// UserID parses the subject as a user id
func (c *Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, services.ErrInvalidToken
	}
	return id, nil
}

// Pair is the result of a successful sign in
type Pair struct {
	Access    string    `json:"access"`
	Refresh   string    `json:"refresh"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Config holds the signing configuration
type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
}

// Issuer signs and validates HS256 tokens
type Issuer struct {
	secret []byte
	config Config
	now    func() time.Time
}

// NewIssuer creates a new Issuer
func NewIssuer(config Config) *Issuer {
	return &Issuer{
		secret: []byte(config.Secret),
		config: config,
		now:    time.Now,
	}
}

// IssuePair signs a fresh access and refresh token for the user
func (i *Issuer) IssuePair(user *models.User) (*Pair, error) {
	now := i.now()
	accessExp := now.Add(i.config.AccessTTL)

	access, err := i.sign(i.claims(user, KindAccess, now, accessExp))
	if err != nil {
		return nil, err
	}
	refresh, err := i.sign(i.claims(user, KindRefresh, now, now.Add(i.config.RefreshTTL)))
	if err != nil {
		return nil, err
	}

	return &Pair{Access: access, Refresh: refresh, ExpiresAt: accessExp}, nil
}

// ParseAccess validates an access token
func (i *Issuer) ParseAccess(token string) (*Claims, error) {
	return i.parse(token, KindAccess)
}

// ParseRefresh validates a refresh token
func (i *Issuer) ParseRefresh(token string) (*Claims, error) {
	return i.parse(token, KindRefresh)
}

// IssueReset signs a password reset token bound to the current password hash
func (i *Issuer) IssueReset(user *models.User) (string, error) {
	now := i.now()
	claims := i.claims(user, KindReset, now, now.Add(i.config.ResetTTL))
	claims.SuperUser = false
	claims.Fingerprint = Fingerprint(user)
	return i.sign(claims)
}

// ParseReset validates a reset token. The caller must still compare the
// fingerprint against the stored user with CheckFingerprint.
func (i *Issuer) ParseReset(token string) (*Claims, error) {
	claims, err := i.parse(token, KindReset)
	if err != nil {
		if errors.Is(err, services.ErrTokenExpired) || errors.Is(err, services.ErrInvalidToken) {
			return nil, services.ErrInvalidResetToken
		}
		return nil, err
	}
	return claims, nil
}

// CheckFingerprint reports whether the reset token still matches the user
func CheckFingerprint(claims *Claims, user *models.User) bool {
	return claims != nil && user != nil && claims.Fingerprint == Fingerprint(user)
}

// Fingerprint derives a value that changes whenever the password changes
func Fingerprint(user *models.User) string {
	sum := sha256.Sum256([]byte(user.PasswordHash + ":" + user.ID.String()))
	return hex.EncodeToString(sum[:16])
}

func (i *Issuer) claims(user *models.User, kind Kind, now, exp time.Time) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.config.Issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Kind:      kind,
		SuperUser: user.IsSuperUser,
	}
}

func (i *Issuer) sign(claims *Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", services.WrapInternal("failed to sign token", err)
	}
	return signed, nil
}

func (i *Issuer) parse(tokenString string, kind Kind) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.config.Issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, services.ErrTokenExpired
		}
		return nil, services.ErrInvalidToken
	}
	if !token.Valid || claims.Kind != kind || claims.Subject == "" {
		return nil, services.ErrInvalidToken
	}
	return claims, nil
}
