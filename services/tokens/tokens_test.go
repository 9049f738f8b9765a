package tokens

import (
	"testing"
	"time"

	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/services"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(now time.Time) *Issuer {
	iss := NewIssuer(Config{
		Secret:     "test-secret",
		Issuer:     "farmers-heaven",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
		ResetTTL:   30 * time.Minute,
	})
	iss.now = func() time.Time { return now }
	return iss
}

func testUser() *models.User {
	u := models.NewUser("ana", "ana@example.com", "+15550001")
	u.PasswordHash = "$2a$10$abcdefghijklmnopqrstuv"
	u.IsSuperUser = true
	return u
}

func TestIssuePairAndParse(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(now)
	user := testUser()

	pair, err := iss.IssuePair(user)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Access, pair.Refresh)
	assert.WithinDuration(t, now.Add(time.Hour), pair.ExpiresAt, time.Second)

	claims, err := iss.ParseAccess(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, KindAccess, claims.Kind)
	assert.True(t, claims.SuperUser)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	refresh, err := iss.ParseRefresh(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, KindRefresh, refresh.Kind)
}

func TestParseRejectsWrongKind(t *testing.T) {
	iss := newTestIssuer(time.Now())
	pair, err := iss.IssuePair(testUser())
	require.NoError(t, err)

	_, err = iss.ParseAccess(pair.Refresh)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	_, err = iss.ParseRefresh(pair.Access)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestParseExpired(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	pair, err := newTestIssuer(issuedAt).IssuePair(testUser())
	require.NoError(t, err)

	_, err = newTestIssuer(time.Now()).ParseAccess(pair.Access)
	assert.ErrorIs(t, err, services.ErrTokenExpired)
}

func TestParseRejectsForeignTokens(t *testing.T) {
	iss := newTestIssuer(time.Now())

	tests := []struct {
		name  string
		token func() string
	}{
		{name: "garbage", token: func() string { return "not-a-token" }},
		{
			name: "other secret",
			token: func() string {
				other := NewIssuer(Config{Secret: "other", Issuer: "farmers-heaven", AccessTTL: time.Hour, RefreshTTL: time.Hour})
				pair, _ := other.IssuePair(testUser())
				return pair.Access
			},
		},
		{
			name: "other issuer",
			token: func() string {
				other := NewIssuer(Config{Secret: "test-secret", Issuer: "someone-else", AccessTTL: time.Hour, RefreshTTL: time.Hour})
				pair, _ := other.IssuePair(testUser())
				return pair.Access
			},
		},
		{
			name: "none algorithm",
			token: func() string {
				claims := &Claims{
					RegisteredClaims: jwt.RegisteredClaims{
						Issuer:    "farmers-heaven",
						Subject:   testUser().ID.String(),
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
					},
					Kind: KindAccess,
				}
				s, _ := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := iss.ParseAccess(tt.token())
			assert.ErrorIs(t, err, services.ErrInvalidToken)
		})
	}
}

func TestResetToken(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(now)
	user := testUser()

	token, err := iss.IssueReset(user)
	require.NoError(t, err)

	claims, err := iss.ParseReset(token)
	require.NoError(t, err)
	assert.False(t, claims.SuperUser)
	assert.True(t, CheckFingerprint(claims, user))

	t.Run("invalid after password change", func(t *testing.T) {
		changed := *user
		changed.PasswordHash = "$2a$10$somethingelse"
		assert.False(t, CheckFingerprint(claims, &changed))
	})

	t.Run("access token is not a reset token", func(t *testing.T) {
		pair, err := iss.IssuePair(user)
		require.NoError(t, err)
		_, err = iss.ParseReset(pair.Access)
		assert.ErrorIs(t, err, services.ErrInvalidResetToken)
	})

	t.Run("expired", func(t *testing.T) {
		_, err := newTestIssuer(now.Add(time.Hour)).ParseReset(token)
		assert.ErrorIs(t, err, services.ErrInvalidResetToken)
	})

	assert.False(t, CheckFingerprint(nil, user))
}
