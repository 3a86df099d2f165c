package security

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/questroom/progress-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func testSigner(t *testing.T, ttl time.Duration) *JWTSigner {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return NewJWTSigner(key, &key.PublicKey, "progress-service", ttl, 30*time.Second)
}

func TestSignAndParse(t *testing.T) {
	s := testSigner(t, time.Hour)

	token, err := s.SignAccessToken(42, domain.RoleAdmin, time.Now())
	require.NoError(t, err)

	claims, err := s.ParseAndValidate(token)
	require.NoError(t, err)
	require.Equal(t, "42", claims.Subject)
	require.Equal(t, string(domain.RoleAdmin), claims.Role)

	uid, err := SubjectAsUserID(claims)
	require.NoError(t, err)
	require.Equal(t, int64(42), uid)
}

func TestParse_Expired(t *testing.T) {
	s := testSigner(t, time.Hour)

	// issued two hours ago with a one-hour ttl, beyond any skew
	token, err := s.SignAccessToken(1, domain.RoleStudent, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = s.ParseAndValidate(token)
	require.Error(t, err)
}

func TestParse_SkewTolerated(t *testing.T) {
	s := testSigner(t, time.Hour)

	// token "from the near future": nbf is inside the skew window
	token, err := s.SignAccessToken(1, domain.RoleStudent, time.Now().Add(20*time.Second))
	require.NoError(t, err)

	_, err = s.ParseAndValidate(token)
	require.NoError(t, err)
}

func TestParse_WrongKey(t *testing.T) {
	s := testSigner(t, time.Hour)
	other := testSigner(t, time.Hour)

	token, err := other.SignAccessToken(1, domain.RoleStudent, time.Now())
	require.NoError(t, err)

	_, err = s.ParseAndValidate(token)
	require.Error(t, err)
}

func TestParse_WrongIssuer(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	issuer := NewJWTSigner(key, &key.PublicKey, "someone-else", time.Hour, time.Second)
	verifier := NewJWTSigner(key, &key.PublicKey, "progress-service", time.Hour, time.Second)

	token, err := issuer.SignAccessToken(1, domain.RoleStudent, time.Now())
	require.NoError(t, err)

	_, err = verifier.ParseAndValidate(token)
	require.ErrorIs(t, err, ErrInvalidIssuer)
}

func TestSubjectAsUserID_Invalid(t *testing.T) {
	_, err := SubjectAsUserID(nil)
	require.ErrorIs(t, err, ErrInvalidSubject)

	_, err = SubjectAsUserID(&AccessClaims{})
	require.ErrorIs(t, err, ErrInvalidSubject)
}
