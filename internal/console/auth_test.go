package console

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/crcon-linkbot/internal/dependencies/mocks"
	"github.com/mcoot/crcon-linkbot/internal/testutil"
)

type AuthenticatorSuite struct {
	suite.Suite
	fake  *testutil.FakeConsole
	clock *mocks.MockClock
	ctx   context.Context
}

func TestAuthenticatorSuite(t *testing.T) {
	suite.Run(t, new(AuthenticatorSuite))
}

func (s *AuthenticatorSuite) SetupTest() {
	s.fake = testutil.NewFakeConsole(s.T())
	s.clock = mocks.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.ctx = context.Background()
}

func (s *AuthenticatorSuite) newAuth(cfg AuthConfig) *Authenticator {
	cfg.BaseURL = s.fake.URL()
	return NewAuthenticator(cfg, s.fake.Server.Client(), s.clock, testutil.NopLogger())
}

func (s *AuthenticatorSuite) loginConfig() AuthConfig {
	return AuthConfig{Username: "admin", Password: "hunter2"}
}

func (s *AuthenticatorSuite) TestTokenModeReturnsStaticCredential() {
	auth := s.newAuth(AuthConfig{Token: "static-token"})

	cred, err := auth.Authenticate(s.ctx)
	s.Require().NoError(err)

	s.Equal(AuthModeToken, auth.Mode())
	s.Equal(CredentialBearer, cred.Mode)
	s.Equal("static-token", cred.Value)
	s.True(cred.ExpiresAt.IsZero())
	s.Equal(0, s.fake.CallCount(PathLogin))
}

func (s *AuthenticatorSuite) TestTokenModeSurvivesInvalidate() {
	auth := s.newAuth(AuthConfig{Token: "static-token"})

	auth.Invalidate()
	s.clock.Advance(48 * time.Hour)

	cred, ok := auth.Current()
	s.True(ok)
	s.Equal("static-token", cred.Value)
}

func (s *AuthenticatorSuite) TestTokenTakesPrecedenceOverLogin() {
	auth := s.newAuth(AuthConfig{Token: "static-token", Username: "admin", Password: "pw"})
	s.Equal(AuthModeToken, auth.Mode())
}

func (s *AuthenticatorSuite) TestNoCredentialSourceFails() {
	auth := s.newAuth(AuthConfig{})

	_, err := auth.Authenticate(s.ctx)

	var authErr *AuthError
	s.Require().ErrorAs(err, &authErr)
	s.ErrorIs(err, ErrNoCredentials)
	s.Equal(AuthModeNone, auth.Mode())
}

func (s *AuthenticatorSuite) TestHalfLoginConfigIsNoSource() {
	auth := s.newAuth(AuthConfig{Username: "admin"})
	s.Equal(AuthModeNone, auth.Mode())
}

func (s *AuthenticatorSuite) TestLoginWithSessionCookie() {
	s.fake.Handle(PathLogin, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "abc123"})
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"result": true}`))
	})
	auth := s.newAuth(s.loginConfig())

	cred, err := auth.Authenticate(s.ctx)
	s.Require().NoError(err)

	s.Equal(CredentialCookie, cred.Mode)
	s.Equal("sessionid=abc123", cred.Value)
	s.Equal(s.clock.Now().Add(25*time.Minute), cred.ExpiresAt)

	body := s.fake.Calls(PathLogin)[0].DecodeBody(s.T())
	s.Equal("admin", body["username"])
	s.Equal("hunter2", body["password"])
}

func (s *AuthenticatorSuite) TestLoginWithBodyToken() {
	s.fake.HandleJSON(PathLogin, http.StatusOK, map[string]any{
		"result": map[string]any{"token": "opaque-token"},
	})
	auth := s.newAuth(s.loginConfig())

	cred, err := auth.Authenticate(s.ctx)
	s.Require().NoError(err)

	s.Equal(CredentialBearer, cred.Mode)
	s.Equal("opaque-token", cred.Value)
}

func (s *AuthenticatorSuite) TestCookieWinsOverBodyToken() {
	s.fake.Handle(PathLogin, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "abc123"})
		_, _ = w.Write([]byte(`{"token": "also-a-token"}`))
	})
	auth := s.newAuth(s.loginConfig())

	cred, err := auth.Authenticate(s.ctx)
	s.Require().NoError(err)
	s.Equal(CredentialCookie, cred.Mode)
}

func (s *AuthenticatorSuite) TestCredentialReusedUntilExpiry() {
	s.fake.HandleJSON(PathLogin, http.StatusOK, map[string]any{"token": "t1"})
	auth := s.newAuth(s.loginConfig())

	_, err := auth.Authenticate(s.ctx)
	s.Require().NoError(err)

	s.clock.Advance(24 * time.Minute)
	_, err = auth.Authenticate(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, s.fake.CallCount(PathLogin))

	s.clock.Advance(2 * time.Minute)
	_, ok := auth.Current()
	s.False(ok)

	_, err = auth.Authenticate(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, s.fake.CallCount(PathLogin))
	s.EqualValues(2, auth.LoginCount())
}

func (s *AuthenticatorSuite) TestJWTExpiryCapsSessionTTL() {
	exp := s.clock.Now().Add(10 * time.Minute)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("console-secret"))
	s.Require().NoError(err)

	s.fake.HandleJSON(PathLogin, http.StatusOK, map[string]any{"token": token})
	auth := s.newAuth(s.loginConfig())

	cred, err := auth.Authenticate(s.ctx)
	s.Require().NoError(err)
	s.True(cred.ExpiresAt.Equal(exp), "expected %s, got %s", exp, cred.ExpiresAt)
}

func (s *AuthenticatorSuite) TestInvalidateForcesLogin() {
	s.fake.HandleJSON(PathLogin, http.StatusOK, map[string]any{"token": "t1"})
	auth := s.newAuth(s.loginConfig())

	_, err := auth.Authenticate(s.ctx)
	s.Require().NoError(err)

	auth.Invalidate()
	_, ok := auth.Current()
	s.False(ok)

	_, err = auth.Authenticate(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, s.fake.CallCount(PathLogin))
}

func (s *AuthenticatorSuite) TestRejectedLoginClearsCredential() {
	s.fake.HandleSequence(PathLogin,
		testutil.ConsoleResponse{Status: http.StatusOK, Body: map[string]any{"token": "t1"}},
		testutil.ConsoleResponse{Status: http.StatusUnauthorized, Body: map[string]any{"error": "bad password"}},
	)
	auth := s.newAuth(s.loginConfig())

	_, err := auth.Authenticate(s.ctx)
	s.Require().NoError(err)

	s.clock.Advance(30 * time.Minute)
	_, err = auth.Authenticate(s.ctx)

	var authErr *AuthError
	s.Require().ErrorAs(err, &authErr)
	var remoteErr *RemoteError
	s.Require().ErrorAs(err, &remoteErr)
	s.Equal(http.StatusUnauthorized, remoteErr.Status)
	s.Equal("bad password", remoteErr.Message)

	_, ok := auth.Current()
	s.False(ok)
}

func (s *AuthenticatorSuite) TestFailedFlagIsRejection() {
	s.fake.HandleJSON(PathLogin, http.StatusOK, map[string]any{"failed": true, "error": "invalid credentials"})
	auth := s.newAuth(s.loginConfig())

	_, err := auth.Authenticate(s.ctx)

	var authErr *AuthError
	s.Require().ErrorAs(err, &authErr)
	s.Contains(authErr.Error(), "invalid credentials")
}

func (s *AuthenticatorSuite) TestLoginWithoutCredentialFails() {
	s.fake.HandleJSON(PathLogin, http.StatusOK, map[string]any{"result": "ok"})
	auth := s.newAuth(s.loginConfig())

	_, err := auth.Authenticate(s.ctx)

	var authErr *AuthError
	s.ErrorAs(err, &authErr)
}

func (s *AuthenticatorSuite) TestUnreachableLoginIsAuthError() {
	auth := s.newAuth(s.loginConfig())
	s.fake.Server.Close()

	_, err := auth.Authenticate(s.ctx)

	var authErr *AuthError
	s.Require().ErrorAs(err, &authErr)
	s.False(errors.Is(err, ErrNoCredentials))
}
