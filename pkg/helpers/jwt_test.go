package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("a", "r", time.Minute, time.Hour)

	access, aexp, err := m.GenerateAccessToken("u1", "s1")
	require.NoError(t, err)
	assert.True(t, aexp.After(time.Now()))

	claims, err := m.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "s1", claims.SessionID)

	_, err = m.ParseRefreshToken(access)
	assert.Error(t, err, "access token must not verify with the refresh secret")
}

func TestJWTExpired(t *testing.T) {
	m := NewJWTManager("a", "r", -time.Minute, time.Hour)
	access, _, err := m.GenerateAccessToken("u1", "s1")
	require.NoError(t, err)
	_, err = m.ParseAccessToken(access)
	assert.Error(t, err)
}

func TestBearerOrCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Authorization", "Bearer tok-header")
	c.Request.AddCookie(&http.Cookie{Name: AccessCookie, Value: "tok-cookie"})
	assert.Equal(t, "tok-header", BearerOrCookie(c, AccessCookie))

	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.AddCookie(&http.Cookie{Name: AccessCookie, Value: "tok-cookie"})
	assert.Equal(t, "tok-cookie", BearerOrCookie(c, AccessCookie))

	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, BearerOrCookie(c, AccessCookie))
}
