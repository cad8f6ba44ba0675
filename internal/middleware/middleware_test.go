package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/policy"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/testutil"
	"github.com/Baaaki/yamdb/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type AuthMiddlewareTestSuite struct {
	suite.Suite
	testDB *testutil.TestDatabase
	db     *gorm.DB
	router *gin.Engine
}

func (s *AuthMiddlewareTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.testDB = testutil.SetupTestDatabase(s.T())
	s.db = s.testDB.DB

	s.router = gin.New()
	s.router.Use(AuthMiddleware(testutil.TestJWTSecret, repository.NewUserRepository(s.db)))
	s.router.GET("/whoami", func(c *gin.Context) {
		actor := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{
			"authenticated": actor.Authenticated,
			"username":      actor.Username,
			"role":          string(actor.Role),
		})
	})
}

func (s *AuthMiddlewareTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *AuthMiddlewareTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.db)
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareTestSuite))
}

func (s *AuthMiddlewareTestSuite) TestNoHeaderIsAnonymous() {
	w := testutil.PerformRequest(s.router, http.MethodGet, "/whoami", nil, "")

	s.Equal(http.StatusOK, w.Code)
	body := testutil.DecodeJSON(s.T(), w)
	s.Equal(false, body["authenticated"])
}

func (s *AuthMiddlewareTestSuite) TestValidTokenLoadsCurrentRole() {
	user := testutil.CreateUser(s.T(), s.db, "alice", models.RoleUser)
	token := testutil.TokenFor(s.T(), user)

	// Promotion after the token was issued is visible on the next request
	user.Role = models.RoleModerator
	s.Require().NoError(s.db.Save(user).Error)

	w := testutil.PerformRequest(s.router, http.MethodGet, "/whoami", nil, token)

	s.Equal(http.StatusOK, w.Code)
	body := testutil.DecodeJSON(s.T(), w)
	s.Equal(true, body["authenticated"])
	s.Equal("alice", body["username"])
	s.Equal("moderator", body["role"])
}

func (s *AuthMiddlewareTestSuite) TestMalformedHeaderRejected() {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusUnauthorized, w.Code)
	s.NotEmpty(w.Header().Get("WWW-Authenticate"))
}

func (s *AuthMiddlewareTestSuite) TestInvalidTokenRejected() {
	w := testutil.PerformRequest(s.router, http.MethodGet, "/whoami", nil, "not-a-jwt")

	s.Equal(http.StatusUnauthorized, w.Code)
	body := testutil.DecodeJSON(s.T(), w)
	s.Equal("unauthorized", body["error"])
}

func (s *AuthMiddlewareTestSuite) TestExpiredTokenRejected() {
	user := testutil.CreateUser(s.T(), s.db, "bob", models.RoleUser)
	token, err := utils.GenerateToken(user, testutil.TestJWTSecret, -time.Minute)
	s.Require().NoError(err)

	w := testutil.PerformRequest(s.router, http.MethodGet, "/whoami", nil, token)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AuthMiddlewareTestSuite) TestDeletedUserRejected() {
	user := testutil.CreateUser(s.T(), s.db, "carol", models.RoleUser)
	token := testutil.TokenFor(s.T(), user)
	s.Require().NoError(repository.NewUserRepository(s.db).DeleteUser(user.ID))

	w := testutil.PerformRequest(s.router, http.MethodGet, "/whoami", nil, token)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func TestActorFrom_DefaultsToAnonymous(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, policy.Anonymous(), ActorFrom(c))
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFrom(c))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-id-1")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "client-id-1", w.Header().Get(RequestIDHeader))
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SecurityHeadersMiddleware(), HSTSMiddleware(true))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=31536000")
}

func TestHSTSDisabledOutsideProduction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(HSTSMiddleware(false))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}
