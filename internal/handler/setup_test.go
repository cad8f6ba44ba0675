package handler_test

import (
	"path/filepath"
	"time"

	"github.com/Baaaki/yamdb/internal/mailer"
	"github.com/Baaaki/yamdb/internal/router"
	"github.com/Baaaki/yamdb/internal/testutil"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

const api = router.APIPrefix

// apiSuite boots the full router on an in-memory database with a file outbox.
type apiSuite struct {
	suite.Suite
	testDB     *testutil.TestDatabase
	outboxPath string
	mail       *mailer.FileMailer
	router     *gin.Engine
}

func (s *apiSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	logger.Init(false)

	s.testDB = testutil.SetupTestDatabase(s.T())

	s.outboxPath = filepath.Join(s.T().TempDir(), "sent_emails.log")
	m, err := mailer.NewFileMailer(s.outboxPath)
	s.Require().NoError(err)
	s.mail = m

	s.router = router.New(router.Options{
		DB:        s.testDB.DB,
		Mailer:    s.mail,
		MailFrom:  "noreply@yamdb.test",
		JWTSecret: testutil.TestJWTSecret,
		JWTExpiry: time.Hour,
	})
}

func (s *apiSuite) TearDownSuite() {
	_ = s.mail.Close()
	s.testDB.Teardown(s.T())
}

func (s *apiSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
}

func (s *apiSuite) do(method, path string, body interface{}, token string) (int, map[string]interface{}) {
	w := testutil.PerformRequest(s.router, method, path, body, token)
	if w.Body.Len() == 0 {
		return w.Code, nil
	}
	return w.Code, testutil.DecodeJSON(s.T(), w)
}

func results(body map[string]interface{}) []interface{} {
	items, _ := body["results"].([]interface{})
	return items
}
