package controllers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"loyalty-backend/config"
	"loyalty-backend/models"
	"loyalty-backend/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := utils.RegisterValidators(); err != nil {
		panic(err)
	}
}

// setupMockDB swaps config.DB for a sqlmock backed connection for the test.
func setupMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	return useMockDB(t, sqlDB, mock, err)
}

// setupPingMockDB is setupMockDB with ping expectations enabled.
func setupPingMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	return useMockDB(t, sqlDB, mock, err)
}

func useMockDB(t *testing.T, sqlDB *sql.DB, mock sqlmock.Sqlmock, err error) sqlmock.Sqlmock {
	t.Helper()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		DisableAutomaticPing:   true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	prev := config.DB
	config.DB = db
	t.Cleanup(func() {
		config.DB = prev
		sqlDB.Close()
	})
	return mock
}

type caller struct {
	id   uuid.UUID
	role string
}

var anonymous = caller{}

func customerCaller() caller { return caller{id: uuid.New(), role: models.RoleCustomer} }

func adminCaller() caller { return caller{id: uuid.New(), role: models.RoleAdmin} }

// serve runs a single request through handler mounted at pattern.
func serve(t *testing.T, who caller, method, pattern, target string, body interface{}, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	r := gin.New()
	r.Handle(method, pattern, func(c *gin.Context) {
		if who.id != uuid.Nil {
			c.Set(utils.ContextCustomerID, who.id)
			c.Set(utils.ContextRole, who.role)
		}
		c.Next()
	}, handler)

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest))
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, w, &body)
	return body.Error
}
