package entrypoint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/config"
	httpapi "github.com/mrlokans/library/internal/http"
	"github.com/mrlokans/library/internal/mail"
	"github.com/mrlokans/library/internal/tasks"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database:  config.Database{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "app.db")},
		Loans:     config.Loans{DefaultLoanDays: 14},
		Reminders: config.Reminders{Enabled: true, Hour: 9, DueSoonWindowDays: 5, UseQueue: true},
		Assistant: config.Assistant{MaxTurns: 3, RateLimit: 5, RateWindow: time.Minute},
	}
}

func TestNewApp_WithoutMailOrQueue(t *testing.T) {
	app, err := NewApp(testConfig(t))
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Close(context.Background())) }()

	assert.Nil(t, app.Tasks)
	assert.Nil(t, app.reminderDispatcher(nil))

	report, err := app.Reminders.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Skipped)
}

func TestNewApp_Router(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := NewApp(testConfig(t))
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Close(context.Background())) }()

	routerConfig, limiter := app.NewRouterConfig("test")
	defer limiter.Stop()
	router := httpapi.NewRouter(routerConfig)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats/collection", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_books":0,"total_students":0,"currently_issued":0}`, w.Body.String())
}

func TestReminderDispatcher(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tasks = config.Tasks{Enabled: true, Workers: 1}
	app, err := NewApp(cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Close(context.Background())) }()
	require.NotNil(t, app.Tasks)

	notifier := mail.NewNotifier(nil, nil)
	assert.IsType(t, &tasks.ReminderEnqueuer{}, app.reminderDispatcher(notifier))

	app.Config.Reminders.UseQueue = false
	assert.Same(t, notifier, app.reminderDispatcher(notifier))
}
