package terminal

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upstreamResponse = `{"isSuccess": true, "data": [{
	"orgLocation": "CN-ZJLIB_ZJ", "orgLocationName": "ZJ",
	"fCount": [
		{"countType": "日", "dateType": 0, "personCount": 500},
		{"countType": "日", "dateType": 1, "personCount": 480},
		{"countType": "周", "dateType": 0, "personCount": 3000}
	]}]}`

type fixture struct {
	dir    string
	config string
	dbPath string
	out    *bytes.Buffer
	logs   *bytes.Buffer
}

func setupFixture(t *testing.T, primaryStatus, backupStatus int) *fixture {
	upstream := func(status int) *httptest.Server {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(upstreamResponse))
		}))
		t.Cleanup(srv.Close)
		return srv
	}
	primary := upstream(primaryStatus)
	backup := upstream(backupStatus)

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "bot.db")
	configPath := filepath.Join(dir, "flowatlas.yaml")
	content := fmt.Sprintf(`
upstream:
  primary_url: %s
  backup_url: %s
  timeout: 2s
database:
  path: %s
schedule:
  timezone: UTC
log:
  level: debug
`, primary.URL, backup.URL, dbPath)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	return &fixture{
		dir:    dir,
		config: configPath,
		dbPath: dbPath,
		out:    &bytes.Buffer{},
		logs:   &bytes.Buffer{},
	}
}

func (f *fixture) execute(args ...string) error {
	_, err := f.executeCLI(args...)
	return err
}

func (f *fixture) executeCLI(args ...string) (*CLI, error) {
	cli := NewCLI(Options{Output: f.out, LogOutput: f.logs})
	cli.rootCmd.SetArgs(append([]string{
		"--config", f.config,
		"--env-file", filepath.Join(f.dir, ".env"),
	}, args...))
	return cli, cli.ExecuteContext(context.Background())
}

// withLogFile points log.file into the fixture directory
func (f *fixture) withLogFile(t *testing.T) string {
	path := filepath.Join(f.dir, "logs", "flowatlas.log")
	file, err := os.OpenFile(f.config, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = fmt.Fprintf(file, "  file: %s\n", path)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	return path
}

func TestCLI_OnceThenTotal(t *testing.T) {
	// Given
	f := setupFixture(t, http.StatusOK, http.StatusOK)
	today := time.Now().UTC().Format("2006-01-02")

	// When
	require.NoError(t, f.execute("once", "--weekly"))

	// Then
	out := f.out.String()
	assert.Contains(t, out, "浙图人流速报 "+today)
	assert.Contains(t, out, "#### 本周人流统计")
	assert.Contains(t, out, "Traffic for "+today)
	assert.Contains(t, out, "| ZJ               |          500 |          480 |           20 |         3000 |")
	assert.FileExists(t, f.dbPath)
	assert.Contains(t, f.logs.String(), "traffic run finished")

	f.out.Reset()
	require.NoError(t, f.execute("total", "--start", today))
	assert.Contains(t, f.out.String(), "| Sum              |          500 |")
}

func TestCLI_OnceAllEndpointsFail(t *testing.T) {
	f := setupFixture(t, http.StatusBadGateway, http.StatusServiceUnavailable)

	err := f.execute("once")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all traffic endpoints failed")
	assert.NotContains(t, f.out.String(), "浙图人流速报")
}

func TestCLI_RecordAndTotal(t *testing.T) {
	f := setupFixture(t, http.StatusOK, http.StatusOK)

	require.NoError(t, f.execute("record", "--date", "2026-02-11", "--in", "200"))
	assert.Contains(t, f.out.String(), "recorded 200 entries for 2026-02-11")

	f.out.Reset()
	require.NoError(t, f.execute("total", "--start", "2026-02-11", "--end", "2026-02-11"))
	assert.Contains(t, f.out.String(), "| 2026-02-11       |          200 |")
	assert.Contains(t, f.out.String(), "| Sum              |          200 |")
}

func TestCLI_TotalRejectsBadDate(t *testing.T) {
	f := setupFixture(t, http.StatusOK, http.StatusOK)

	err := f.execute("total", "--start", "11/02/2026")
	assert.ErrorContains(t, err, "Expected format: YYYY-MM-DD")
	assert.NoFileExists(t, f.dbPath)
}

func TestCLI_EnvFile(t *testing.T) {
	f := setupFixture(t, http.StatusOK, http.StatusOK)
	t.Cleanup(func() { os.Unsetenv("FLOWATLAS_LOG_LEVEL") })
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, ".env"), []byte("FLOWATLAS_LOG_LEVEL=bogus\n"), 0o600))

	err := f.execute("total", "--start", "2026-02-11")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestCLI_FailedCommandClosesLogFile(t *testing.T) {
	// Given a log file and an upstream that is down
	f := setupFixture(t, http.StatusBadGateway, http.StatusBadGateway)
	logPath := f.withLogFile(t)

	// When the command fails after logging
	cli, err := f.executeCLI("once")

	// Then the file was written and released
	require.Error(t, err)
	assert.Nil(t, cli.closeLog)
	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "all traffic endpoints failed")
}

func TestCLI_SucceededCommandClosesLogFile(t *testing.T) {
	f := setupFixture(t, http.StatusOK, http.StatusOK)
	logPath := f.withLogFile(t)

	cli, err := f.executeCLI("once")

	require.NoError(t, err)
	assert.Nil(t, cli.closeLog)
	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "traffic run finished")
}
