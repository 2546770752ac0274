package cmd

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/timebot/timebot-cli/testutil"
)

// resetFlags restores every flag of c and its children to its default so
// package-level flag variables do not leak between test runs
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCommand executes the root command with args and returns its output
func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// testEnv is an isolated home directory plus a fake backend
type testEnv struct {
	t       *testing.T
	home    string
	backend *testutil.FakeBackend
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	home := testutil.CreateTempDir(t)
	t.Setenv("TIMEBOT_HOME", home)
	t.Setenv("TIMEBOT_PAYMENT_DELAY", "0s")
	t.Setenv("TIMEBOT_TIMEZONE", "UTC")

	fb := testutil.NewFakeBackend(t)
	fb.Respond(http.MethodPost, "/api/auth/login", http.StatusOK, testutil.LoginResponseJSON)
	fb.Respond(http.MethodPost, "/api/auth/signup", http.StatusOK, testutil.LoginResponseJSON)
	fb.Respond(http.MethodGet, "/api/appointments/byClient", http.StatusOK, testutil.AppointmentsJSON)
	fb.Respond(http.MethodGet, "/api/admin/public/all", http.StatusOK, testutil.ProvidersJSON)
	fb.Respond(http.MethodGet, "/api/profile", http.StatusOK, testutil.ProfileJSON)
	fb.Respond(http.MethodPut, "/api/profile", http.StatusOK, testutil.ProfileJSON)
	fb.Respond(http.MethodPost, "/api/chat", http.StatusOK, `{"reply":"Which day suits you?"}`)

	return &testEnv{t: t, home: home, backend: fb}
}

// run executes a command against the fake backend
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	return runCommand(e.t, "", append(args, "--api-url", e.backend.URL)...)
}

// runWithInput executes a command with stdin
func (e *testEnv) runWithInput(stdin string, args ...string) (string, error) {
	e.t.Helper()
	return runCommand(e.t, stdin, append(args, "--api-url", e.backend.URL)...)
}

func (e *testEnv) login() {
	e.t.Helper()
	if out, err := e.run("login", "--email", "asha@example.com", "--password", "secret"); err != nil {
		e.t.Fatalf("login failed: %v\n%s", err, out)
	}
}
