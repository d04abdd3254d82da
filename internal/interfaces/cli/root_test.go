package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlockchainHB/launchfast-sub000/pkg/client"
)

// fakeAPI records calls and returns canned results.
type fakeAPI struct {
	session   *client.Session
	summaries []client.SessionSummary
	err       error

	lastResearch client.ResearchRequest
	lastID       string
	lastRename   string
}

func (f *fakeAPI) Research(_ context.Context, req client.ResearchRequest) (*client.Session, error) {
	f.lastResearch = req
	return f.session, f.err
}

func (f *fakeAPI) ListSessions(_ context.Context) ([]client.SessionSummary, error) {
	return f.summaries, f.err
}

func (f *fakeAPI) GetSession(_ context.Context, sessionID string) (*client.Session, error) {
	f.lastID = sessionID
	return f.session, f.err
}

func (f *fakeAPI) DeleteSession(_ context.Context, sessionID string) error {
	f.lastID = sessionID
	return f.err
}

func (f *fakeAPI) RenameSession(_ context.Context, sessionID, name string) error {
	f.lastID, f.lastRename = sessionID, name
	return f.err
}

// executeCommand runs the root command with an injected CLIContext so no
// server is needed.
func executeCommand(t *testing.T, api API, format string, args ...string) (string, error) {
	t.Helper()

	root := NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	ctx := context.WithValue(context.Background(), cliContextKey{}, &CLIContext{
		API:          api,
		OutputFormat: format,
		Timeout:      time.Second,
	})
	err := root.ExecuteContext(ctx)
	return buf.String(), err
}

func TestRootCommand_RequiresUserID(t *testing.T) {
	t.Setenv("LAUNCHFAST_USER_ID", "")
	t.Setenv("LAUNCHFAST_SERVER", "")

	root := NewRootCommand()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"sessions", "list"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LAUNCHFAST_USER_ID")
}

func TestGetCLIContext_MissingContext(t *testing.T) {
	t.Parallel()

	root := NewRootCommand()
	_, err := GetCLIContext(root)
	assert.Error(t, err)
}

func TestFormatTable_AlignsColumns(t *testing.T) {
	t.Parallel()

	out := FormatTable(
		[]string{"ID", "NAME"},
		[][]string{
			{"s1", "wireless mouse"},
			{"s2", "hub"},
		},
	)

	assert.Contains(t, out, "ID  NAME")
	assert.Contains(t, out, "--  --------------")
	assert.Contains(t, out, "s1  wireless mouse")
	assert.Contains(t, out, "s2  hub")
}

func TestFormatTable_EmptyHeaders(t *testing.T) {
	t.Parallel()
	assert.Empty(t, FormatTable(nil, [][]string{{"x"}}))
}

func TestPrintResult_JSONFormat(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{summaries: []client.SessionSummary{{ID: "s1", KeywordCount: 3}}}
	out, err := executeCommand(t, api, "json", "sessions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, `"keyword_count": 3`)
}
