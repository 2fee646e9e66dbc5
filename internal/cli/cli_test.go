package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padron/internal/identity/registry/registrytest"
	"padron/internal/platform/config"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "padron", cmd.Use)

	for _, name := range []string{"consult", "shell"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

// runCLI executes the root command against a deterministic registry stub.
func runCLI(t *testing.T, stdin string, args ...string) (stdout, stderr string, stub *registrytest.Server, err error) {
	t.Helper()
	stub = registrytest.NewDeterministic(t)
	t.Setenv(config.EnvConfigPath, "")
	t.Setenv(config.EnvRegistryURL, stub.URL)

	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err = cmd.Execute()
	return out.String(), errOut.String(), stub, err
}

func TestConsult_DedupesAndPrints(t *testing.T) {
	stdout, _, stub, err := runCLI(t, "", "consult", "72345678", " 72345678", "10203041")

	require.NoError(t, err)
	assert.Equal(t, 2, stub.Calls())
	assert.Contains(t, stdout, "CARMEN FLORES GARCIA")
	assert.Contains(t, stdout, "MARIA ELENA MENDOZA FLORES")
	assert.Equal(t, ExitSuccess, GetExitCode(err))
}

func TestConsult_JSONOutput(t *testing.T) {
	stdout, _, _, err := runCLI(t, "", "--format", "json", "consult", "72345678")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(stdout)), &got))
	assert.Equal(t, "72345678", got["dni"])
	assert.Equal(t, "CARMEN FLORES GARCIA", got["nombreCompleto"])
	assert.Equal(t, false, got["cached"])
}

func TestConsult_FailuresSetExitCode(t *testing.T) {
	_, stderr, stub, err := runCLI(t, "", "consult", "123", "00001234", "72345678")

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, 2, stub.Calls(), "the malformed DNI never reaches the registry")
	assert.Contains(t, stderr, "Error [invalid_format] 123")
	assert.Contains(t, stderr, "Error [upstream_rejected] 00001234")
}

func TestConsult_InvalidFormatFlag(t *testing.T) {
	_, _, _, err := runCLI(t, "", "--format", "xml", "consult", "72345678")

	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConsult_MissingConfiguration(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")
	t.Setenv(config.EnvRegistryURL, "")
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"consult", "72345678"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()

	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestShell_ReusesHistory(t *testing.T) {
	input := strings.Join([]string{
		"72345678",
		"",
		"10203041 72345678",
		"history",
		"exit",
		"99999998",
	}, "\n")

	stdout, _, stub, err := runCLI(t, input, "shell")
	require.NoError(t, err)

	assert.Equal(t, 2, stub.Calls(), "repeat lookups are answered from history and input after exit is ignored")
	assert.Contains(t, stdout, "historial")

	histStart := strings.Index(stdout, "#  DNI")
	require.NotEqual(t, -1, histStart)
	hist := stdout[histStart:]
	assert.Less(t, strings.Index(hist, "10203041"), strings.Index(hist, "72345678"), "most recent first")
}

func TestShell_JSONHistory(t *testing.T) {
	stdout, _, _, err := runCLI(t, "72345678\nhistory\n", "--format", "json", "shell")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	var hist []map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &hist))
	require.Len(t, hist, 1)
	assert.Equal(t, "72345678", hist[0]["dni"])
}
