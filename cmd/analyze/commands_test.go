package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/domain/errors"
	"github.com/davidleathers/analysis-orchestrator/internal/testutil"
	"github.com/davidleathers/analysis-orchestrator/internal/testutil/fixtures"
)

const yamlRequest = `
id: req-yaml
type: comprehensive
scope: civ-1
timestamp: 2025-01-01T00:00:00Z
dataInputs:
  economic:
    tradeData:
      - entity: civ-1
        period: 1
        partner: civ-2
        exports: 100
        imports: 80
      - entity: civ-1
        period: 2
        partner: civ-2
        exports: "120.50"
        imports: 80
`

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.ExecuteContext(testutil.TestContext(t))
	return stdout.String(), stderr.String(), err
}

func writeRequest(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func jsonRequest(t *testing.T, req *domain.Request) string {
	t.Helper()
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	return writeRequest(t, "request.json", raw)
}

func TestRunCommand(t *testing.T) {
	req := fixtures.NewRequestBuilder(t).
		WithType(domain.TypeCrisis).
		WithPolitical(fixtures.CrisisPolitical()).
		Build()
	path := jsonRequest(t, req)

	stdout, stderr, err := execute(t, "", "run", "-f", path, "--notifications")
	require.NoError(t, err)

	var resp domain.Response
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, req.ID, resp.RequestID)
	assert.Equal(t, domain.TypeCrisis, resp.Type)
	require.NotNil(t, resp.Crisis)

	var n domain.Notification
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(stderr)), &n))
	assert.Equal(t, "crisis_threshold", n.RuleID)
	assert.Equal(t, resp.ID, n.AnalysisID)
}

func TestRunCommand_YAML(t *testing.T) {
	path := writeRequest(t, "request.yaml", []byte(yamlRequest))

	stdout, _, err := execute(t, "", "run", "-f", path)
	require.NoError(t, err)

	var resp domain.Response
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "req-yaml", resp.RequestID)
	assert.Equal(t, []string{"economic"}, resp.Metadata.SystemsAnalyzed)
}

func TestRunCommand_GeneratesRequestID(t *testing.T) {
	stdout, _, err := execute(t, `{"type":"comprehensive","scope":"civ-1"}`, "run", "-f", "-")
	require.NoError(t, err)

	var resp domain.Response
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, 0.5, resp.Confidence)
}

func TestRunCommand_Stdin(t *testing.T) {
	stdout, _, err := execute(t, yamlRequest, "run", "-f", "-", "--format", "yaml", "--pretty")
	require.NoError(t, err)
	assert.Contains(t, stdout, "\n  \"requestId\": \"req-yaml\"")
}

func TestRunCommand_Errors(t *testing.T) {
	t.Run("missing file flag", func(t *testing.T) {
		_, _, err := execute(t, "", "run")
		assert.Error(t, err)
	})

	t.Run("unknown field", func(t *testing.T) {
		path := writeRequest(t, "bad.json", []byte(`{"type":"comprehensive","scope":"civ-1","bogus":1}`))
		_, _, err := execute(t, "", "run", "-f", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing request")
	})

	t.Run("unknown format", func(t *testing.T) {
		path := writeRequest(t, "request.json", []byte(`{}`))
		_, _, err := execute(t, "", "run", "-f", path, "--format", "toml")
		assert.Error(t, err)
	})

	t.Run("unknown analysis type", func(t *testing.T) {
		path := jsonRequest(t, fixtures.NewRequestBuilder(t).WithType("astrology").Build())
		_, _, err := execute(t, "", "run", "-f", path)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeDispatch))
	})

	t.Run("explicit config must exist", func(t *testing.T) {
		path := jsonRequest(t, fixtures.NewRequestBuilder(t).Build())
		_, _, err := execute(t, "", "run", "-f", path, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestValidateCommand(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		path := writeRequest(t, "request.yml", []byte(yamlRequest))
		stdout, _, err := execute(t, "", "validate", "-f", path)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Request is valid")
		assert.Contains(t, stdout, "Domains:     economic")
		assert.Contains(t, stdout, "Data points: 2")
	})

	t.Run("missing scope", func(t *testing.T) {
		path := jsonRequest(t, fixtures.NewRequestBuilder(t).WithScope(" ").Build())
		_, _, err := execute(t, "", "validate", "-f", path)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})

	t.Run("invalid inputs", func(t *testing.T) {
		req := fixtures.NewRequestBuilder(t).
			WithPolitical(&domain.PoliticalData{GovernanceData: []domain.GovernanceRecord{{Effectiveness: 3}}}).
			Build()
		_, _, err := execute(t, "", "validate", "-f", jsonRequest(t, req))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})

	t.Run("unsupported type", func(t *testing.T) {
		path := jsonRequest(t, fixtures.NewRequestBuilder(t).WithType("astrology").Build())
		_, _, err := execute(t, "", "validate", "-f", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "astrology")
	})
}

func TestCapabilitiesCommand(t *testing.T) {
	stdout, _, err := execute(t, "", "capabilities")
	require.NoError(t, err)

	var caps domain.Capabilities
	require.NoError(t, json.Unmarshal([]byte(stdout), &caps))
	assert.Contains(t, caps.AnalysisTypes, "comprehensive")
	assert.Contains(t, caps.AnalysisTypes, "crisis_assessment")
	assert.True(t, caps.Features["comparativeAnalysis"])
}
