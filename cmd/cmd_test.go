// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/config"
)

// executeCommand runs a fresh command tree in an isolated working directory
// and home, so no stray codescalpel.yaml is picked up.
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// writeProject creates a small project and returns its root.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func ssrfProject(t *testing.T) string {
	return writeProject(t, map[string]string{
		"package.json": `{"name":"demo","dependencies":{"express":"^4.19.0"}}`,
		"src/proxy.js": "export async function GET(req) {\n  await fetch(req.body.url);\n}\n",
		"src/app.js":   "console.log('booting');\n",
	})
}

func createTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codescalpel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCmd_Version(t *testing.T) {
	out, _, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)

	out, _, err = executeCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestRootCmd_NoArgs(t *testing.T) {
	out, _, err := executeCommand(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Static analysis for JavaScript and TypeScript projects.")
	assert.Contains(t, out, "scan")
	assert.Contains(t, out, "rules")
}

func TestRootCmd_ConfigErrors(t *testing.T) {
	t.Run("malformed config file", func(t *testing.T) {
		path := createTempConfig(t, "scan: [unclosed\n")
		_, _, err := executeCommand(t, "--config", path, "rules")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize configuration")
	})

	t.Run("invalid values", func(t *testing.T) {
		path := createTempConfig(t, "scoring:\n  mode: harsh\n")
		_, _, err := executeCommand(t, "--config", path, "rules")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load or validate config")
	})
}

func TestRulesCmd(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		out, _, err := executeCommand(t, "rules")
		require.NoError(t, err)
		assert.Contains(t, out, "ID")
		assert.Regexp(t, `ssrf\s+security\s+critical\s+\S+\s+CWE-918\s+enabled`, out)
		assert.Regexp(t, `env-not-ignored\s+security\s+critical`, out)
	})

	t.Run("json with disabled rules from config", func(t *testing.T) {
		path := createTempConfig(t, "rules:\n  disabled: [console-log]\n")
		out, _, err := executeCommand(t, "--config", path, "rules", "--json")
		require.NoError(t, err)

		var infos []ruleInfo
		require.NoError(t, json.Unmarshal([]byte(out), &infos))
		require.Len(t, infos, 12)
		for _, info := range infos {
			assert.Equal(t, info.ID == "console-log", info.Disabled, info.ID)
			assert.NotEmpty(t, info.CWE, info.ID)
		}
	})
}

func TestScanCmd_JSON(t *testing.T) {
	root := ssrfProject(t)
	out, errOut, err := executeCommand(t, "scan", root)
	require.NoError(t, err)

	var result schemas.ScanResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, Version, result.Version)
	assert.Equal(t, 3, result.FilesScanned)
	require.Len(t, result.Findings, 2)
	assert.Equal(t, "ssrf", result.Findings[0].RuleID)
	assert.Equal(t, "console-log", result.Findings[1].RuleID)
	assert.Contains(t, errOut, "Scanned 3 files")
}

func TestScanCmd_SARIFFile(t *testing.T) {
	root := ssrfProject(t)
	output := filepath.Join(t.TempDir(), "report.sarif")
	out, _, err := executeCommand(t, "scan", root, "--format", "sarif", "--output", output)
	require.NoError(t, err)
	assert.Empty(t, out, "report goes to the file, not stdout")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var log struct {
		Version string `json:"version"`
		Runs    []struct {
			Results []struct {
				RuleID string `json:"ruleId"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(data, &log))
	assert.Equal(t, "2.1.0", log.Version)
	require.Len(t, log.Runs, 1)
	require.Len(t, log.Runs[0].Results, 2)
	assert.Equal(t, "ssrf", log.Runs[0].Results[0].RuleID)
}

func TestScanCmd_FailOn(t *testing.T) {
	root := ssrfProject(t)

	_, _, err := executeCommand(t, "scan", root, "--fail-on", "warning")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrThresholdExceeded)

	_, _, err = executeCommand(t, "scan", root, "--fail-on", "warning", "--disable", "ssrf")
	assert.NoError(t, err, "the info finding is below the threshold")

	path := createTempConfig(t, "scan:\n  fail_on: info\n")
	_, _, err = executeCommand(t, "--config", path, "scan", root)
	assert.ErrorIs(t, err, ErrThresholdExceeded, "fail_on is read from config too")
}

func TestScanCmd_Errors(t *testing.T) {
	root := ssrfProject(t)
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown format", []string{"scan", root, "--format", "xml"}, "unsupported output format"},
		{"bad scoring", []string{"scan", root, "--scoring", "harsh"}, "invalid flags"},
		{"bad fail-on", []string{"scan", root, "--fail-on", "high"}, "invalid flags"},
		{"persist without url", []string{"scan", root, "--persist"}, "database.url is required"},
		{"missing root", []string{"scan", filepath.Join(root, "nope")}, "invalid scan root"},
		{"too many args", []string{"scan", root, root}, "accepts at most 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyScanFlagOverrides(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		check  func(t *testing.T, cfg *config.Config)
		errSub string
	}{
		{
			name: "no flags keeps config",
			args: []string{},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, []string{"legacy/**"}, cfg.Scan().Ignore)
				assert.Equal(t, config.ScoringSimple, cfg.Scoring().Mode)
				assert.False(t, cfg.Database().Enabled)
			},
		},
		{
			name: "ignore globs are appended",
			args: []string{"--ignore", "**/*.gen.ts", "--ignore", "fixtures/**"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, []string{"legacy/**", "**/*.gen.ts", "fixtures/**"}, cfg.Scan().Ignore)
			},
		},
		{
			name: "scoring and fail-on",
			args: []string{"--scoring", "weighted", "--fail-on", "critical"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.ScoringWeighted, cfg.Scoring().Mode)
				assert.Equal(t, "critical", cfg.Scan().FailOn)
			},
		},
		{
			name: "disable merges with config",
			args: []string{"--disable", "ssrf,secrets"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, []string{"console-log", "ssrf", "secrets"}, cfg.Rules().Disabled)
			},
		},
		{
			name:   "invalid glob",
			args:   []string{"--ignore", "src/[a"},
			errSub: "invalid flags",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewDefaultConfig()
			cfg.SetScanIgnore([]string{"legacy/**"})
			cfg.RulesCfg.Disabled = []string{"console-log"}

			scanCmd := newScanCmd()
			require.NoError(t, scanCmd.ParseFlags(tt.args))

			err := applyScanFlagOverrides(scanCmd, cfg)
			if tt.errSub != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errSub)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}
