package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const validYAML = `
server:
  port: 8000
monitor:
  user_agent: "politeping-test/1.0"
  pass_interval_seconds: 60
endpoints:
  - name: "국가법령정보센터"
    url: "https://www.law.go.kr"
  - name: "정부24"
    url: "https://www.gov.kr"
budgets:
  per_host_min_interval_s: 60
  per_endpoint_min_interval_s: 600
  global_max_concurrency: 3
keywords:
  global_keywords: ["시스템 점검"]
  neutral_info_keywords: ["정기 점검 안내"]
  domains:
    "law.go.kr": ["법령 서비스 중단"]
    "*.go.kr": ["전산 장애"]
  regex_keywords:
    - pattern: "점검\\s*중"
      flags: "i"
  settings:
    min_text_length: 60
    min_text_length_overrides:
      "*.go.kr": 30
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Valid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	require.Len(t, cfg.Endpoints, 2)
	require.Equal(t, "국가법령정보센터", cfg.Endpoints[0].Name)
	require.Equal(t, 60, cfg.Budgets.HostMinIntervalSeconds)
	require.Equal(t, 12, cfg.Timeouts.TotalSeconds, "default total timeout applies")
	require.Equal(t, []string{"시스템 점검"}, cfg.Keywords.GlobalKeywords)
	require.Equal(t, 30, cfg.Keywords.Settings.MinTextLengthOverrides["*.go.kr"])
}

func TestLoad_FailFast(t *testing.T) {
	cases := []struct {
		name string
		edit func(string) string
	}{
		{"no endpoints", func(s string) string {
			return `server: {port: 8000}` + "\n"
		}},
		{"relative url", func(s string) string {
			return replace(s, "https://www.gov.kr", "/not/absolute")
		}},
		{"duplicate url", func(s string) string {
			return replace(s, "https://www.gov.kr", "https://www.law.go.kr")
		}},
		{"bad regex", func(s string) string {
			return replace(s, `점검\\s*중`, `[unclosed`)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.edit(validYAML)))
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func replace(s, old, new string) string {
	return strings.ReplaceAll(s, old, new)
}
