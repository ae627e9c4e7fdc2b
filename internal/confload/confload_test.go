package confload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	Port string `json:"port" hcl:"port"`
}

type testConfig struct {
	Name   string     `json:"name" hcl:"name,optional"`
	Server testServer `json:"server" hcl:"server,block"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"name":"form","server":{"port":"8080"}}`)

	var cfg testConfig
	require.NoError(t, Load(path, &cfg))
	assert.Equal(t, "form", cfg.Name)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad_HCL(t *testing.T) {
	path := writeFile(t, "config.hcl", `
name = "reports"

server {
  port = "9090"
}
`)

	var cfg testConfig
	require.NoError(t, Load(path, &cfg))
	assert.Equal(t, "reports", cfg.Name)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoad_Errors(t *testing.T) {
	var cfg testConfig

	err := Load(filepath.Join(t.TempDir(), "missing.json"), &cfg)
	assert.Error(t, err)

	err = Load(writeFile(t, "config.yaml", "name: x"), &cfg)
	assert.ErrorContains(t, err, "unsupported config format")

	err = Load(writeFile(t, "bad.json", "{"), &cfg)
	assert.ErrorContains(t, err, "decode")
}
