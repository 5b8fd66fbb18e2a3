package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", ""},
		{"1234", "****"},
		{"12345678", "********"},
		{"123456789", "1234*6789"},
		{"ff_1010_secretvalue", "ff_1***********alue"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskAPIKey(tt.key))
		})
	}
}

func TestContext_Masked(t *testing.T) {
	ctx := &Context{Name: "prod", APIKey: "abcdefghij"}
	m := ctx.Masked()
	assert.Equal(t, "abcd**ghij", m.APIKey)
	assert.Equal(t, "abcdefghij", ctx.APIKey, "Masked must not modify the original")
}

func TestContext_Extra(t *testing.T) {
	ctx := &Context{Name: "test"}
	assert.Empty(t, ctx.GetExtra("label"))

	ctx.SetExtra("label", "USER")
	assert.Equal(t, "USER", ctx.GetExtra("label"))
}

func TestContext_TimeoutDuration(t *testing.T) {
	assert.Equal(t, 15*time.Second, (&Context{Timeout: 15}).TimeoutDuration())
	assert.Zero(t, (&Context{}).TimeoutDuration())
}

func newTestConfig(t *testing.T) (*Config, string) {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "rushdb", "config.yaml")
	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	return cfg, configPath
}

func TestLoadConfig_NewConfig(t *testing.T) {
	cfg, configPath := newTestConfig(t)

	assert.NotNil(t, cfg.Contexts)
	assert.Equal(t, configPath, cfg.Path())
	assert.Equal(t, filepath.Dir(configPath), cfg.Dir())

	info, err := os.Stat(configPath)
	require.NoError(t, err, "config file should be created")
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadConfig_Invalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("contexts: [\n"), 0600))
	_, err := LoadConfig(configPath)
	assert.Error(t, err)
}

func TestConfig_AddContext(t *testing.T) {
	cfg, _ := newTestConfig(t)

	assert.Error(t, cfg.AddContext("", &Context{}), "empty name")

	require.NoError(t, cfg.AddContext("production", &Context{
		APIKey:  "test-key",
		BaseURL: "https://rushdb.example.com/api/v1",
	}))
	assert.Equal(t, "production", cfg.Contexts["production"].Name)
	assert.Equal(t, "production", cfg.CurrentContext, "first context becomes current")

	require.NoError(t, cfg.AddContext("staging", &Context{APIKey: "k2"}))
	assert.Equal(t, "production", cfg.CurrentContext)
}

func TestConfig_DeleteContext(t *testing.T) {
	cfg, _ := newTestConfig(t)
	require.NoError(t, cfg.AddContext("ctx1", &Context{APIKey: "key1"}))
	require.NoError(t, cfg.AddContext("ctx2", &Context{APIKey: "key2"}))

	require.NoError(t, cfg.DeleteContext("ctx2"))
	assert.NotContains(t, cfg.Contexts, "ctx2")

	require.NoError(t, cfg.DeleteContext("ctx1"))
	assert.Empty(t, cfg.CurrentContext)

	assert.Error(t, cfg.DeleteContext("nonexistent"))
}

func TestConfig_UseContext(t *testing.T) {
	cfg, _ := newTestConfig(t)
	require.NoError(t, cfg.AddContext("a", &Context{APIKey: "ka"}))
	require.NoError(t, cfg.AddContext("b", &Context{APIKey: "kb"}))

	require.NoError(t, cfg.UseContext("b"))
	assert.Equal(t, "b", cfg.CurrentContext)
	assert.Error(t, cfg.UseContext("nonexistent"))
}

func TestConfig_ListContextsSorted(t *testing.T) {
	cfg, _ := newTestConfig(t)
	for _, name := range []string{"staging", "production", "development"} {
		require.NoError(t, cfg.AddContext(name, &Context{}))
	}
	assert.Equal(t, []string{"development", "production", "staging"}, cfg.ListContexts())
}

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestConfig_Resolve(t *testing.T) {
	cfg, _ := newTestConfig(t)
	require.NoError(t, cfg.AddContext("ctx1", &Context{APIKey: "key1", BaseURL: "https://one/api/v1", Timeout: 5}))
	require.NoError(t, cfg.AddContext("ctx2", &Context{APIKey: "key2"}))

	ctx, err := cfg.resolve("ctx2", env(nil))
	require.NoError(t, err)
	assert.Equal(t, "key2", ctx.APIKey)

	ctx, err = cfg.resolve("", env(map[string]string{
		EnvAPIKey:  "from-env",
		EnvTimeout: "60",
	}))
	require.NoError(t, err)
	assert.Equal(t, "ctx1", ctx.Name)
	assert.Equal(t, "from-env", ctx.APIKey)
	assert.Equal(t, "https://one/api/v1", ctx.BaseURL)
	assert.Equal(t, 60, ctx.Timeout)
	assert.Equal(t, "key1", cfg.Contexts["ctx1"].APIKey, "environment overrides must not leak into the stored context")

	_, err = cfg.resolve("missing", env(nil))
	assert.Error(t, err)
	_, err = cfg.resolve("", env(map[string]string{EnvTimeout: "soon"}))
	assert.Error(t, err, "non-numeric timeout")
}

func TestConfig_ResolveFromEnvOnly(t *testing.T) {
	cfg, _ := newTestConfig(t)

	_, err := cfg.resolve("", env(nil))
	assert.ErrorContains(t, err, EnvAPIKey)

	ctx, err := cfg.resolve("", env(map[string]string{EnvAPIKey: "k", EnvBaseURL: "http://localhost:3000/api/v1"}))
	require.NoError(t, err)
	assert.Equal(t, "env", ctx.Name)
	assert.Equal(t, "k", ctx.APIKey)
	assert.Equal(t, "http://localhost:3000/api/v1", ctx.BaseURL)
}

func TestConfig_Persistence(t *testing.T) {
	cfg1, configPath := newTestConfig(t)
	require.NoError(t, cfg1.AddContext("test", &Context{
		APIKey:     "secret-key",
		BaseURL:    "https://api.test.com/api/v1",
		StrictFind: true,
		Extra:      map[string]string{"label": "USER"},
	}))

	cfg2, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "test", cfg2.CurrentContext)

	ctx, err := cfg2.GetContext("test")
	require.NoError(t, err)
	assert.Equal(t, "test", ctx.Name)
	assert.Equal(t, "secret-key", ctx.APIKey)
	assert.True(t, ctx.StrictFind)
	assert.Equal(t, "USER", ctx.GetExtra("label"))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "strict_find: true", "config file should use snake_case keys")
}
