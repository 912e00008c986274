package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/saylorsolutions/wordarmor/pkg/armor"
	"github.com/saylorsolutions/wordarmor/pkg/keyfile"
	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "caw.yaml", `
secret: "69"
catalog: words.txt
table: /var/cache/caw/table.bin
limit: 160
workers: 2
`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "69", cfg.Secret)
	assert.Equal(t, filepath.Join(dir, "words.txt"), cfg.Catalog, "Relative paths resolve against the config file")
	assert.Equal(t, "/var/cache/caw/table.bin", cfg.Table)
	assert.Equal(t, 160, cfg.Limit)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, defaultPassphraseEnv, cfg.PassphraseEnv, "Defaults are kept for missing keys")
	assert.Equal(t, defaultAddr, cfg.Addr)
}

func TestLoadConfig_Neg(t *testing.T) {
	dir := t.TempDir()
	_, err := loadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = loadConfig(writeFile(t, dir, "typo.yaml", "limt: 5\n"))
	assert.Error(t, err, "Unknown keys should be rejected")
}

func TestMerge(t *testing.T) {
	var common commonFlags
	flags := flag.NewFlagSet("test", flag.ContinueOnError)
	common.register(flags)
	require.NoError(t, flags.Parse([]string{"--limit", "90", "-d", "2024-05-01"}))

	cfg := common.merge(flags, Config{Secret: "69", Limit: 160, Workers: 3})
	assert.Equal(t, 90, cfg.Limit)
	assert.Equal(t, "2024-05-01", cfg.Date)
	assert.Equal(t, "69", cfg.Secret, "Unset flags don't override the config")
	assert.Equal(t, 3, cfg.Workers)
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		cfg       Config
		expectErr bool
	}{
		"Defaults": {
			cfg: defaults(),
		},
		"Secret and keyfile": {
			cfg:       Config{Secret: "1", Keyfile: "key", Limit: 10},
			expectErr: true,
		},
		"Zero limit": {
			cfg:       Config{Limit: 0},
			expectErr: true,
		},
		"Negative workers": {
			cfg:       Config{Limit: 10, Workers: -1},
			expectErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := tc.cfg.validate()
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadSecret_Keyfile(t *testing.T) {
	var buf bytes.Buffer
	gen, err := keyfile.NewGenerator(keyfile.SetIterations(1 << 4))
	require.NoError(t, err)
	require.NoError(t, gen.Lock(&buf, []byte("hunter2"), armor.SecretFromUint64(69)))

	dir := t.TempDir()
	path := filepath.Join(dir, "key")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0600))

	t.Setenv("CAW_TEST_PASSPHRASE", "hunter2")
	cfg := defaults()
	cfg.Keyfile = path
	cfg.PassphraseEnv = "CAW_TEST_PASSPHRASE"
	secret, err := cfg.loadSecret()
	require.NoError(t, err)
	assert.Equal(t, armor.SecretFromUint64(69), secret)

	_, err = defaults().loadSecret()
	assert.Error(t, err)
}

func TestLoadTable(t *testing.T) {
	cfg := defaults()
	cfg.Secret = "69"
	cfg.Date = "2024-05-01"
	cat, err := cfg.loadCatalog()
	require.NoError(t, err)

	built, err := cfg.loadTable(cat)
	require.NoError(t, err)
	assert.Equal(t, armor.Date{Year: 2024, Month: time.May, Day: 1}, built.Date())

	var buf bytes.Buffer
	require.NoError(t, armor.WriteTable(&buf, built))
	dir := t.TempDir()
	cfg.Table = filepath.Join(dir, "table.bin")
	require.NoError(t, os.WriteFile(cfg.Table, buf.Bytes(), 0600))

	cfg.Secret = ""
	cached, err := cfg.loadTable(cat)
	require.NoError(t, err, "A cached table for the right date doesn't need the secret")
	assert.Equal(t, built.Begin(), cached.Begin())

	cfg.Date = "2024-05-02"
	_, err = cfg.loadTable(cat)
	assert.Error(t, err, "A stale cached table falls back to building, which needs the secret")
}

func TestLoadCatalog_File(t *testing.T) {
	dir := t.TempDir()
	cfg := defaults()
	cfg.Catalog = writeFile(t, dir, "words.txt", "apple\nbanana\n")
	cat, err := cfg.loadCatalog()
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())
}

func TestTrimLines(t *testing.T) {
	assert.Equal(t, []string{"one two", "three"}, trimLines("one two\r\n\n  \nthree\n"))
}
