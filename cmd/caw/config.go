package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/saylorsolutions/wordarmor/cmd/internal"
	"github.com/saylorsolutions/wordarmor/pkg/armor"
	"github.com/saylorsolutions/wordarmor/pkg/keyfile"
	"github.com/saylorsolutions/wordarmor/pkg/wordlist"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	defaultLimit         = 280
	defaultPassphraseEnv = "CAW_PASSPHRASE"
	defaultAddr          = "127.0.0.1:8080"
)

// Config is the shape of the optional YAML config file.
// Flags given on the command line take precedence over the file.
type Config struct {
	Secret        string `yaml:"secret"`
	Keyfile       string `yaml:"keyfile"`
	PassphraseEnv string `yaml:"passphrase_env"`
	Catalog       string `yaml:"catalog"`
	Table         string `yaml:"table"`
	Date          string `yaml:"date"`
	Limit         int    `yaml:"limit"`
	Workers       int    `yaml:"workers"`
	Addr          string `yaml:"addr"`
}

func defaults() Config {
	return Config{
		PassphraseEnv: defaultPassphraseEnv,
		Limit:         defaultLimit,
		Addr:          defaultAddr,
	}
}

// loadConfig reads the YAML file at path over the defaults.
// Unknown keys are rejected to catch typos.
func loadConfig(path string) (Config, error) {
	cfg := defaults()
	if len(path) == 0 {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config '%s': %w", path, err)
	}
	base := filepath.Dir(path)
	cfg.Keyfile = relativeTo(base, cfg.Keyfile)
	cfg.Catalog = relativeTo(base, cfg.Catalog)
	cfg.Table = relativeTo(base, cfg.Table)
	return cfg, nil
}

// relativeTo resolves file paths in a config file against the file's directory.
func relativeTo(base, path string) string {
	if len(path) == 0 || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// commonFlags are accepted by every subcommand.
type commonFlags struct {
	config        string
	secret        string
	keyfile       string
	passphraseEnv string
	catalog       string
	table         string
	date          string
	limit         int
	workers       int
	addr          string
	verbose       bool
	help          bool
}

func (c *commonFlags) register(flags *flag.FlagSet) {
	flags.StringVar(&c.config, "config", "", "Path to a YAML config file.")
	flags.StringVarP(&c.secret, "secret", "s", "", "Shared 128-bit secret, in decimal or 0x-prefixed hex. Prefer --keyfile.")
	flags.StringVarP(&c.keyfile, "keyfile", "k", "", "Path to a passphrase-locked keyfile holding the shared secret.")
	flags.StringVar(&c.passphraseEnv, "passphrase-env", defaultPassphraseEnv, "Environment variable holding the keyfile passphrase.")
	flags.StringVar(&c.catalog, "catalog", "", "Path to a newline delimited word catalog. A generated catalog is used if not given.")
	flags.StringVar(&c.table, "table", "", "Path to a mapping table written by 'caw table'. Ignored if it's for a different date.")
	flags.StringVarP(&c.date, "date", "d", "", "Date to rotate the mapping for, as YYYY-MM-DD. Defaults to today in UTC.")
	flags.IntVarP(&c.limit, "limit", "l", defaultLimit, "Maximum characters per message.")
	flags.IntVarP(&c.workers, "workers", "w", 0, "Maximum goroutines per operation, 0 means one per CPU.")
	flags.StringVar(&c.addr, "addr", defaultAddr, "Listen address for 'caw serve'.")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Print diagnostic output to stderr.")
	flags.BoolVarP(&c.help, "help", "h", false, "Prints this usage information.")
}

// merge applies explicitly set flags over the config file.
func (c *commonFlags) merge(flags *flag.FlagSet, cfg Config) Config {
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("secret", func() { cfg.Secret = c.secret })
	set("keyfile", func() { cfg.Keyfile = c.keyfile })
	set("passphrase-env", func() { cfg.PassphraseEnv = c.passphraseEnv })
	set("catalog", func() { cfg.Catalog = c.catalog })
	set("table", func() { cfg.Table = c.table })
	set("date", func() { cfg.Date = c.date })
	set("limit", func() { cfg.Limit = c.limit })
	set("workers", func() { cfg.Workers = c.workers })
	set("addr", func() { cfg.Addr = c.addr })
	return cfg
}

func (cfg Config) validate() error {
	if len(cfg.Secret) > 0 && len(cfg.Keyfile) > 0 {
		return errors.New("only one of secret or keyfile may be given")
	}
	if cfg.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", cfg.Limit)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", cfg.Workers)
	}
	return nil
}

func (cfg Config) options() []armor.Option {
	if cfg.Workers > 0 {
		return []armor.Option{armor.WithWorkers(cfg.Workers)}
	}
	return nil
}

func (cfg Config) date() (armor.Date, error) {
	if len(cfg.Date) == 0 {
		return armor.Today(), nil
	}
	return armor.ParseDate(cfg.Date)
}

func (cfg Config) passphrase() ([]byte, error) {
	if pass := os.Getenv(cfg.PassphraseEnv); len(pass) > 0 {
		return []byte(pass), nil
	}
	return promptPassphrase(fmt.Sprintf("Passphrase (or set $%s): ", cfg.PassphraseEnv))
}

// loadSecret resolves the shared secret from the config or the keyfile.
func (cfg Config) loadSecret() (armor.Secret, error) {
	switch {
	case len(cfg.Secret) > 0:
		return armor.ParseSecret(cfg.Secret)
	case len(cfg.Keyfile) > 0:
		f, err := os.Open(cfg.Keyfile)
		if err != nil {
			return armor.Secret{}, fmt.Errorf("failed to open keyfile: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		pass, err := cfg.passphrase()
		if err != nil {
			return armor.Secret{}, err
		}
		return keyfile.Unlock(f, pass)
	default:
		return armor.Secret{}, errors.New("a shared secret is required, use --keyfile or --secret")
	}
}

func (cfg Config) loadCatalog() (*armor.Catalog, error) {
	if len(cfg.Catalog) == 0 {
		internal.Debug("Using the generated catalog of %d words", wordlist.DefaultSize)
		return armor.NewCatalog(wordlist.Default())
	}
	f, err := os.Open(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	cat, err := armor.ReadCatalog(f)
	if err != nil {
		return nil, err
	}
	internal.Debug("Loaded %d words from %s", cat.Len(), cfg.Catalog)
	return cat, nil
}

// loadTable loads the cached table if it's for the right date, otherwise the table is built.
func (cfg Config) loadTable(cat *armor.Catalog) (*armor.Table, error) {
	date, err := cfg.date()
	if err != nil {
		return nil, err
	}
	if len(cfg.Table) > 0 {
		t, err := readTableFile(cfg.Table, cat)
		switch {
		case err != nil:
			return nil, err
		case t.Date() == date:
			internal.Debug("Using cached table for %s", date)
			return t, nil
		default:
			internal.Echo("Ignoring cached table for %s, need %s", t.Date(), date)
		}
	}
	secret, err := cfg.loadSecret()
	if err != nil {
		return nil, err
	}
	internal.Debug("Building table for %s", date)
	return armor.BuildTable(cat, secret, date)
}

func readTableFile(path string, cat *armor.Catalog) (*armor.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return armor.ReadTable(f, cat)
}

func trimLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
