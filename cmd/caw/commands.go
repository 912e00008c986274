package main

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/saylorsolutions/wordarmor/cmd/internal"
	"github.com/saylorsolutions/wordarmor/pkg/armor"
	"github.com/saylorsolutions/wordarmor/pkg/armorhttp"
	"github.com/saylorsolutions/wordarmor/pkg/keyfile"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"
)

const selfSignedValidity = 365 * 24 * time.Hour

var (
	doffPartial  bool
	doffLength   int
	keygenShow   bool
	keygenFast   bool
	keygenForce  bool
	serveTLS     bool
	promptSource = os.Stdin
)

func doffFlags(flags *flag.FlagSet) {
	flags.BoolVarP(&doffPartial, "partial", "p", false, "Skip malformed messages instead of failing, reporting each to stderr.")
	flags.IntVar(&doffLength, "length", -1, "Truncate the output to this many bytes, to undo padding of odd-length input.")
}

func serveFlags(flags *flag.FlagSet) {
	flags.BoolVar(&serveTLS, "tls-self-signed", false, "Serve HTTPS with a certificate generated at startup for localhost and the --addr host.")
}

func keygenFlags(flags *flag.FlagSet) {
	flags.BoolVar(&keygenShow, "show", false, "Print the generated secret to stdout, to share it with the receiver.")
	flags.BoolVar(&keygenFast, "fast", false, "Use a faster key derivation, for keyfiles unlocked frequently.")
	flags.BoolVarP(&keygenForce, "force", "f", false, "Overwrite KEYFILE if it exists.")
}

// readInput reads the file named by the only positional argument, or stdin if there is none.
func readInput(flags *flag.FlagSet) ([]byte, error) {
	switch flags.NArg() {
	case 0:
		return io.ReadAll(os.Stdin)
	case 1:
		return os.ReadFile(flags.Arg(0))
	default:
		return nil, fmt.Errorf("expected at most one FILE argument, got %d", flags.NArg())
	}
}

func runDon(cfg Config, flags *flag.FlagSet) error {
	cat, err := cfg.loadCatalog()
	if err != nil {
		return err
	}
	table, err := cfg.loadTable(cat)
	if err != nil {
		return err
	}
	data, err := readInput(flags)
	if err != nil {
		return err
	}
	messages, err := armor.Don(data, table, cfg.Limit, cfg.options()...)
	if err != nil {
		return err
	}
	if len(data)%2 != 0 {
		internal.Echo("Input has an odd length, pass '--length %d' to doff to remove the padding", len(data))
	}
	internal.Debug("Armored %d bytes into %d messages", len(data), len(messages))
	out := bufio.NewWriter(os.Stdout)
	for _, msg := range messages {
		_, _ = out.WriteString(msg)
		_ = out.WriteByte('\n')
	}
	return out.Flush()
}

func runDoff(cfg Config, flags *flag.FlagSet) error {
	cat, err := cfg.loadCatalog()
	if err != nil {
		return err
	}
	table, err := cfg.loadTable(cat)
	if err != nil {
		return err
	}
	input, err := readInput(flags)
	if err != nil {
		return err
	}
	messages := trimLines(string(input))
	data, err := recoverData(cfg, table, messages, doffPartial, doffLength)
	if err != nil {
		return err
	}
	internal.Debug("Recovered %d bytes from %d messages", len(data), len(messages))
	_, err = os.Stdout.Write(data)
	return err
}

// recoverData decodes messages, skipping malformed ones when partial is set.
// A non-negative length truncates the result.
func recoverData(cfg Config, table *armor.Table, messages []string, partial bool, length int) ([]byte, error) {
	var data []byte
	if partial {
		var skipped []error
		data, skipped = armor.DoffPartial(messages, table, cfg.options()...)
		for _, err := range skipped {
			internal.Echo("Skipped %v", err)
		}
		if len(data) == 0 && len(skipped) > 0 {
			return nil, errors.New("no data could be recovered")
		}
	} else {
		var err error
		data, err = armor.Doff(messages, table, cfg.options()...)
		if err != nil {
			return nil, err
		}
	}
	if length >= 0 {
		if length > len(data) {
			return nil, fmt.Errorf("requested length %d, but only %d bytes were recovered", length, len(data))
		}
		data = data[:length]
	}
	return data, nil
}

func runTable(cfg Config, flags *flag.FlagSet) error {
	if flags.NArg() != 1 {
		return errors.New("expected exactly one OUTPUT argument")
	}
	cat, err := cfg.loadCatalog()
	if err != nil {
		return err
	}
	date, err := cfg.date()
	if err != nil {
		return err
	}
	secret, err := cfg.loadSecret()
	if err != nil {
		return err
	}
	table, err := armor.BuildTable(cat, secret, date)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := armor.WriteTable(&buf, table); err != nil {
		return err
	}
	if err := os.WriteFile(flags.Arg(0), buf.Bytes(), 0600); err != nil {
		return err
	}
	internal.Debug("Wrote table for %s to %s", date, flags.Arg(0))
	return nil
}

func runKeygen(cfg Config, flags *flag.FlagSet) error {
	if flags.NArg() != 1 {
		return errors.New("expected exactly one KEYFILE argument")
	}
	target := flags.Arg(0)
	if _, err := os.Stat(target); err == nil && !keygenForce {
		return fmt.Errorf("'%s' already exists, use --force to overwrite it", target)
	}
	var (
		secret armor.Secret
		err    error
	)
	if len(cfg.Secret) > 0 {
		secret, err = armor.ParseSecret(cfg.Secret)
	} else {
		secret, err = armor.GenerateSecret()
	}
	if err != nil {
		return err
	}
	opts := []keyfile.GeneratorOpt{keyfile.SetLongDelayIterations()}
	if keygenFast {
		opts = []keyfile.GeneratorOpt{keyfile.SetShortDelayIterations()}
	}
	gen, err := keyfile.NewGenerator(opts...)
	if err != nil {
		return err
	}
	pass, err := cfg.passphrase()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := gen.Lock(&buf, pass, secret); err != nil {
		return err
	}
	if err := os.WriteFile(target, buf.Bytes(), 0600); err != nil {
		return err
	}
	internal.Echo("Wrote keyfile to %s", target)
	if keygenShow {
		fmt.Println(secret.String())
	}
	return nil
}

func runServe(cfg Config, _ *flag.FlagSet) error {
	level := slog.LevelInfo
	if internal.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cat, err := cfg.loadCatalog()
	if err != nil {
		return err
	}
	secret, err := cfg.loadSecret()
	if err != nil {
		return err
	}
	h, err := armorhttp.New(armorhttp.Config{
		Catalog:      cat,
		Secret:       secret,
		DefaultLimit: cfg.Limit,
		Workers:      cfg.Workers,
		Log:          log,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      h.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	if serveTLS {
		srv.TLSConfig, err = selfSignedConfig(cfg.Addr)
		if err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("Serving armor", "addr", cfg.Addr, "tls", serveTLS)
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

// promptPassphrase reads a passphrase from the terminal without echoing it.
func promptPassphrase(prompt string) ([]byte, error) {
	fd := int(promptSource.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("no passphrase given and stdin is not a terminal")
	}
	internal.Echo("%s", strings.TrimSuffix(prompt, "\n"))
	pass, err := term.ReadPassword(fd)
	internal.Echo("")
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(pass) == 0 {
		return nil, keyfile.ErrEmptyPassphrase
	}
	return pass, nil
}

// selfSignedConfig creates a TLS config valid for localhost and the host of addr.
func selfSignedConfig(addr string) (*tls.Config, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid listen address '%s': %w", addr, err)
	}
	hosts := []string{"localhost"}
	if len(host) > 0 && host != "localhost" {
		hosts = append(hosts, host)
	}
	return armorhttp.SelfSignedTLS(hosts, selfSignedValidity)
}
