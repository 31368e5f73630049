// Command intake-admin manages operator accounts and exports records
// without going through the web portal.
package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"intake/internal/auth"
	"intake/internal/backend"
	"intake/internal/cli"
	"intake/internal/core"
	"intake/internal/export"
	applog "intake/internal/log"
	"intake/internal/records"
)

// readPassword is swapped in tests to avoid touching the terminal.
var readPassword = term.ReadPassword

const usage = `usage: intake-admin <command> [flags]

commands:
  adduser -email <email>                      create a local admin account
  export [-o file] [-q text] [-from date] [-to date]
                                              write the filtered records as xlsx
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)
	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "adduser":
		fs := flag.NewFlagSet("adduser", flag.ExitOnError)
		email := fs.String("email", "", "operator email")
		_ = fs.Parse(os.Args[2:])

		repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
		defer repo.Close()
		err = runAddUser(ctx, auth.NewLocalProvider(repo), *email, bufio.NewReader(os.Stdin), os.Stdout)

	case "export":
		fs := flag.NewFlagSet("export", flag.ExitOnError)
		out := fs.String("o", export.FileName, "output file")
		search := fs.String("q", "", "search name, account, mobile or email")
		from := fs.String("from", "", "created on or after (yyyy-mm-dd)")
		to := fs.String("to", "", "created on or before (yyyy-mm-dd)")
		_ = fs.Parse(os.Args[2:])

		backendCfg, cerr := backend.FromAppConfig(cfg)
		if cerr != nil {
			logger.Error("Invalid backend configuration", applog.FieldError, cerr)
			os.Exit(1)
		}
		result, cerr := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
		if cerr != nil {
			logger.Error("Failed to initialize backend", applog.FieldError, cerr)
			os.Exit(1)
		}
		if result.Cleanup != nil {
			defer result.Cleanup()
		}

		criteria := core.FilterCriteria{Search: *search, From: *from, To: *to}
		var n int
		n, err = runExport(ctx, result.Backend, criteria, *out)
		if err == nil {
			applog.NewStructuredLogger(logger).LogExport(ctx, "cli", n, *out)
		}

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("Command failed", applog.FieldError, err, "command", os.Args[1])
		os.Exit(1)
	}
}

// runAddUser registers email with a password typed twice.
func runAddUser(ctx context.Context, p auth.Provider, email string, in *bufio.Reader, out io.Writer) error {
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Fprint(out, "Email: ")
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		return errors.New("email is required")
	}

	pw, err := promptPassword(out, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword(out, "Repeat password: ")
	if err != nil {
		return err
	}
	if !bytes.Equal(pw, confirm) {
		return errors.New("passwords do not match")
	}

	u, err := p.SignUp(ctx, email, string(pw))
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	fmt.Fprintf(out, "Created operator %s (%s)\n", u.Email, u.ID)
	return nil
}

func promptPassword(out io.Writer, prompt string) ([]byte, error) {
	fmt.Fprint(out, prompt)
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}

// runExport writes the records matching c to path and returns the row count.
func runExport(ctx context.Context, lister records.Lister, c core.FilterCriteria, path string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	all, err := lister.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list records: %w", err)
	}
	rows := core.ExportRows(core.ApplyFilters(all, c, nil))

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteXLSX(f, rows); err != nil {
		f.Close()
		return 0, fmt.Errorf("write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", path, err)
	}
	return len(rows), nil
}
