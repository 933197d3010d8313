// Package command implements the techsearchctl commands.
package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kailas-cloud/techsearch/internal/version"
	techsearch "github.com/kailas-cloud/techsearch/pkg/sdk"
)

const envPrefix = "TECHSEARCH"

// Flag and config keys.
const (
	keyDB           = "db"
	keyDriver       = "driver"
	keyConfig       = "config"
	keyQueryTimeout = "query-timeout"
	keyExportMax    = "export-max"
	keyRequest      = "request"
	keyLimit        = "limit"
	keyOut          = "out"
	keyField        = "field"
	keyQuery        = "q"
)

// commandline carries state shared by every subcommand.
type commandline struct {
	v      *viper.Viper
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewRootCmd builds the techsearchctl command tree. Each call gets its own
// viper instance.
func NewRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cl := &commandline{
		v:      viper.New(),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	root := &cobra.Command{
		Use:           "techsearchctl",
		Short:         "Compile and run company/technology searches against a local dataset",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return cl.loadConfig()
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.SetGlobalNormalizationFunc(normalizeFlag)
	fs := root.PersistentFlags()
	fs.String(keyConfig, "", "optional config file (yaml, json or toml)")
	fs.String(keyDB, "", "path to the dataset database file")
	fs.String(keyDriver, techsearch.DriverSQLite, "database driver: sqlite or duckdb")
	fs.Duration(keyQueryTimeout, 30*time.Second, "per-query timeout")
	fs.Int(keyExportMax, 50000, "maximum number of exported records")
	_ = cl.v.BindPFlags(fs)

	root.AddCommand(cl.compileCmd(), cl.exportCmd(), cl.suggestCmd())
	return root
}

// normalizeFlag lets --export_max and --export-max name the same flag.
func normalizeFlag(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func (cl *commandline) loadConfig() error {
	cl.v.SetEnvPrefix(envPrefix)
	cl.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cl.v.AutomaticEnv()

	if path := cl.v.GetString(keyConfig); path != "" {
		cl.v.SetConfigFile(path)
		if err := cl.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return nil
}

func (cl *commandline) client(ctx context.Context) (*techsearch.Client, error) {
	path := cl.v.GetString(keyDB)
	if path == "" {
		return nil, fmt.Errorf("--%s (or %s_DB) is required", keyDB, envPrefix)
	}

	opts := []techsearch.Option{
		techsearch.WithReadOnly(),
		techsearch.WithQueryTimeout(cl.v.GetDuration(keyQueryTimeout)),
		techsearch.WithExportMaxLimit(cl.v.GetInt(keyExportMax)),
	}
	switch driver := cl.v.GetString(keyDriver); driver {
	case techsearch.DriverSQLite:
		opts = append(opts, techsearch.WithSQLite(path))
	case techsearch.DriverDuckDB:
		opts = append(opts, techsearch.WithDuckDB(path))
	default:
		return nil, fmt.Errorf("unknown driver %q", driver)
	}

	c, err := techsearch.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return c, nil
}

// readRequest reads the request JSON from --request, "-" meaning stdin.
// No flag means an unfiltered request.
func (cl *commandline) readRequest() (techsearch.SearchRequest, error) {
	path := cl.v.GetString(keyRequest)
	switch path {
	case "":
		return techsearch.SearchRequest{}, nil
	case "-":
		return techsearch.DecodeSearchRequest(cl.stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return techsearch.SearchRequest{}, fmt.Errorf("open request: %w", err)
	}
	defer f.Close()
	return techsearch.DecodeSearchRequest(f)
}

// bindLocal binds the running command's own flags. Subcommands share flag
// names, so binding happens at run time rather than at construction.
func (cl *commandline) bindLocal(cmd *cobra.Command, _ []string) error {
	if err := cl.v.BindPFlags(cmd.LocalNonPersistentFlags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	return nil
}
