package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"datecalc/internal/calc"
	"datecalc/internal/config"
	appLog "datecalc/internal/log"
	"datecalc/internal/mcp"
	"datecalc/internal/notes"
)

// Version is overridden at build time with -ldflags "-X".
var Version = "0.1.0-dev"

const serverName = "datecalc"

// rootOptions holds the flags shared by serve and calc. Set flags win over
// environment variables, which win over the config file.
type rootOptions struct {
	configPath string
	logLevel   string
	transport  string
	host       string
	port       int
}

// NewRootCmd builds the command tree. Running the root command without a
// subcommand is the same as "serve".
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "datecalc",
		Short: "Date and time calculation server speaking MCP",
		Long: `datecalc answers calendar questions for language-model clients:
date arithmetic, date ranges, business days, current time in any IANA
timezone and strftime formatting. It speaks the Model Context Protocol
over stdio (default) or HTTP, and keeps a small note store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config (defaults only when empty)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warning or error")
	addServeFlags(root, opts)

	root.AddCommand(newServeCmd(opts), newCalcCmd(opts), newVersionCmd())
	return root
}

// Execute runs the CLI with a context cancelled on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil {
		printError(err)
	}
	return err
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "datecalc: %v\n", err)
}

// loadConfig resolves the effective configuration and applies its log level.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", opts.configPath)
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)

	if opts.transport != "" {
		cfg.Transport = opts.transport
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.host != "" || opts.port > 0 {
		host, port, err := net.SplitHostPort(cfg.Listen)
		if err != nil {
			return nil, err
		}
		if opts.host != "" {
			host = opts.host
		}
		if opts.port > 0 {
			port = strconv.Itoa(opts.port)
		}
		cfg.Listen = net.JoinHostPort(host, port)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := appLog.ParseLevel(cfg.LogLevel)
	appLog.SetLevel(level)
	return cfg, nil
}

// app is the wired engine, note store and MCP server for one process.
type app struct {
	cfg    *config.Config
	engine *calc.Engine
	store  notes.Store
	server *mcp.Server
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	opts := []calc.Option{calc.WithDefaultZone(cfg.DefaultTimezone)}
	if cfg.Cache.Enabled {
		opts = append(opts, calc.WithCache(calc.NewCache(cfg.Cache.Size, cfg.Cache.TTL)))
	}
	engine := calc.NewEngine(calc.NewZoneDB(cfg.ZoneinfoDir), opts...)

	store, err := notes.Open(ctx, cfg.Notes.Driver, cfg.Notes.DSN, notes.Limits{
		MaxNotes:     cfg.Notes.MaxNotes,
		MaxNoteBytes: cfg.Notes.MaxNoteBytes,
	})
	if err != nil {
		return nil, err
	}

	server := mcp.NewServer(engine, store,
		mcp.Info{Name: serverName, Version: Version},
		mcp.WithRequestTimeout(cfg.HTTP.RequestTimeout),
	)
	return &app{cfg: cfg, engine: engine, store: store, server: server}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
