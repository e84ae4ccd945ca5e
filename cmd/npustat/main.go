package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/kisy/npustat/config"
	"github.com/kisy/npustat/pkg/engine"
	"github.com/kisy/npustat/pkg/i18n"
	"github.com/kisy/npustat/pkg/metrics"
	"github.com/kisy/npustat/pkg/rpc"
	"github.com/kisy/npustat/pkg/tui"
	"github.com/kisy/npustat/pkg/web"
)

func main() {
	var (
		cfgFile string
		cfg     config.Config
	)

	defaultCfg := config.DefaultConfig()
	cfg = defaultCfg

	// Define command-line flags
	flag.StringVarP(&cfgFile, "config", "c", "", "Path to TOML configuration file")
	flag.StringVarP(&cfg.RPCURL, "url", "u", defaultCfg.RPCURL, "ubus JSON-RPC endpoint")
	flag.StringVar(&cfg.Username, "user", defaultCfg.Username, "rpcd login user (empty for anonymous)")
	flag.StringVar(&cfg.Password, "password", defaultCfg.Password, "rpcd login password")
	flag.StringVar(&cfg.Object, "object", defaultCfg.Object, "ubus object providing the NPU methods")
	flag.IntVarP(&cfg.PollInterval, "interval", "s", defaultCfg.PollInterval, "Poll interval in seconds")
	flag.IntVar(&cfg.Timeout, "timeout", defaultCfg.Timeout, "Timeout of each backend call in seconds (0 disables)")
	flag.StringVarP(&cfg.HTTPAddr, "listen", "l", defaultCfg.HTTPAddr, "Web server address")
	flag.StringVar(&cfg.Locale, "locale", defaultCfg.Locale, "Display language (en, zh_CN)")
	flag.StringVar(&cfg.LocaleFile, "locale-file", defaultCfg.LocaleFile, "Extra TOML message catalog")
	flag.StringVar(&cfg.StatusFile, "status-file", defaultCfg.StatusFile, "Read getStatus output from a JSON file")
	flag.StringVar(&cfg.EntriesFile, "entries-file", defaultCfg.EntriesFile, "Read getPpeEntries output from a JSON file")
	flag.StringVar(&cfg.LogLevel, "log-level", defaultCfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFile, "log-file", defaultCfg.LogFile, "Write the log to this file")
	flag.StringVarP(&cfg.Mode, "mode", "m", defaultCfg.Mode, "Display mode (auto, web, tui, once)")

	flag.Parse()

	// Load configuration; flags given explicitly win over the file
	if cfgFile != "" {
		fileCfg := defaultCfg
		if err := config.LoadConfig(cfgFile, &fileCfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		flag.Visit(func(f *flag.Flag) { applyFlag(&fileCfg, &cfg, f.Name) })
		cfg = fileCfg
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.Mode == config.ModeAuto {
		cfg.Mode = config.ModeWeb
		if term.IsTerminal(int(os.Stdout.Fd())) {
			cfg.Mode = config.ModeTUI
		}
	}

	log := logrus.New()
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.Mode == config.ModeTUI || cfg.LogFile != "" {
		log.SetOutput(logOutput(cfg.LogFile))
	}

	catalog, err := i18n.Load(cfg.Locale, cfg.LocaleFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading messages: %v\n", err)
		os.Exit(1)
	}

	var fetcher engine.Fetcher
	if cfg.UseFiles() {
		fetcher = rpc.FileSource{StatusPath: cfg.StatusFile, EntriesPath: cfg.EntriesFile}
	} else {
		var opts []rpc.ClientOption
		if cfg.Username != "" {
			opts = append(opts, rpc.WithCredentials(cfg.Username, cfg.Password))
		}
		fetcher = rpc.NewNPU(rpc.NewClient(cfg.RPCURL, opts...), cfg.Object)
	}

	// Print Effective Configuration
	if cfg.Mode == config.ModeWeb {
		fmt.Println("---------------------------------------------------------")
		fmt.Printf("npustat Configuration:\n")
		if cfg.UseFiles() {
			fmt.Printf("  Source:       %s, %s\n", cfg.StatusFile, cfg.EntriesFile)
		} else {
			fmt.Printf("  Source:       %s (%s)\n", cfg.RPCURL, cfg.Object)
		}
		fmt.Printf("  Web Server:   http://%s/\n", cfg.HTTPAddr)
		fmt.Printf("  Interval:     %ds\n", cfg.PollInterval)
		fmt.Printf("  Locale:       %s\n", catalog.Locale)
		fmt.Println("---------------------------------------------------------")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exporter := metrics.NewExporter(nil)
	eng := engine.New(fetcher, catalog.Func(), engine.Options{
		Interval: cfg.PollPeriod(),
		Timeout:  cfg.CallTimeout(),
		Logger:   log,
		Observer: exporter,
	})
	exporter.SetSource(eng)
	eng.Mount(ctx)

	switch cfg.Mode {
	case config.ModeOnce:
		if err := tui.WriteText(os.Stdout, eng.Surface(), eng.Tr()); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing panel: %v\n", err)
			os.Exit(1)
		}

	case config.ModeTUI:
		p := tea.NewProgram(tui.NewApp(ctx, eng), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
			os.Exit(1)
		}

	default:
		if err := serve(ctx, cfg, catalog.Locale, eng, exporter, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting Web server: %v\n", err)
			os.Exit(1)
		}
	}
}

func serve(ctx context.Context, cfg config.Config, locale string, eng *engine.Engine, exporter *metrics.Exporter, log *logrus.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(exporter, collectors.NewGoCollector())

	mux := http.NewServeMux()
	web.NewServer(eng, locale, registry, log).RegisterHandlers(mux)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	fmt.Printf("Web UI available at http://%s/\n", cfg.HTTPAddr)

	go eng.Run(ctx)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		fmt.Println("\nShutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// applyFlag copies the value of an explicitly set flag from src to dst.
func applyFlag(dst, src *config.Config, name string) {
	switch name {
	case "url":
		dst.RPCURL = src.RPCURL
	case "user":
		dst.Username = src.Username
	case "password":
		dst.Password = src.Password
	case "object":
		dst.Object = src.Object
	case "interval":
		dst.PollInterval = src.PollInterval
	case "timeout":
		dst.Timeout = src.Timeout
	case "listen":
		dst.HTTPAddr = src.HTTPAddr
	case "locale":
		dst.Locale = src.Locale
	case "locale-file":
		dst.LocaleFile = src.LocaleFile
	case "status-file":
		dst.StatusFile = src.StatusFile
	case "entries-file":
		dst.EntriesFile = src.EntriesFile
	case "log-level":
		dst.LogLevel = src.LogLevel
	case "log-file":
		dst.LogFile = src.LogFile
	case "mode":
		dst.Mode = src.Mode
	}
}

// logOutput keeps the log off the terminal while the TUI owns it.
func logOutput(path string) io.Writer {
	if path == "" {
		return io.Discard
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v\n", path, err)
		return io.Discard
	}
	return f
}
