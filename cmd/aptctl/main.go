// Command aptctl drives one APT motion or NanoTrack controller from the shell.
//
//	aptctl [flags] <verb> [args]
//
// Settings come from aptctl.yaml, APT_* environment variables and flags, in
// increasing order of precedence. Run "aptctl --help" for the verb list.
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

	"github.com/spf13/pflag"

	"github.com/arloliu/go-apt/apt"
	"github.com/arloliu/go-apt/config"
	"github.com/arloliu/go-apt/logger"
	"github.com/arloliu/go-apt/metrics"
	"github.com/arloliu/go-apt/serialport"
	"github.com/arloliu/go-apt/transport"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "aptctl:", err)
		}
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("aptctl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "configuration file (default ./aptctl.yaml or /etc/aptctl/aptctl.yaml)")
	config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: aptctl [flags] <verb> [args]\n\nverbs:\n")
		for _, v := range verbs {
			fmt.Fprintf(stderr, "  %-18s %s\n", v.usage, v.help)
		}
		fmt.Fprintf(stderr, "\nflags:\n%s", fs.FlagUsages())
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing verb")
	}

	cfg, err := config.Load(*configPath, fs)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := logger.ParseLevel(cfg.Logging.Level)
	log := logger.NewSlogWithWriter(stderr, level, false)
	logger.SetLogger(log)

	port, err := openPort(ctx, cfg, log)
	if err != nil {
		return err
	}

	sess, err := transport.NewSession(port, cfg.SessionOptions(log)...)
	if err != nil {
		_ = port.Close()
		return err
	}
	defer sess.Close()

	if cfg.Metrics.Addr != "" {
		shutdown := serveMetrics(cfg, sess, log)
		defer shutdown()
	}

	sf, err := cfg.ScaleFactors()
	if err != nil {
		return err
	}

	ctrl, err := apt.NewController(sess, cfg.Address(), sf, cfg.ControllerOptions(log)...)
	if err != nil {
		return err
	}

	return runVerb(ctx, ctrl, fs.Arg(0), fs.Args()[1:], stdout)
}

func openPort(ctx context.Context, cfg *config.Config, log logger.Logger) (io.ReadWriteCloser, error) {
	if cfg.Port.TCPAddr != "" {
		log.Debug("aptctl: dialing serial device server", "addr", cfg.Port.TCPAddr)
		return serialport.DialTCP(ctx, cfg.Port.TCPAddr, cfg.PortOptions(log)...)
	}

	log.Debug("aptctl: opening serial port", "port", cfg.Port.Name, "baud", cfg.Port.Baud)

	return serialport.Open(cfg.Port.Name, cfg.PortOptions(log)...)
}

// serveMetrics exposes the session counters until the returned func is called.
func serveMetrics(cfg *config.Config, sess *transport.Session, log logger.Logger) func() {
	reg := metrics.NewRegistry()
	reg.MustRegister(metrics.NewCollector(cfg.Metrics.Namespace, sess.Config().Name(), sess.Metrics()))

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("aptctl: serving metrics", "addr", cfg.Metrics.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("aptctl: metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
