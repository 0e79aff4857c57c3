package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/pflag"

	"storewatch/internal/app"
	"storewatch/internal/config"
	logx "storewatch/pkg/logx"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type options struct {
	configPath string
	once       bool
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := pflag.NewFlagSet("storewatch", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&o.configPath, "config", "c", "", "path to config file (JSON or YAML); empty uses STOREWATCH_* env only")
	fs.BoolVar(&o.once, "once", false, "run a single cycle and exit")
	fs.BoolVar(&o.version, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: storewatch [flags]\n\nWatches a store catalog and reports added/removed items to Telegram.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return o, nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseFlags(args, os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "storewatch:", err)
		return 2
	}
	if opts.version {
		fmt.Println("storewatch", version)
		return 0
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, config.NewManager(opts.configPath))
	if err != nil {
		// The configured logger may not exist yet.
		logx.NewConsole("info").Error("startup failed", logx.String("config", opts.configPath), logx.Err(err))
		return 1
	}
	log := a.Logger()

	if opts.once {
		out := a.RunOnce(ctx)
		_ = a.Stop(context.Background())
		if out.Err != nil {
			return 1
		}
		return 0
	}

	if err := a.Start(ctx); err != nil {
		log.Error("start failed", logx.Err(err))
		_ = a.Stop(context.Background())
		return 1
	}
	notifySystemd(log, daemon.SdNotifyReady)
	log.Info("storewatch running", logx.String("version", version))

	<-ctx.Done()
	notifySystemd(log, daemon.SdNotifyStopping)
	log.Info("shutting down")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := a.Stop(stopCtx); err != nil {
		fmt.Fprintln(os.Stderr, "stop:", err)
		return 1
	}
	return 0
}

// notifySystemd is a no-op outside systemd (NOTIFY_SOCKET unset).
func notifySystemd(log logx.Logger, state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		log.Warn("systemd notify failed", logx.String("state", state), logx.Err(err))
		return
	}
	if sent {
		log.Debug("systemd notified", logx.String("state", state))
	}
}
