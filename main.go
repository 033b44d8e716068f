package main

import (
	"context"
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"cvwidgets/app"
	"cvwidgets/config"
	"cvwidgets/display"
	"cvwidgets/util/logging"
)

var configPath = flag.String("config", "config.json", "config file, .json or .toml")

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("setup logger: %v", err)
	}
	if log.GetLevel() >= log.DebugLevel {
		go func() {
			log.Println(http.ListenAndServe("localhost:6060", nil))
		}()
	}

	display.Main(func() {
		if err := run(cfg); err != nil {
			log.Errorf("video player exited: %v", err)
		}
	})
}

func run(cfg *config.Config) error {
	a, err := app.New(cfg, app.DefaultDeps())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Run(ctx, cfg, a)
}
