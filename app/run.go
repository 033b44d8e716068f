package app

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"cvwidgets/config"
	"cvwidgets/display"
	"cvwidgets/server"
)

// Run shows a in a new window until the window is closed or ctx is done.
// With cfg.Port > 0 the player is also remote controlled; requests execute
// on the display goroutine.
func Run(ctx context.Context, cfg *config.Config, a *App) error {
	win, err := display.NewWindow(cfg.WindowTitle, cfg.WindowWidth, cfg.WindowHeight)
	if err != nil {
		return errors.Wrap(err, "open window")
	}
	defer win.Close()

	d := display.NewApp(a.Root, display.NewPainter(cfg.FontPath))
	d.Controller = a.Controller
	d.Player = a.Player

	if a.Player != nil && cfg.Port > 0 {
		// 创建 Server 实例
		svc := server.NewServer(a.Player)
		svc.Manager().SetExecutor(d.Commands)
		if a.Open != nil {
			svc.Manager().SetOpenFunc(a.Open)
		}
		// 设置路由
		svc.SetupRoutes()
		defer svc.Close()

		go func() {
			if err := svc.Run(cfg.Port); err != nil {
				log.Errorf("remote control stopped: %v", err)
			}
		}()
	}

	return display.Run(ctx, win, d)
}
