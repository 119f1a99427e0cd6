package system

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/stepworks/streakd/internal/cli"
	"github.com/stepworks/streakd/internal/constants"
	"github.com/stepworks/streakd/internal/server"
)

type ServeCmd struct {
	Addr    string `default:"${addr}" env:"STREAKD_ADDR" help:"Address to listen on."`
	Origins string `default:"${origins}" help:"Comma-separated CORS origins. Empty allows all."`
}

func (cmd *ServeCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Tracker()
	if err != nil {
		return err
	}

	addr := cmd.Addr
	if addr == "" {
		addr = constants.DefaultListenAddr
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx.Printf("Serving streak API on %s\n", addr)
	return server.Run(runCtx, svc, server.Config{
		Addr:         addr,
		AllowOrigins: server.ParseOrigins(cmd.Origins),
		LockfilePath: server.LockfilePath(ctx.ConfigDir),
		Debug:        ctx.Debug,
	})
}
