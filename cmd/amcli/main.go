// amcli is a command line tool for poking at a streaming platform account:
// resolving login names, checking live status, and running the occasional
// follow or ad break without a full chat client attached.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/carlmjohnson/versioninfo"
	"github.com/urfave/cli/v2"

	"github.com/glimmerchat/amethyst/twitch/api"
	"github.com/glimmerchat/amethyst/twitch/helix"
	"github.com/glimmerchat/amethyst/twitch/syntax"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(-1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:    "amcli",
		Usage:   "streaming platform API client tool",
		Version: versioninfo.Short(),
	}
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "client-id",
			Usage:   "application client id for the platform API",
			EnvVars: []string{"TWITCH_CLIENT_ID"},
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "OAuth token for authenticated calls",
			EnvVars: []string{"TWITCH_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "api-host",
			Usage:   "method, hostname, and port of the platform API",
			EnvVars: []string{"TWITCH_API_HOST"},
		},
		&cli.StringFlag{
			Name:    "auth-host",
			Usage:   "method, hostname, and port of the token verification host",
			EnvVars: []string{"TWITCH_AUTH_HOST"},
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "how long to wait for a platform response",
			Value:   15 * time.Second,
			EnvVars: []string{"AMCLI_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			EnvVars: []string{"AMCLI_LOG_LEVEL", "GO_LOG_LEVEL", "LOG_LEVEL"},
		},
	}
	app.Commands = []*cli.Command{
		cmdResolve,
		cmdVerify,
		cmdStream,
		cmdChannel,
		cmdChat,
		cmdFollowers,
		cmdSearch,
		cmdFollow,
		cmdUnfollow,
		cmdWatch,
	}
	return app.Run(args)
}

func configLogger(cctx *cli.Context, writer io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cctx.String("log-level")) {
	case "error":
		level = slog.LevelError
	case "warn":
		level = slog.LevelWarn
	case "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	default:
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

func newDispatcher(cctx *cli.Context) (*helix.Client, error) {
	clientID := cctx.String("client-id")
	if clientID == "" {
		return nil, fmt.Errorf("need a client id (--client-id or TWITCH_CLIENT_ID)")
	}
	c := helix.NewClient(clientID)
	c.Token = cctx.String("token")
	if host := cctx.String("api-host"); host != "" {
		c.Host = host
	}
	if host := cctx.String("auth-host"); host != "" {
		c.AuthHost = host
	}
	return c, nil
}

// newFacade wires the coordination layer over a live dispatcher. Logs go to
// stderr so command output stays clean on stdout.
func newFacade(cctx *cli.Context, listeners *api.Listeners, opts *api.Options) (*api.API, error) {
	d, err := newDispatcher(cctx)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &api.Options{}
	}
	opts.Logger = configLogger(cctx, os.Stderr)
	a := api.New(d, listeners, opts)
	a.SetToken(cctx.String("token"))
	return a, nil
}

func await[T any](cctx *cli.Context, ch <-chan T) (T, error) {
	wait := cctx.Duration("timeout")
	select {
	case v := <-ch:
		return v, nil
	case <-cctx.Context.Done():
		var zero T
		return zero, cctx.Context.Err()
	case <-time.After(wait):
		var zero T
		return zero, fmt.Errorf("no response from platform after %s", wait)
	}
}

func usernameArgs(cctx *cli.Context) ([]syntax.Username, error) {
	if cctx.NArg() == 0 {
		return nil, fmt.Errorf("need at least one channel name")
	}
	names := make([]syntax.Username, 0, cctx.NArg())
	for _, raw := range cctx.Args().Slice() {
		name, err := syntax.ParseUsername(raw)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}
