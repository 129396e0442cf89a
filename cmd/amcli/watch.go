package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/glimmerchat/amethyst/twitch/api"
	"github.com/glimmerchat/amethyst/twitch/model"
	"github.com/glimmerchat/amethyst/twitch/syntax"
)

var cmdWatch = &cli.Command{
	Name:      "watch",
	ArgsUsage: `<channel>...`,
	Usage:     "poll live status and print transitions until interrupted",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:    "poll",
			Usage:   "refresh period",
			Value:   30 * time.Second,
			EnvVars: []string{"AMCLI_POLL_PERIOD"},
		},
		&cli.BoolFlag{
			Name:  "followed",
			Usage: "watch the token account's followed channels instead of arguments",
		},
	},
	Action: runWatch,
}

// streamTracker prints live/offline transitions and title changes as updates
// arrive. Updates come in on network callback goroutines.
type streamTracker struct {
	mu   sync.Mutex
	seen map[syntax.Username]model.StreamStatus
}

func newStreamTracker() *streamTracker {
	return &streamTracker{seen: make(map[syntax.Username]model.StreamStatus)}
}

func (tr *streamTracker) update(status model.StreamStatus) {
	tr.mu.Lock()
	prev, known := tr.seen[status.Channel]
	tr.seen[status.Channel] = status
	tr.mu.Unlock()

	ts := time.Now().Format("15:04:05")
	switch {
	case !known:
		if status.Live {
			fmt.Printf("[%s] %s is live: %s [%s] (%d viewers)\n", ts, status.Channel, status.Title, status.Game, status.Viewers)
		} else {
			fmt.Printf("[%s] %s is offline\n", ts, status.Channel)
		}
	case status.Live && !prev.Live:
		fmt.Printf("[%s] %s went live: %s [%s]\n", ts, status.Channel, status.Title, status.Game)
	case !status.Live && prev.Live:
		fmt.Printf("[%s] %s went offline\n", ts, status.Channel)
	case status.Live && status.Title != prev.Title:
		fmt.Printf("[%s] %s changed title: %s\n", ts, status.Channel, status.Title)
	case status.Live && status.Game != prev.Game:
		fmt.Printf("[%s] %s switched game: %s\n", ts, status.Channel, status.Game)
	}
}

func runWatch(cctx *cli.Context) error {
	followed := cctx.Bool("followed")

	var names []syntax.Username
	if !followed {
		var err error
		names, err = usernameArgs(cctx)
		if err != nil {
			return err
		}
	} else if cctx.String("token") == "" {
		return fmt.Errorf("watching followed channels needs a token (--token or TWITCH_TOKEN)")
	}

	tracker := newStreamTracker()
	listeners := &api.Listeners{
		StreamUpdated: func(status model.StreamStatus) { tracker.update(status) },
		TokenVerified: func(_ string, info *model.TokenInfo) {
			if info != nil && info.Valid {
				fmt.Printf("[%s] token ok, logged in as %s\n", time.Now().Format("15:04:05"), info.Login)
			}
		},
	}

	var a *api.API
	listeners.AccessDenied = func() {
		fmt.Printf("[%s] access denied, re-verifying token\n", time.Now().Format("15:04:05"))
		a.VerifyToken()
	}

	a, err := newFacade(cctx, listeners, &api.Options{
		StreamTTL: cctx.Duration("poll"),
	})
	if err != nil {
		return err
	}

	refresh := func() {
		a.CheckToken()
		if followed {
			a.GetFollowedStreams()
		} else {
			a.ManualRefreshStreams(names)
		}
	}

	if !followed {
		// seed the open set so later refreshes batch every channel
		a.GetStreamInfo(names[0], names)
		a.CheckToken()
	} else {
		refresh()
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(cctx.Duration("poll"))
	defer ticker.Stop()

	for {
		select {
		case <-signals:
			fmt.Println("shutting down on signal")
			return nil
		case <-cctx.Context.Done():
			return nil
		case <-ticker.C:
			refresh()
		}
	}
}
