package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/glimmerchat/amethyst/twitch/api"
	"github.com/glimmerchat/amethyst/twitch/identity"
	"github.com/glimmerchat/amethyst/twitch/model"
	"github.com/glimmerchat/amethyst/twitch/syntax"
)

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

var cmdResolve = &cli.Command{
	Name:      "resolve",
	ArgsUsage: `<username>...`,
	Usage:     "resolve login names to account ids",
	Action: func(cctx *cli.Context) error {
		names, err := usernameArgs(cctx)
		if err != nil {
			return err
		}
		a, err := newFacade(cctx, nil, nil)
		if err != nil {
			return err
		}

		results := make(chan *identity.Result, 1)
		a.GetUserIDs(func(res *identity.Result) { results <- res }, names...)
		res, err := await(cctx, results)
		if err != nil {
			return err
		}
		for _, name := range res.Usernames() {
			id, err := res.ID(name)
			if err != nil {
				fmt.Printf("%s\terror: %v\n", name, err)
				continue
			}
			fmt.Printf("%s\t%s\n", name, id)
		}
		return nil
	},
}

var cmdVerify = &cli.Command{
	Name:  "verify",
	Usage: "verify the OAuth token and show the account it belongs to",
	Action: func(cctx *cli.Context) error {
		if cctx.String("token") == "" {
			return fmt.Errorf("need a token (--token or TWITCH_TOKEN)")
		}
		verified := make(chan *model.TokenInfo, 1)
		a, err := newFacade(cctx, &api.Listeners{
			TokenVerified: func(_ string, info *model.TokenInfo) { verified <- info },
		}, nil)
		if err != nil {
			return err
		}

		a.VerifyToken()
		info, err := await(cctx, verified)
		if err != nil {
			return err
		}
		if info == nil {
			return fmt.Errorf("token verification failed")
		}
		if !info.Valid {
			return fmt.Errorf("token rejected by platform")
		}
		return printJSON(info)
	},
}

var cmdStream = &cli.Command{
	Name:      "stream",
	ArgsUsage: `<channel>...`,
	Usage:     "show live status for one or more channels",
	Action: func(cctx *cli.Context) error {
		names, err := usernameArgs(cctx)
		if err != nil {
			return err
		}
		updates := make(chan model.StreamStatus, len(names))
		a, err := newFacade(cctx, &api.Listeners{
			StreamUpdated: func(status model.StreamStatus) { updates <- status },
		}, nil)
		if err != nil {
			return err
		}

		// one batched request covers the whole argument list
		a.GetStreamInfo(names[0], names)

		distinct := make(map[syntax.Username]bool, len(names))
		for _, name := range names {
			distinct[name.Normalize()] = true
		}
		for seen := 0; seen < len(distinct); seen++ {
			status, err := await(cctx, updates)
			if err != nil {
				return err
			}
			if status.Live {
				fmt.Printf("%s\tlive\t%d viewers\t%s [%s]\n", status.Channel, status.Viewers, status.Title, status.Game)
			} else {
				fmt.Printf("%s\toffline\n", status.Channel)
			}
		}
		return nil
	},
}

type channelReply struct {
	code model.ResultCode
	info *model.ChannelInfo
}

var cmdChannel = &cli.Command{
	Name:      "channel",
	ArgsUsage: `<channel>`,
	Usage:     "show channel metadata",
	Action: func(cctx *cli.Context) error {
		names, err := usernameArgs(cctx)
		if err != nil {
			return err
		}
		replies := make(chan channelReply, 1)
		a, err := newFacade(cctx, &api.Listeners{
			ChannelInfoReceived: func(code model.ResultCode, info *model.ChannelInfo) {
				replies <- channelReply{code: code, info: info}
			},
		}, nil)
		if err != nil {
			return err
		}

		a.RequestChannelInfo(names[0])
		reply, err := await(cctx, replies)
		if err != nil {
			return err
		}
		if !reply.code.Ok() {
			return fmt.Errorf("platform returned %s", reply.code)
		}
		return printJSON(reply.info)
	},
}

type chatReply struct {
	code model.ResultCode
	info *model.ChatInfo
}

var cmdChat = &cli.Command{
	Name:      "chat",
	ArgsUsage: `<channel>`,
	Usage:     "show a channel's chat room settings",
	Action: func(cctx *cli.Context) error {
		names, err := usernameArgs(cctx)
		if err != nil {
			return err
		}
		replies := make(chan chatReply, 1)
		a, err := newFacade(cctx, &api.Listeners{
			ChatInfoReceived: func(info *model.ChatInfo, code model.ResultCode) {
				replies <- chatReply{code: code, info: info}
			},
		}, nil)
		if err != nil {
			return err
		}

		a.RequestChatInfo(names[0])
		reply, err := await(cctx, replies)
		if err != nil {
			return err
		}
		if !reply.code.Ok() {
			return fmt.Errorf("platform returned %s", reply.code)
		}
		return printJSON(reply.info)
	},
}

type followersReply struct {
	code model.ResultCode
	info *model.FollowerInfo
}

var cmdFollowers = &cli.Command{
	Name:      "followers",
	ArgsUsage: `<channel>`,
	Usage:     "show a channel's follower count and most recent followers",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "subscribers",
			Usage: "list subscribers instead (needs the broadcaster's own token)",
		},
	},
	Action: func(cctx *cli.Context) error {
		names, err := usernameArgs(cctx)
		if err != nil {
			return err
		}
		replies := make(chan followersReply, 1)
		a, err := newFacade(cctx, &api.Listeners{
			FollowersReceived: func(_ model.FollowType, info *model.FollowerInfo, code model.ResultCode) {
				replies <- followersReply{code: code, info: info}
			},
		}, nil)
		if err != nil {
			return err
		}

		if cctx.Bool("subscribers") {
			a.RequestSubscribers(names[0])
		} else {
			a.RequestFollowers(names[0])
		}
		reply, err := await(cctx, replies)
		if err != nil {
			return err
		}
		if !reply.code.Ok() {
			return fmt.Errorf("platform returned %s", reply.code)
		}
		fmt.Printf("total: %d\n", reply.info.Total)
		for _, f := range reply.info.Followers {
			fmt.Printf("%s\t%s\n", f.Name, f.FollowedAt.Format("2006-01-02"))
		}
		return nil
	},
}

var cmdSearch = &cli.Command{
	Name:      "search",
	ArgsUsage: `<query>...`,
	Usage:     "search game categories",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() == 0 {
			return fmt.Errorf("need a search query")
		}
		query := strings.Join(cctx.Args().Slice(), " ")

		type searchReply struct {
			games []model.Game
		}
		replies := make(chan searchReply, 1)
		a, err := newFacade(cctx, &api.Listeners{
			GameSearchResult: func(_ string, games []model.Game) {
				replies <- searchReply{games: games}
			},
		}, nil)
		if err != nil {
			return err
		}

		a.SearchGames(query)
		reply, err := await(cctx, replies)
		if err != nil {
			return err
		}
		if len(reply.games) == 0 {
			fmt.Println("no matches")
			return nil
		}
		for _, g := range reply.games {
			fmt.Printf("%s\t(id %s)\n", g.Name, g.ID)
		}
		return nil
	},
}

var cmdFollow = &cli.Command{
	Name:      "follow",
	ArgsUsage: `<channel>`,
	Usage:     "follow a channel as the token's account",
	Action: func(cctx *cli.Context) error {
		return runFollow(cctx, true)
	},
}

var cmdUnfollow = &cli.Command{
	Name:      "unfollow",
	ArgsUsage: `<channel>`,
	Usage:     "unfollow a channel as the token's account",
	Action: func(cctx *cli.Context) error {
		return runFollow(cctx, false)
	},
}

func runFollow(cctx *cli.Context, on bool) error {
	if cctx.String("token") == "" {
		return fmt.Errorf("need a token (--token or TWITCH_TOKEN)")
	}
	names, err := usernameArgs(cctx)
	if err != nil {
		return err
	}
	target := names[0]

	verified := make(chan *model.TokenInfo, 1)
	messages := make(chan string, 1)
	a, err := newFacade(cctx, &api.Listeners{
		TokenVerified: func(_ string, info *model.TokenInfo) { verified <- info },
		FollowResult:  func(message string) { messages <- message },
	}, nil)
	if err != nil {
		return err
	}

	// the follow runs as the token's own account, so learn who that is first
	a.VerifyToken()
	info, err := await(cctx, verified)
	if err != nil {
		return err
	}
	if info == nil || !info.Valid {
		return fmt.Errorf("token rejected by platform")
	}

	if on {
		a.FollowChannel(info.Login, target)
	} else {
		a.UnfollowChannel(info.Login, target)
	}
	message, err := await(cctx, messages)
	if err != nil {
		return err
	}
	fmt.Println(message)
	return nil
}
