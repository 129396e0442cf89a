// Package model holds the data types exchanged between the coordination
// layer and a request dispatcher. Types here are plain data: parsing wire
// formats into them is the dispatcher's job.
package model

import (
	"time"

	"github.com/glimmerchat/amethyst/twitch/syntax"
)

// StreamStatus is a snapshot of a channel's live state. An offline channel
// has Live set to false and the remaining fields zeroed.
type StreamStatus struct {
	Channel   syntax.Username `json:"channel"`
	Live      bool            `json:"live"`
	Title     string          `json:"title,omitempty"`
	Game      string          `json:"game,omitempty"`
	GameID    string          `json:"gameId,omitempty"`
	Viewers   int             `json:"viewers,omitempty"`
	StartedAt time.Time       `json:"startedAt"`
}

// ChannelInfo is the editable channel metadata, distinct from live stream
// state: it exists (and can be updated) while the channel is offline.
type ChannelInfo struct {
	Channel   syntax.Username `json:"channel"`
	Title     string          `json:"title,omitempty"`
	Game      string          `json:"game,omitempty"`
	Views     int             `json:"views,omitempty"`
	Followers int             `json:"followers,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// FollowType selects which relation a follower-style request is about.
type FollowType int

const (
	FollowTypeFollower FollowType = iota
	FollowTypeSubscriber
)

func (t FollowType) String() string {
	if t == FollowTypeSubscriber {
		return "subscriber"
	}
	return "follower"
}

type Follower struct {
	Name       syntax.Username `json:"name"`
	FollowedAt time.Time       `json:"followedAt"`
}

// FollowerInfo is one page of a channel's follower (or subscriber) relation,
// plus the relation's total size.
type FollowerInfo struct {
	Stream    syntax.Username `json:"stream"`
	Total     int             `json:"total"`
	Followers []Follower      `json:"followers,omitempty"`
}

// TokenInfo is the platform's answer to a token verification call. Login and
// UserID identify the account the token was issued for.
type TokenInfo struct {
	Login    syntax.Username `json:"login"`
	UserID   syntax.UserID   `json:"userId"`
	ClientID string          `json:"clientId,omitempty"`
	Scopes   []string        `json:"scopes,omitempty"`
	Valid    bool            `json:"valid"`
}

// HasScope reports whether the verified token carries the named scope.
func (t *TokenInfo) HasScope(scope string) bool {
	if t == nil {
		return false
	}
	for _, s := range t.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Game is a category search result.
type Game struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BoxArtURL string `json:"boxArtUrl,omitempty"`
}

// ChatInfo describes a channel's chat room settings.
type ChatInfo struct {
	Channel          syntax.Username `json:"channel"`
	EmoteOnly        bool            `json:"emoteOnly,omitempty"`
	FollowersOnly    bool            `json:"followersOnly,omitempty"`
	SubscribersOnly  bool            `json:"subscribersOnly,omitempty"`
	UniqueChat       bool            `json:"uniqueChat,omitempty"`
	SlowMode         bool            `json:"slowMode,omitempty"`
	SlowModeWaitTime time.Duration   `json:"slowModeWaitTime,omitempty"`
}

// Emote is a single chat emoticon: Code is the text chatters type.
type Emote struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	SetID string `json:"setId,omitempty"`
}

// Badge is one version of a chat badge set, global or room-scoped.
type Badge struct {
	SetID    string `json:"setId"`
	Version  string `json:"version"`
	Title    string `json:"title,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}
