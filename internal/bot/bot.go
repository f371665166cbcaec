// Package bot connects to IRC, keeps track of who is in each channel and
// answers the now-playing commands.
package bot

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	"github.com/ergochat/irc-go/ircevent"
	"github.com/ergochat/irc-go/ircmsg"
	logging "github.com/ipfs/go-log/v2"

	"github.com/llehouerou/aikta/internal/config"
)

var log = logging.Logger("bot")

// Bot is a single IRC connection serving commands.
type Bot struct {
	conn     *ircevent.Connection
	sender   Sender
	join     func(channel string) error
	self     func() string
	channels []string

	roster  *Roster
	handler *Handler

	ctx context.Context
	wg  sync.WaitGroup
}

// New prepares a bot for cfg. Nothing is dialed until Run.
func New(cfg config.IRCConfig, address string, deps Deps) *Bot {
	conn := &ircevent.Connection{
		Server:      address,
		Nick:        cfg.Nick,
		User:        cfg.Nick,
		RealName:    "aikta now playing bot",
		UseTLS:      cfg.TLS,
		QuitMessage: "bye",
	}
	if cfg.TLS {
		conn.TLSConfig = &tls.Config{ServerName: cfg.Server, MinVersion: tls.VersionTLS12}
	}

	b := newBot(conn, conn.Join, conn.CurrentNick, cfg.Channels, deps)
	b.conn = conn

	conn.AddConnectCallback(b.onWelcome)
	conn.AddCallback("PRIVMSG", b.onPrivmsg)
	conn.AddCallback("353", b.onNames)
	conn.AddCallback("JOIN", b.onJoin)
	conn.AddCallback("PART", b.onPart)
	conn.AddCallback("KICK", b.onKick)
	conn.AddCallback("QUIT", b.onQuit)
	conn.AddCallback("NICK", b.onNick)
	return b
}

func newBot(sender Sender, join func(string) error, self func() string, channels []string, deps Deps) *Bot {
	roster := NewRoster()
	return &Bot{
		sender:   sender,
		join:     join,
		self:     self,
		channels: channels,
		roster:   roster,
		handler:  NewHandler(deps, roster, self),
		ctx:      context.Background(),
	}
}

// Run connects and serves until ctx is canceled or the connection is
// closed for good. In-flight commands are waited for before returning.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx

	log.Infow("connecting", "server", b.conn.Server, "nick", b.conn.Nick)
	if err := b.conn.Connect(); err != nil {
		return fmt.Errorf("connect to %s: %w", b.conn.Server, err)
	}

	stop := context.AfterFunc(ctx, b.conn.Quit)
	defer stop()

	b.conn.Loop()
	b.wg.Wait()
	log.Infow("disconnected", "server", b.conn.Server)
	return ctx.Err()
}

func (b *Bot) isSelf(nick string) bool {
	return b.self != nil && fold(nick) == fold(b.self())
}

func (b *Bot) onWelcome(ircmsg.Message) {
	for _, ch := range b.channels {
		if err := b.join(ch); err != nil {
			log.Warnw("join failed", "channel", ch, "err", err)
		}
	}
}

func (b *Bot) onPrivmsg(msg ircmsg.Message) {
	if len(msg.Params) < 2 {
		return
	}
	target, text := msg.Params[0], msg.Params[1]
	if !IsCommand(text) {
		return
	}
	nick := msg.Nick()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.handler.Handle(b.ctx, b.sender, target, nick, text)
	}()
}

func (b *Bot) onNames(msg ircmsg.Message) {
	// <me> <symbol> <channel> :<names>
	if len(msg.Params) < 4 {
		return
	}
	b.roster.Add(msg.Params[2], parseNames(msg.Params[3])...)
}

func (b *Bot) onJoin(msg ircmsg.Message) {
	if len(msg.Params) < 1 {
		return
	}
	channel, nick := msg.Params[0], msg.Nick()
	if b.isSelf(nick) {
		log.Infow("joined", "channel", channel)
		b.roster.Reset(channel)
		return
	}
	b.roster.Add(channel, nick)
}

func (b *Bot) onPart(msg ircmsg.Message) {
	if len(msg.Params) < 1 {
		return
	}
	b.leave(msg.Params[0], msg.Nick())
}

func (b *Bot) onKick(msg ircmsg.Message) {
	if len(msg.Params) < 2 {
		return
	}
	b.leave(msg.Params[0], msg.Params[1])
}

func (b *Bot) leave(channel, nick string) {
	if b.isSelf(nick) {
		log.Infow("left", "channel", channel)
		b.roster.Drop(channel)
		return
	}
	b.roster.Remove(channel, nick)
}

func (b *Bot) onQuit(msg ircmsg.Message) {
	b.roster.Quit(msg.Nick())
}

func (b *Bot) onNick(msg ircmsg.Message) {
	if len(msg.Params) < 1 {
		return
	}
	b.roster.Rename(msg.Nick(), msg.Params[0])
}
