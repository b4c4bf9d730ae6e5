package bot

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"classpublisher/internal/domain"
	"classpublisher/internal/infra"
	"classpublisher/internal/providers/vimeo"
	"classpublisher/internal/providers/wordpress"
	"classpublisher/internal/publish"
)

// VideoSource is the slice of the video gateway the command layer needs.
type VideoSource interface {
	GetLatestVideo(ctx context.Context) (*vimeo.Video, error)
}

// PostStore is the slice of the content gateway the delete command needs.
type PostStore interface {
	ListRecentPosts(ctx context.Context, n int) ([]wordpress.Post, error)
	DeletePost(ctx context.Context, postID int) error
}

// Publisher runs one publish attempt.
type Publisher interface {
	Run(ctx context.Context, opts publish.Options) (*domain.PublishResult, error)
}

// Options wires the bot host.
type Options struct {
	Transport        *Transport
	Broker           *Broker
	Videos           VideoSource
	Posts            PostStore
	Publisher        Publisher
	AuthorizedChatID string
	PollWindow       time.Duration
	Logger           *infra.Logger
	Now              func() time.Time
}

// Bot owns the update loop: it long-polls the chat channel, routes
// callback replies to the broker, and dispatches commands from the one
// authorized chat. Command handlers run in their own goroutines so a
// handler suspended on a broker question never stalls reply delivery.
type Bot struct {
	transport  *Transport
	broker     *Broker
	videos     VideoSource
	posts      PostStore
	publisher  Publisher
	chatID     string
	pollWindow time.Duration
	logger     *infra.Logger
	now        func() time.Time
}

// New constructs the bot host.
func New(opts Options) *Bot {
	pollWindow := opts.PollWindow
	if pollWindow <= 0 {
		pollWindow = 30 * time.Second
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Bot{
		transport:  opts.Transport,
		broker:     opts.Broker,
		videos:     opts.Videos,
		posts:      opts.Posts,
		publisher:  opts.Publisher,
		chatID:     opts.AuthorizedChatID,
		pollWindow: pollWindow,
		logger:     logger,
		now:        now,
	}
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info().Msg("bot: update loop started")
	var offset int64
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		updates, err := b.transport.GetUpdates(ctx, offset, b.pollWindow)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Warn().Err(err).Msg("bot: getUpdates failed, backing off")
			select {
			case <-time.After(3 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		for i := range updates {
			update := updates[i]
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update Update) {
	if update.CallbackQuery != nil {
		go b.broker.HandleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil || !strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	senderChat := FormatChatID(update.Message.Chat.ID)
	if senderChat != b.chatID {
		b.logger.Warn().Str("chat_id", senderChat).Msg("bot: command from unauthorized chat")
		_ = b.transport.SendMessageTo(ctx, senderChat, "Lo siento, no tienes permiso para usar este comando.")
		return
	}

	command := parseCommand(update.Message.Text)
	handler, ok := b.handlerFor(command)
	if !ok {
		b.logger.Debug().Str("command", command).Msg("bot: unknown command")
		return
	}

	go func() {
		if err := handler(ctx); err != nil {
			b.logger.Error().Err(err).Str("command", command).Msg("bot: command failed")
		}
	}()
}

func (b *Bot) handlerFor(command string) (func(context.Context) error, bool) {
	switch command {
	case "start":
		return b.handleStart, true
	case "publish":
		return b.handlePublish, true
	case "delete":
		return b.handleDelete, true
	}
	return nil, false
}

// parseCommand extracts the bare command name from "/publish@SomeBot args".
func parseCommand(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	command := strings.TrimPrefix(fields[0], "/")
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}
	return command
}
