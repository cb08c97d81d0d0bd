package adapter

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/slack-go/slack"
)

const (
	DefaultSlackEndpoint = "https://slack.com/api/"

	maxChannels = 200
	maxMessages = 200
)

var channelPattern = regexp.MustCompile(`^[A-Z0-9]{1,30}$`)

type Slack struct {
	client
}

func NewSlack(httpClient *http.Client, baseURL string) *Slack {
	return &Slack{client: newClient(ProviderSlack, httpClient, baseURL)}
}

func (s *Slack) api(token string) *slack.Client {
	return slack.New(token,
		slack.OptionHTTPClient(s.httpClient),
		slack.OptionAPIURL(s.baseURL),
	)
}

// Channels lists non-archived public and private channels.
func (s *Slack) Channels(ctx context.Context, token string, limit int) ([]Channel, error) {
	if err := s.wait(ctx, tokenKey(token)); err != nil {
		return nil, err
	}
	channels, _, err := s.api(token).GetConversationsContext(ctx, &slack.GetConversationsParameters{
		ExcludeArchived: true,
		Limit:           clamp(limit, 100, maxChannels),
		Types:           []string{"public_channel", "private_channel"},
	})
	if err != nil {
		s.rateLimited(token, err)
		return nil, classify(s.provider, "list channels", err)
	}

	out := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		out = append(out, Channel{
			ID:        ch.ID,
			Name:      ch.Name,
			Topic:     ch.Topic.Value,
			Purpose:   ch.Purpose.Value,
			Members:   ch.NumMembers,
			IsPrivate: ch.IsPrivate,
		})
	}
	return out, nil
}

// Messages returns the most recent messages in a channel.
func (s *Slack) Messages(ctx context.Context, token, channelID string, limit int) ([]Message, error) {
	if !channelPattern.MatchString(channelID) {
		return nil, invalid("invalid channel id %q", channelID)
	}
	if err := s.wait(ctx, tokenKey(token)); err != nil {
		return nil, err
	}
	history, err := s.api(token).GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     clamp(limit, 50, maxMessages),
	})
	if err != nil {
		s.rateLimited(token, err)
		return nil, classify(s.provider, "conversation history", err)
	}

	out := make([]Message, 0, len(history.Messages))
	for _, m := range history.Messages {
		out = append(out, Message{
			User:       m.User,
			Text:       m.Text,
			Timestamp:  m.Timestamp,
			ReplyCount: m.ReplyCount,
		})
	}
	return out, nil
}

func (s *Slack) rateLimited(token string, err error) {
	var limited *slack.RateLimitedError
	if errors.As(err, &limited) {
		s.backoff(tokenKey(token), limited.RetryAfter)
	}
}
