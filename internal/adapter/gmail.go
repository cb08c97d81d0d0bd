package adapter

import (
	"cmp"
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	DefaultGmailEndpoint = "https://gmail.googleapis.com/"

	gmailUser         = "me"
	defaultEmailQuery = "in:inbox"
	maxEmails         = 50
	analysisQuery     = "newer_than:7d"
	topSenderCount    = 10
	priorityCount     = 10
)

var metadataHeaders = []string{"Subject", "From", "To", "Date"}

type Gmail struct {
	client
}

func NewGmail(httpClient *http.Client, baseURL string) *Gmail {
	return &Gmail{client: newClient(ProviderGmail, httpClient, baseURL)}
}

func (g *Gmail) service(ctx context.Context, token string) (*gmail.Service, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(g.bearer(ctx, token)), option.WithEndpoint(g.baseURL))
	if err != nil {
		return nil, classify(g.provider, "create service", err)
	}
	return svc, nil
}

// FetchEmails lists messages matching query (default "in:inbox") and loads
// their metadata. Messages deleted between list and get are skipped.
func (g *Gmail) FetchEmails(ctx context.Context, token, query string, max int) (*EmailList, error) {
	svc, err := g.service(ctx, token)
	if err != nil {
		return nil, err
	}
	if query == "" {
		query = defaultEmailQuery
	}

	key := tokenKey(token)
	if err := g.wait(ctx, key); err != nil {
		return nil, err
	}
	list, err := svc.Users.Messages.List(gmailUser).
		Q(query).
		MaxResults(int64(clamp(max, 20, maxEmails))).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(g.provider, "list messages", err)
	}

	emails := make([]*Email, len(list.Messages))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for i, m := range list.Messages {
		eg.Go(func() error {
			if err := g.wait(egCtx, key); err != nil {
				return err
			}
			msg, err := svc.Users.Messages.Get(gmailUser, m.Id).
				Format("metadata").
				MetadataHeaders(metadataHeaders...).
				Context(egCtx).
				Do()
			if err != nil {
				if isNotFound(err) {
					return nil
				}
				return classify(g.provider, "get message", err)
			}
			emails[i] = toEmail(msg)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := &EmailList{
		Emails:       lo.FilterMap(emails, func(e *Email, _ int) (Email, bool) { return lo.FromPtr(e), e != nil }),
		TotalResults: list.ResultSizeEstimate,
	}
	return out, nil
}

// Stats reads message counters from the INBOX and SENT labels.
func (g *Gmail) Stats(ctx context.Context, token string) (*EmailStats, error) {
	svc, err := g.service(ctx, token)
	if err != nil {
		return nil, err
	}

	var stats EmailStats
	key := tokenKey(token)
	if err := g.wait(ctx, key); err != nil {
		return nil, err
	}
	inbox, err := svc.Users.Labels.Get(gmailUser, "INBOX").Context(ctx).Do()
	if err != nil {
		return nil, classify(g.provider, "get inbox label", err)
	}
	stats.TotalEmails = inbox.MessagesTotal
	stats.UnreadEmails = inbox.MessagesUnread

	if err := g.wait(ctx, key); err != nil {
		return nil, err
	}
	sent, err := svc.Users.Labels.Get(gmailUser, "SENT").Context(ctx).Do()
	if err != nil {
		return nil, classify(g.provider, "get sent label", err)
	}
	stats.SentEmails = sent.MessagesTotal
	return &stats, nil
}

// Analyze summarises the last seven days of mail.
func (g *Gmail) Analyze(ctx context.Context, token string) (*EmailAnalysis, error) {
	list, err := g.FetchEmails(ctx, token, analysisQuery, maxEmails)
	if err != nil {
		return nil, err
	}
	return AnalyzeEmails(list.Emails), nil
}

// AnalyzeEmails is the pure part of Analyze.
func AnalyzeEmails(emails []Email) *EmailAnalysis {
	return &EmailAnalysis{
		TotalEmails:    len(emails),
		UnreadCount:    lo.CountBy(emails, func(e Email) bool { return !e.IsRead }),
		ImportantCount: lo.CountBy(emails, func(e Email) bool { return e.IsImportant }),
		TopSenders:     topSenders(emails),
		EmailTrends:    dailyTrend(emails),
		PriorityEmails: priorityEmails(emails),
	}
}

func topSenders(emails []Email) []SenderCount {
	counts := lo.CountValuesBy(
		lo.Filter(emails, func(e Email, _ int) bool { return e.From != "" }),
		func(e Email) string { return e.From },
	)
	senders := lo.MapToSlice(counts, func(sender string, n int) SenderCount {
		return SenderCount{Sender: sender, Count: n}
	})
	slices.SortFunc(senders, func(a, b SenderCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Sender, b.Sender)
	})
	return lo.Slice(senders, 0, topSenderCount)
}

func dailyTrend(emails []Email) []DayCount {
	counts := lo.CountValuesBy(emails, func(e Email) string {
		return time.UnixMilli(e.Timestamp).UTC().Format(time.DateOnly)
	})
	days := lo.MapToSlice(counts, func(day string, n int) DayCount {
		return DayCount{Date: day, Count: n}
	})
	slices.SortFunc(days, func(a, b DayCount) int { return strings.Compare(a.Date, b.Date) })
	return days
}

func priorityEmails(emails []Email) []Email {
	priority := lo.Filter(emails, func(e Email, _ int) bool {
		return !e.IsRead && (e.IsImportant || strings.Contains(strings.ToLower(e.Subject), "urgent"))
	})
	return lo.Slice(priority, 0, priorityCount)
}

func toEmail(msg *gmail.Message) *Email {
	headers := map[string]string{}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			if _, seen := headers[h.Name]; !seen {
				headers[h.Name] = h.Value
			}
		}
	}
	labels := msg.LabelIds
	if labels == nil {
		labels = []string{}
	}
	return &Email{
		ID:          msg.Id,
		ThreadID:    msg.ThreadId,
		Subject:     headers["Subject"],
		From:        headers["From"],
		To:          headers["To"],
		Date:        headers["Date"],
		Snippet:     msg.Snippet,
		IsRead:      !slices.Contains(labels, "UNREAD"),
		IsImportant: slices.Contains(labels, "IMPORTANT"),
		Labels:      labels,
		Timestamp:   msg.InternalDate,
	}
}

func isNotFound(err error) bool {
	var gErr *googleapi.Error
	return errors.As(err, &gErr) && gErr.Code == http.StatusNotFound
}
