// Package mail fetches bank notification emails from the user's mailbox.
package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"spendsync/internal/parser"
)

// DefaultSenders are the issuer addresses searched when none are configured.
var DefaultSenders = []string{
	"ibanking.alert@dbs.com",
	"alert@uobgroup.com",
	"no-reply@uobgroup.com",
}

// Fetcher returns candidate transaction emails, decoded, in mailbox order.
type Fetcher interface {
	FetchTransactionEmails(ctx context.Context, transactionEmail string) ([]parser.RawEmail, error)
}

// Factory builds a Fetcher authorised with a user's access token.
type Factory interface {
	ForToken(ctx context.Context, accessToken string) (Fetcher, error)
}

// Options tunes the Gmail search.
type Options struct {
	Senders     []string
	Lookback    string // Gmail newer_than value, e.g. "60d"
	MaxResults  int64
	Concurrency int
}

func (o Options) withDefaults() Options {
	if len(o.Senders) == 0 {
		o.Senders = DefaultSenders
	}
	if o.Lookback == "" {
		o.Lookback = "60d"
	}
	if o.MaxResults <= 0 {
		o.MaxResults = 50
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 8
	}
	return o
}

// BuildQuery returns the Gmail search query for the configured senders,
// optionally restricted to mail delivered to transactionEmail.
func BuildQuery(opts Options, transactionEmail string) string {
	opts = opts.withDefaults()

	from := make([]string, len(opts.Senders))
	for i, s := range opts.Senders {
		from[i] = "from:" + s
	}
	parts := []string{
		"(" + strings.Join(from, " OR ") + ")",
		"category:promotions OR category:primary",
		"newer_than:" + opts.Lookback,
	}
	if transactionEmail = strings.TrimSpace(transactionEmail); transactionEmail != "" {
		parts = append(parts, "to:"+transactionEmail)
	}
	return strings.Join(parts, " ")
}

// GmailFactory creates Gmail fetchers. ClientOptions are appended after the
// per-user token client, so tests can point the service at a fake endpoint.
type GmailFactory struct {
	Options       Options
	ClientOptions []option.ClientOption
}

func (f *GmailFactory) ForToken(ctx context.Context, accessToken string) (Fetcher, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("empty access token")
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	opts := append([]option.ClientOption{option.WithHTTPClient(client)}, f.ClientOptions...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}
	return &GmailFetcher{svc: svc, opts: f.Options.withDefaults()}, nil
}

// GmailFetcher lists matching messages, then fetches their bodies in parallel.
type GmailFetcher struct {
	svc  *gmail.Service
	opts Options
}

func (g *GmailFetcher) FetchTransactionEmails(ctx context.Context, transactionEmail string) ([]parser.RawEmail, error) {
	list, err := g.svc.Users.Messages.List("me").
		Q(BuildQuery(g.opts, transactionEmail)).
		MaxResults(g.opts.MaxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	emails := make([]parser.RawEmail, len(list.Messages))
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(g.opts.Concurrency)

	for i, ref := range list.Messages {
		grp.Go(func() error {
			msg, err := g.svc.Users.Messages.Get("me", ref.Id).Format("full").Context(grpCtx).Do()
			if err != nil {
				return fmt.Errorf("fetching message %s: %w", ref.Id, err)
			}
			emails[i] = Normalize(msg)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return emails, nil
}

// Normalize converts a full-format Gmail message into a RawEmail.
func Normalize(msg *gmail.Message) parser.RawEmail {
	var headers map[string]string
	if msg.Payload != nil {
		headers = make(map[string]string, len(msg.Payload.Headers))
		for _, h := range msg.Payload.Headers {
			headers[strings.ToLower(h.Name)] = h.Value
		}
	}

	to := headers["delivered-to"]
	if to == "" {
		to = headers["to"]
	}

	var internalDate string
	if msg.InternalDate > 0 {
		internalDate = strconv.FormatInt(msg.InternalDate, 10)
	}

	return parser.RawEmail{
		ID:           msg.Id,
		From:         headers["from"],
		To:           to,
		Subject:      headers["subject"],
		Snippet:      msg.Snippet,
		Body:         FlattenPayload(msg.Payload),
		InternalDate: internalDate,
	}
}

// FlattenPayload returns the first decodable body found depth-first.
func FlattenPayload(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if part.Body != nil && part.Body.Data != "" {
		if text, err := DecodeBase64URL(part.Body.Data); err == nil && text != "" {
			return text
		}
	}
	for _, child := range part.Parts {
		if text := FlattenPayload(child); text != "" {
			return text
		}
	}
	return ""
}

// DecodeBase64URL decodes Gmail body data. It accepts padded or unpadded
// input in either the URL-safe or standard alphabet.
func DecodeBase64URL(data string) (string, error) {
	normalized := strings.NewReplacer("+", "-", "/", "_").Replace(strings.TrimRight(data, "="))
	b, err := base64.RawURLEncoding.DecodeString(normalized)
	if err != nil {
		return "", fmt.Errorf("decoding body: %w", err)
	}
	return string(b), nil
}
