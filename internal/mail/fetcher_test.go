package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func encode(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

// fakeGmail serves the list and get endpoints for a fixed set of messages.
type fakeGmail struct {
	messages  map[string]*gmail.Message
	order     []string
	lastQuery atomic.Value
	authz     atomic.Value
	failID    string
}

func (f *fakeGmail) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.authz.Store(r.Header.Get("Authorization"))

	const prefix = "/gmail/v1/users/me/messages"
	switch {
	case r.URL.Path == prefix:
		f.lastQuery.Store(r.URL.Query().Get("q"))
		refs := make([]*gmail.Message, 0, len(f.order))
		for _, id := range f.order {
			refs = append(refs, &gmail.Message{Id: id})
		}
		_ = json.NewEncoder(w).Encode(&gmail.ListMessagesResponse{Messages: refs})
	case strings.HasPrefix(r.URL.Path, prefix+"/"):
		id := strings.TrimPrefix(r.URL.Path, prefix+"/")
		msg, ok := f.messages[id]
		if !ok || id == f.failID {
			http.Error(w, `{"error":{"code":500,"message":"backend error"}}`, http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(msg)
	default:
		http.NotFound(w, r)
	}
}

func newFake() *fakeGmail {
	return &fakeGmail{
		order: []string{"m1", "m2", "m3"},
		messages: map[string]*gmail.Message{
			"m1": {
				Id:           "m1",
				Snippet:      "POSB alert",
				InternalDate: 1700000000000,
				Payload: &gmail.MessagePart{
					Headers: []*gmail.MessagePartHeader{
						{Name: "From", Value: "ibanking.alert@dbs.com"},
						{Name: "To", Value: "alias@example.com"},
						{Name: "Delivered-To", Value: "me@example.com"},
						{Name: "Subject", Value: "iBanking Alerts"},
					},
					Body: &gmail.MessagePartBody{Data: encode("SGD 50.00 transferred to John Tan")},
				},
			},
			"m2": {
				Id: "m2",
				Payload: &gmail.MessagePart{
					Headers: []*gmail.MessagePartHeader{
						{Name: "FROM", Value: "alert@uobgroup.com"},
						{Name: "to", Value: "me@example.com"},
					},
					Parts: []*gmail.MessagePart{
						{MimeType: "multipart/alternative", Parts: []*gmail.MessagePart{
							{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("SGD 9.90 spent at Kopitiam")}},
							{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: encode("<p>html</p>")}},
						}},
					},
				},
			},
			"m3": {Id: "m3"},
		},
	}
}

func newFetcher(t *testing.T, fake *fakeGmail) Fetcher {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	factory := &GmailFactory{
		Options:       Options{Concurrency: 2},
		ClientOptions: []option.ClientOption{option.WithEndpoint(srv.URL + "/")},
	}
	f, err := factory.ForToken(context.Background(), "tok-123")
	require.NoError(t, err)
	return f
}

func TestGmailFetcher_FetchTransactionEmails(t *testing.T) {
	fake := newFake()
	fetcher := newFetcher(t, fake)

	emails, err := fetcher.FetchTransactionEmails(context.Background(), "me@example.com")
	require.NoError(t, err)
	require.Len(t, emails, 3)

	assert.Equal(t, "Bearer tok-123", fake.authz.Load())
	query, _ := fake.lastQuery.Load().(string)
	assert.Contains(t, query, "from:ibanking.alert@dbs.com OR from:alert@uobgroup.com")
	assert.Contains(t, query, "to:me@example.com")

	assert.Equal(t, []string{"m1", "m2", "m3"}, []string{emails[0].ID, emails[1].ID, emails[2].ID})

	first := emails[0]
	assert.Equal(t, "ibanking.alert@dbs.com", first.From)
	assert.Equal(t, "me@example.com", first.To, "delivered-to wins over to")
	assert.Equal(t, "iBanking Alerts", first.Subject)
	assert.Equal(t, "POSB alert", first.Snippet)
	assert.Equal(t, "SGD 50.00 transferred to John Tan", first.Body)
	assert.Equal(t, "1700000000000", first.InternalDate)

	second := emails[1]
	assert.Equal(t, "alert@uobgroup.com", second.From)
	assert.Equal(t, "me@example.com", second.To)
	assert.Equal(t, "SGD 9.90 spent at Kopitiam", second.Body)
	assert.Empty(t, second.InternalDate)

	assert.Empty(t, emails[2].Body)
}

func TestGmailFetcher_DetailFailureFailsFetch(t *testing.T) {
	fake := newFake()
	fake.failID = "m2"
	fetcher := newFetcher(t, fake)

	_, err := fetcher.FetchTransactionEmails(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "m2")
}

func TestGmailFetcher_CancelledContext(t *testing.T) {
	fetcher := newFetcher(t, newFake())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.FetchTransactionEmails(ctx, "")
	assert.Error(t, err)
}

func TestGmailFactory_RejectsEmptyToken(t *testing.T) {
	_, err := (&GmailFactory{}).ForToken(context.Background(), "")
	assert.Error(t, err)
}

func TestBuildQuery(t *testing.T) {
	q := BuildQuery(Options{}, "")
	assert.Equal(t,
		"(from:ibanking.alert@dbs.com OR from:alert@uobgroup.com OR from:no-reply@uobgroup.com) category:promotions OR category:primary newer_than:60d",
		q)

	q = BuildQuery(Options{Senders: []string{"a@x"}, Lookback: "7d"}, " me@x ")
	assert.Equal(t, "(from:a@x) category:promotions OR category:primary newer_than:7d to:me@x", q)
}

func TestDecodeBase64URL(t *testing.T) {
	raw := "Amount: SGD 1,234.56 ??>>"
	for _, enc := range []*base64.Encoding{base64.URLEncoding, base64.RawURLEncoding, base64.StdEncoding} {
		got, err := DecodeBase64URL(enc.EncodeToString([]byte(raw)))
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	}

	_, err := DecodeBase64URL("!!!")
	assert.Error(t, err)
}

func TestNormalize_NilPayload(t *testing.T) {
	email := Normalize(&gmail.Message{Id: "x", Snippet: "s"})
	assert.Equal(t, "x", email.ID)
	assert.Equal(t, "s", email.Snippet)
	assert.Empty(t, email.From)
	assert.Empty(t, email.Body)
}
