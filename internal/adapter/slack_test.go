package adapter

import (
	"context"
	"net/http"
	"testing"

	"bizdash/pkg/oauth2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlack_Channels(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/conversations.list", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "true", r.Form.Get("exclude_archived"))
		assert.Equal(t, "public_channel,private_channel", r.Form.Get("types"))
		writeJSON(w, http.StatusOK, `{
			"ok": true,
			"channels": [
				{"id":"C1","name":"general","is_private":false,"num_members":12,"topic":{"value":"chat"},"purpose":{"value":"everyone"}},
				{"id":"G2","name":"leads","is_private":true,"num_members":3}
			],
			"response_metadata": {"next_cursor": ""}
		}`)
	})
	srv := newProviderServer(t, mux)
	s := NewSlack(srv.Client(), srv.URL+"/")

	channels, err := s.Channels(context.Background(), "xoxp-1", 0)
	require.NoError(t, err)
	assert.Equal(t, []Channel{
		{ID: "C1", Name: "general", Topic: "chat", Purpose: "everyone", Members: 12},
		{ID: "G2", Name: "leads", Members: 3, IsPrivate: true},
	}, channels)
}

func TestSlack_Messages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/conversations.history", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "C1", r.Form.Get("channel"))
		assert.Equal(t, "25", r.Form.Get("limit"))
		writeJSON(w, http.StatusOK, `{
			"ok": true,
			"messages": [{"type":"message","user":"U1","text":"ship it","ts":"1714557600.000100","reply_count":2}],
			"has_more": false
		}`)
	})
	srv := newProviderServer(t, mux)
	s := NewSlack(srv.Client(), srv.URL+"/")

	msgs, err := s.Messages(context.Background(), "xoxp-1", "C1", 25)
	require.NoError(t, err)
	assert.Equal(t, []Message{{User: "U1", Text: "ship it", Timestamp: "1714557600.000100", ReplyCount: 2}}, msgs)
}

func TestSlack_InvalidAuthIsAuthExpired(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"ok":false,"error":"token_revoked"}`)
	})
	srv := newProviderServer(t, mux)
	s := NewSlack(srv.Client(), srv.URL+"/")

	_, err := s.Channels(context.Background(), "xoxp-old", 10)
	assert.ErrorIs(t, err, oauth2.ErrAuthExpired)
}

func TestSlack_OtherErrorIsProviderAPI(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"ok":false,"error":"channel_not_found"}`)
	})
	srv := newProviderServer(t, mux)
	s := NewSlack(srv.Client(), srv.URL+"/")

	_, err := s.Messages(context.Background(), "xoxp-1", "C404", 10)
	assert.ErrorIs(t, err, oauth2.ErrProviderAPI)
}

func TestSlack_RejectsChannelID(t *testing.T) {
	s := NewSlack(http.DefaultClient, "http://127.0.0.1:0/")

	_, err := s.Messages(context.Background(), "tok", "C1&limit=1000", 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
