package groupme

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "groupme-analyzer/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "tok-123", 5*time.Second)
}

func TestGroups(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/groups", r.URL.Path)
		assert.Equal(t, "tok-123", r.Header.Get("X-Access-Token"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":[
			{"id":"g1","name":"Climbing","messages":{"count":1234},
			 "members":[{"user_id":"u1","name":"Ann"},{"user_id":"u2","name":"","nickname":"Bobby"}]}
		],"meta":{"code":200}}`))
	})

	groups, err := client.Groups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, "g1", g.ID)
	assert.Equal(t, "Climbing", g.Name)
	assert.Equal(t, 1234, g.MessageCount)
	require.Len(t, g.Members, 2)
	assert.Equal(t, "Ann", g.Members[0].Name)
	assert.Equal(t, "Bobby", g.Members[1].Name)
}

func TestGroups_FollowsPages(t *testing.T) {
	var pages []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)

		count := 0
		switch page {
		case "1":
			count = 100
		case "2":
			count = 1
		}
		items := make([]string, 0, count)
		for i := 0; i < count; i++ {
			items = append(items, fmt.Sprintf(`{"id":"g%s-%d","name":"Group","messages":{"count":1}}`, page, i))
		}
		_, _ = w.Write([]byte(`{"response":[` + strings.Join(items, ",") + `]}`))
	})

	groups, err := client.Groups(context.Background())
	require.NoError(t, err)
	assert.Len(t, groups, 101)
	assert.Equal(t, []string{"1", "2"}, pages)
	assert.Equal(t, "g2-0", groups[100].ID)
}

func TestMessagePage(t *testing.T) {
	var gotQuery []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/groups/g1/messages", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		gotQuery = append(gotQuery, r.URL.Query().Get("before_id"))
		_, _ = w.Write([]byte(`{"response":{"count":2,"messages":[
			{"id":"20","sender_id":"u1","name":"Ann","text":"hi all","favorited_by":["u2"]},
			{"id":"19","sender_id":"u2","name":"Bob","text":null,"favorited_by":[]}
		]}}`))
	})

	msgs, err := client.MessagePage(context.Background(), "g1", "", 100)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "20", msgs[0].ID)
	assert.Equal(t, "hi all", msgs[0].Text)
	assert.Equal(t, []string{"u2"}, msgs[0].FavoritedBy)
	assert.Equal(t, "", msgs[1].Text, "null text reads as empty")

	_, err = client.MessagePage(context.Background(), "g1", "19", 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "19"}, gotQuery)
}

func TestMessagePage_NotModifiedIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	})

	msgs, err := client.MessagePage(context.Background(), "g1", "1", 100)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestTransportErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{"unauthorized", http.StatusUnauthorized, `{"meta":{"code":401,"errors":["unauthorized"]}}`, 401},
		{"server error", http.StatusInternalServerError, ``, 500},
		{"malformed json", http.StatusOK, `{"response":`, 200},
		{"like list is not a list", http.StatusOK, `{"response":{"messages":[{"id":"1","sender_id":"u","favorited_by":"u2"}]}}`, 200},
		{"null response", http.StatusOK, `{"response":null}`, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.MessagePage(context.Background(), "g1", "", 100)
			require.Error(t, err)

			var transportErr *apperrors.ErrTransportFailed
			require.True(t, errors.As(err, &transportErr))
			assert.Equal(t, "message page", transportErr.Operation)
			assert.Equal(t, tt.wantStatus, transportErr.StatusCode)
		})
	}
}

func TestTransportErrors_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client := NewClient(baseURL, "tok", time.Second)
	_, err := client.Groups(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
}
