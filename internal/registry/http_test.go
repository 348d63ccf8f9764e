package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "stow/pkg/domain"
	"stow/pkg/platform/sentinel"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPUserRegistry_IsUser(t *testing.T) {
	user := id.NewIdentity()
	stranger := id.NewIdentity()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/"+user.String() {
			w.Write([]byte(`{"registered": true}`))
			return
		}
		w.Write([]byte(`{"registered": false}`))
	}))
	defer srv.Close()

	reg := NewHTTPUserRegistry(srv.URL, discardLogger())

	ok, err := reg.IsUser(context.Background(), user)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = reg.IsUser(context.Background(), stranger)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHTTPUserRegistry_OpensCircuitAndShedsCalls(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	reg := NewHTTPUserRegistry(srv.URL, discardLogger())

	caller := id.NewIdentity()
	for range 5 {
		_, err := reg.IsUser(context.Background(), caller)
		require.Error(t, err)
	}
	require.EqualValues(t, 5, hits.Load())

	// The sixth call is shed without reaching the registry.
	_, err := reg.IsUser(context.Background(), caller)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrUnavailable))
	assert.EqualValues(t, 5, hits.Load())
}

func TestHTTPRecordRegistry_RecordOwnerOf(t *testing.T) {
	owner := id.NewIdentity()
	record := id.HashRecord([]byte("patient chart"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/records/" + record.String() + "/owner":
			w.Write([]byte(`{"owner": "` + owner.String() + `"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	reg := NewHTTPRecordRegistry(srv.URL, discardLogger())

	got, err := reg.RecordOwnerOf(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, owner, got)

	_, err = reg.RecordOwnerOf(context.Background(), id.HashRecord([]byte("unknown")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestHTTPRecordRegistry_RejectsMalformedOwner(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"owner": "not-a-uuid"}`))
	}))
	defer srv.Close()

	reg := NewHTTPRecordRegistry(srv.URL, discardLogger())

	_, err := reg.RecordOwnerOf(context.Background(), id.HashRecord([]byte("chart")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid owner")
}
