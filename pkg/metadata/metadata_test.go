package metadata

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/pump-bundler/pkg/types"
)

func token() Token {
	return Token{
		Name:        "Test Token",
		Symbol:      "TEST",
		Description: "a token",
		Twitter:     "https://x.com/test",
		ImageName:   "logo.png",
		Image:       strings.NewReader("png-bytes"),
	}
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "Test Token", r.FormValue("name"))
		assert.Equal(t, "TEST", r.FormValue("symbol"))
		assert.Equal(t, "https://x.com/test", r.FormValue("twitter"))
		assert.Equal(t, "", r.FormValue("telegram"))
		assert.Equal(t, "true", r.FormValue("showName"))

		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		assert.Equal(t, "logo.png", hdr.Filename)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "png-bytes", string(data))

		_, _ = io.WriteString(w, `{"metadata":{"name":"Test Token"},"metadataUri":"https://ipfs.io/ipfs/Qm123"}`)
	}))
	defer srv.Close()

	uri, err := NewClient(WithEndpoint(srv.URL)).Upload(context.Background(), token())
	require.NoError(t, err)
	assert.Equal(t, "https://ipfs.io/ipfs/Qm123", uri)
}

func TestUpload_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"metadataUri":"ipfs://ok"}`)
	}))
	defer srv.Close()

	uri, err := NewClient(WithEndpoint(srv.URL), WithAttempts(3)).Upload(context.Background(), token())
	require.NoError(t, err)
	assert.Equal(t, "ipfs://ok", uri)
	assert.Equal(t, int32(2), calls.Load())
}

func TestUpload_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "bad image")
	}))
	defer srv.Close()

	_, err := NewClient(WithEndpoint(srv.URL), WithAttempts(3)).Upload(context.Background(), token())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad image")
	assert.Equal(t, int32(1), calls.Load())
}

func TestUpload_Validation(t *testing.T) {
	c := NewClient(WithEndpoint("http://unused"))

	tok := token()
	tok.Symbol = ""
	_, err := c.Upload(context.Background(), tok)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	tok = token()
	tok.Image = nil
	_, err = c.Upload(context.Background(), tok)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}
