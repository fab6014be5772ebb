package processor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker-studio/internal/model"
	"tracker-studio/internal/selection"
)

type receivedPart struct {
	name        string
	filename    string
	contentType string
	value       string
}

func recordParts(t *testing.T, r *http.Request) []receivedPart {
	t.Helper()
	mr, err := r.MultipartReader()
	require.NoError(t, err)
	var parts []receivedPart
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(p)
		require.NoError(t, err)
		parts = append(parts, receivedPart{
			name:        p.FormName(),
			filename:    p.FileName(),
			contentType: p.Header.Get("Content-Type"),
			value:       string(data),
		})
	}
	return parts
}

func sampleParams() model.RenderParameters {
	return model.RenderParameters{
		Shape:           "Basic Rectangle",
		BoxColor:        "#00ff00",
		StrokeWidth:     2,
		Connection:      "None",
		ConnectionColor: "#ff9600",
		LabelType:       "custom",
		CustomText:      "hi",
		TextColor:       "#ffffff",
		MaxBlobs:        5,
		MinBlobSize:     64,
	}
}

func TestProcess_SendsFieldsInWireOrder(t *testing.T) {
	var parts []receivedPart
	var contentLength int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentLength = r.ContentLength
		parts = recordParts(t, r)
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte{0x00, 0x01})
	}))
	defer srv.Close()

	client, err := New(Options{Endpoint: srv.URL + "/process"})
	require.NoError(t, err)

	sel := selection.FromBytes(`clip "a".mp4`, []byte("fake video bytes"))
	res, err := client.Process(context.Background(), sel, sampleParams())
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, res.Body.Close())

	assert.Equal(t, []byte{0x00, 0x01}, body)
	assert.Equal(t, "video/mp4", res.ContentType)
	assert.Greater(t, contentLength, int64(0))

	names := make([]string, 0, len(parts))
	for _, p := range parts {
		names = append(names, p.name)
	}
	assert.Equal(t, model.RequiredFields(), names)
	assert.Equal(t, `clip "a".mp4`, parts[0].filename)
	assert.Equal(t, "fake video bytes", parts[0].value)
	assert.Equal(t, "hi", parts[7].value)
	assert.Equal(t, "5", parts[9].value)
}

func TestProcess_UnknownSizeStreamsChunked(t *testing.T) {
	var contentLength int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentLength = r.ContentLength
		_ = recordParts(t, r)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client, err := New(Options{Endpoint: srv.URL})
	require.NoError(t, err)

	sel := selection.FromBytes("clip.mp4", []byte("abc"))
	sel.Size = 0
	res, err := client.Process(context.Background(), sel, sampleParams())
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, int64(-1), contentLength)
}

func TestProcess_NonSuccessStatusIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := New(Options{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = client.Process(context.Background(), selection.FromBytes("clip.mp4", []byte("x")), sampleParams())
	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "boom", se.Snippet)
	assert.False(t, IsTransport(err))
}

func TestProcess_UnreachableIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	client, err := New(Options{Endpoint: endpoint})
	require.NoError(t, err)

	_, err = client.Process(context.Background(), selection.FromBytes("clip.mp4", []byte("x")), sampleParams())
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.False(t, IsStatus(err))
}

func TestProcess_TimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client, err := New(Options{Endpoint: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.Process(context.Background(), selection.FromBytes("clip.mp4", []byte("x")), sampleParams())
	require.Error(t, err)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Timeout())
}

func TestNew_ValidatesEndpoint(t *testing.T) {
	_, err := New(Options{Endpoint: "ftp://example.com/process"})
	assert.Error(t, err)
	_, err = New(Options{Endpoint: "http://"})
	assert.Error(t, err)

	c, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, c.Endpoint())
}

func TestPing_AnyStatusIsReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer srv.Close()

	client, err := New(Options{Endpoint: srv.URL})
	require.NoError(t, err)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestProcess_ReportsUploadProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var lastSent, lastTotal atomic.Int64
	client, err := New(Options{
		Endpoint: srv.URL + "/process",
		Progress: func(sent, total int64) {
			lastSent.Store(sent)
			lastTotal.Store(total)
		},
	})
	require.NoError(t, err)

	payload := make([]byte, 64*1024)
	res, err := client.Process(context.Background(), selection.FromBytes("clip.mp4", payload), sampleParams())
	require.NoError(t, err)
	require.NoError(t, res.Body.Close())

	// the upload goroutine finishes before the server can answer
	assert.Equal(t, int64(len(payload)), lastSent.Load())
	assert.Equal(t, int64(len(payload)), lastTotal.Load())
}
