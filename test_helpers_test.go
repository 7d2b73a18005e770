package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"auto-photo-saver/document"
	"auto-photo-saver/images"
	"auto-photo-saver/metrics"
	"auto-photo-saver/ocr"
	"auto-photo-saver/storage"
	"auto-photo-saver/submission"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var testConfig = ServerConfig{
	Host: "localhost",
	Port: 8081,
}

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func padMRZ(s string) string {
	return s + strings.Repeat("<", 44-len(s))
}

var khanMRZ = []string{
	padMRZ("P<PAKKHAN<<MUHAMMAD<ALI"),
	"AB12345670PAK9001014M3012315" + "3520112345671<" + "28",
}

// fakeRecognizer returns the same scan for every passport.
type fakeRecognizer struct {
	mrz      []string
	bioData  []string
	checkErr error
}

func (r fakeRecognizer) Recognize(_ context.Context, _ image.Image, opts ocr.Options) ([]string, error) {
	if opts.Whitelist != "" {
		return r.mrz, nil
	}
	return r.bioData, nil
}

func (r fakeRecognizer) Check(context.Context) error {
	return r.checkErr
}

type testEnv struct {
	url      string
	store    *storage.InMemoryStore
	tokens   *DownloadTokenSigner
	registry *prometheus.Registry
}

func newTestProcessor(rec ocr.Recognizer, store storage.ArtifactStore, reg prometheus.Registerer) *submission.Processor {
	return submission.NewProcessor(
		rec,
		document.NewExtractor(rec, document.Config{}, nil),
		images.NewPhotoNormalizer(images.PhotoSettings{}, nil),
		store,
		metrics.New(reg),
		nil,
	)
}

func startTestServer(t *testing.T, rec ocr.Recognizer) testEnv {
	t.Helper()

	env := testEnv{
		store:    storage.NewInMemoryStore(),
		registry: prometheus.NewRegistry(),
	}
	var err error
	env.tokens, err = NewDownloadTokenSigner(testSecret, 0)
	require.NoError(t, err)

	srv, err := NewServer(&ServerState{
		processor:      newTestProcessor(rec, env.store, env.registry),
		store:          env.store,
		downloadTokens: env.tokens,
		gatherer:       env.registry,
	}, testConfig)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	env.url = ts.URL
	return env
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 3), G: uint8(y * 2), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type upload struct {
	field string
	data  []byte
}

func postMultipart(t *testing.T, url string, fields map[string]string, files ...upload) (*http.Response, []byte) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.field+".png")
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, respBody
}

func getBody(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func decodeJSON[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), "body: %s", body)
	return v
}

func mustStatus(t *testing.T, resp *http.Response, want int, body []byte) {
	t.Helper()
	require.Equalf(t, want, resp.StatusCode, "body: %s", body)
}
