package photostore

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/BearBump/FlightBox/internal/models"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestUpload_PNG(t *testing.T) {
	fp := &fakePutter{}
	s := newWithClient(fp, "photos", "https://cdn.example.com/", 0)
	s.newKey = func() string { return "abc" }

	img := pngBytes(t, 64, 48)
	photo, err := s.Upload(context.Background(), "", bytes.NewReader(img))
	require.NoError(t, err)
	require.Equal(t, models.Photo{URL: "https://cdn.example.com/flights/abc.png", Width: 64, Height: 48}, photo)
	require.Equal(t, "https://cdn.example.com", s.BaseURL())
	require.True(t, strings.HasPrefix(photo.URL, s.BaseURL()+"/"))

	require.Equal(t, "photos", aws.ToString(fp.in.Bucket))
	require.Equal(t, "flights/abc.png", aws.ToString(fp.in.Key))
	require.Equal(t, "image/png", aws.ToString(fp.in.ContentType))
	require.Equal(t, img, fp.body)
}

func TestUpload_Rejects(t *testing.T) {
	fp := &fakePutter{}
	s := newWithClient(fp, "photos", "https://cdn", 1024)

	_, err := s.Upload(context.Background(), "../etc", bytes.NewReader(pngBytes(t, 1, 1)))
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = s.Upload(context.Background(), "", strings.NewReader("plain text, not an image"))
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = s.Upload(context.Background(), "", bytes.NewReader(nil))
	require.ErrorIs(t, err, models.ErrValidation)

	tiny := newWithClient(fp, "photos", "https://cdn", 32)
	_, err = tiny.Upload(context.Background(), "", bytes.NewReader(pngBytes(t, 8, 8)))
	require.ErrorIs(t, err, models.ErrValidation)

	// заголовок PNG есть, а дальше мусор
	broken := append([]byte{}, pngBytes(t, 4, 4)[:12]...)
	_, err = s.Upload(context.Background(), "", bytes.NewReader(broken))
	require.ErrorIs(t, err, models.ErrValidation)

	require.Nil(t, fp.in)
}

func TestUpload_PutError(t *testing.T) {
	fp := &fakePutter{err: errors.New("access denied")}
	s := newWithClient(fp, "photos", "https://cdn", 0)

	_, err := s.Upload(context.Background(), "avatars", bytes.NewReader(pngBytes(t, 2, 2)))
	require.Error(t, err)
	require.NotErrorIs(t, err, models.ErrValidation)
	require.Contains(t, err.Error(), "s3 put object")
}

func TestNew_UploadsThroughS3API(t *testing.T) {
	var (
		mu   sync.Mutex
		path string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		path = r.URL.Path
		mu.Unlock()
		_, _ = io.Copy(io.Discard, r.Body)
		require.Equal(t, http.MethodPut, r.Method)
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := New(context.Background(), Config{
		Endpoint:        srv.URL,
		Region:          "us-east-1",
		Bucket:          "flightbox",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	s.newKey = func() string { return "k1" }

	photo, err := s.Upload(context.Background(), "flights", bytes.NewReader(pngBytes(t, 3, 2)))
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/flightbox/flights/k1.png", photo.URL)
	require.Equal(t, 3, photo.Width)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "/flightbox/flights/k1.png", path)
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}
