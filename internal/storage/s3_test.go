package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/research-gateway/internal/config"
)

func TestNewDisabled(t *testing.T) {
	_, err := New(context.Background(), config.Storage{UseS3: false})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestNewOptions(t *testing.T) {
	c, err := New(context.Background(), config.Storage{
		UseS3:           true,
		EndpointURL:     config.Some("http://minio:9000"),
		AccessKeyID:     config.Some("AKIA"),
		SecretAccessKey: config.Some("secret"),
		BucketName:      "research-data",
		Region:          "us-east-1",
	})
	require.NoError(t, err)

	o := c.s3.Options()
	assert.True(t, o.UsePathStyle)
	require.NotNil(t, o.BaseEndpoint)
	assert.Equal(t, "http://minio:9000", *o.BaseEndpoint)
	assert.Equal(t, "us-east-1", o.Region)
	assert.Equal(t, "research-data", c.Bucket())

	creds, err := o.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIA", creds.AccessKeyID)
}

func TestPing(t *testing.T) {
	var heads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && r.URL.Path == "/research-data" {
			heads.Add(1)
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := config.Storage{
		UseS3:           true,
		EndpointURL:     config.Some(srv.URL),
		AccessKeyID:     config.Some("AKIA"),
		SecretAccessKey: config.Some("secret"),
		Region:          "us-east-1",
	}

	cfg.BucketName = "research-data"
	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, int32(1), heads.Load())

	cfg.BucketName = "missing"
	c, err = New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Error(t, c.Ping(context.Background()))
}
