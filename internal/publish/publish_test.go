package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlobs struct {
	mu           sync.Mutex
	createErr    error
	uploadErr    error
	blobs        map[string]string
	contentTypes map[string]string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{blobs: map[string]string{}, contentTypes: map[string]string{}}
}

func (f *fakeBlobs) CreateContainer(ctx context.Context, name string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error) {
	return azblob.CreateContainerResponse{}, f.createErr
}

func (f *fakeBlobs) UploadStream(ctx context.Context, container, name string, body io.Reader, o *azblob.UploadStreamOptions) (azblob.UploadStreamResponse, error) {
	if f.uploadErr != nil {
		return azblob.UploadStreamResponse{}, f.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return azblob.UploadStreamResponse{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[container+"/"+name] = string(data)
	f.contentTypes[name] = *o.HTTPHeaders.BlobContentType
	return azblob.UploadStreamResponse{}, nil
}

func writeReportDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.json"), []byte(`{"run_id":"r1"}`), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "series"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "series", "risk_coverage_softmax.csv"), []byte("coverage,metric\n"), 0644))
	return dir
}

func TestUploader_Upload(t *testing.T) {
	fake := newFakeBlobs()
	u := NewUploader(fake, "evals", "/isic/")

	keys, err := u.Upload(context.Background(), writeReportDir(t), "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"isic/r1/report.json", "isic/r1/series/risk_coverage_softmax.csv"}, keys)
	assert.Equal(t, `{"run_id":"r1"}`, fake.blobs["evals/isic/r1/report.json"])
	assert.Equal(t, "application/json", fake.contentTypes["isic/r1/report.json"])
	assert.Equal(t, "text/csv", fake.contentTypes["isic/r1/series/risk_coverage_softmax.csv"])
}

func TestUploader_ContainerExists(t *testing.T) {
	fake := newFakeBlobs()
	fake.createErr = &azcore.ResponseError{ErrorCode: string(bloberror.ContainerAlreadyExists), StatusCode: 409}
	u := NewUploader(fake, "evals", "")

	keys, err := u.Upload(context.Background(), writeReportDir(t), "r1")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestUploader_Errors(t *testing.T) {
	t.Run("create_container", func(t *testing.T) {
		fake := newFakeBlobs()
		fake.createErr = errors.New("forbidden")
		_, err := NewUploader(fake, "evals", "").Upload(context.Background(), writeReportDir(t), "r1")
		assert.ErrorContains(t, err, "create container evals")
	})

	t.Run("upload", func(t *testing.T) {
		fake := newFakeBlobs()
		fake.uploadErr = errors.New("network down")
		_, err := NewUploader(fake, "evals", "").Upload(context.Background(), writeReportDir(t), "r1")
		assert.ErrorContains(t, err, "upload blob r1/report.json")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewUploader(newFakeBlobs(), "evals", "").Upload(ctx, writeReportDir(t), "r1")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestUploader_Key(t *testing.T) {
	u := NewUploader(newFakeBlobs(), "evals", "runs")
	key, err := u.Key("r1", filepath.Join("series", "a.csv"))
	require.NoError(t, err)
	assert.Equal(t, "runs/r1/series/a.csv", key)

	for _, bad := range []string{"", "../escape.json", "/abs.json"} {
		_, err := u.Key("r1", bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Options{Container: "evals"})
	assert.ErrorIs(t, err, ErrNoCredentials)

	client, err := NewClient(Options{ConnectionString: "DefaultEndpointsProtocol=https;AccountName=devstore;AccountKey=a2V5;EndpointSuffix=core.windows.net"})
	require.NoError(t, err)
	assert.Contains(t, client.URL(), "devstore")
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LESIONEVAL_TEST_CONN=UseDevelopmentStorage=true\n"), 0644))
	t.Setenv("LESIONEVAL_TEST_CONN", "")
	require.NoError(t, os.Unsetenv("LESIONEVAL_TEST_CONN"))

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "UseDevelopmentStorage=true", os.Getenv("LESIONEVAL_TEST_CONN"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/xml", ContentType("junit.xml"))
	assert.Equal(t, "application/octet-stream", ContentType("notes"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ContentType("REPORT.XLSX"))
}
