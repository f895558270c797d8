// Package publish uploads report directories to Azure Blob Storage.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/joho/godotenv"
)

var (
	// ErrNoCredentials is returned when neither a connection string nor an
	// account URL is configured.
	ErrNoCredentials = errors.New("publish: set a connection string or an account URL")
	// ErrInvalidKey is returned for blob keys that are empty or escape the prefix.
	ErrInvalidKey = errors.New("publish: invalid blob key")
)

// Options selects the storage account and container.
type Options struct {
	Container        string
	AccountURL       string
	ConnectionString string
	Prefix           string
}

// BlobAPI is the subset of *azblob.Client the uploader needs.
type BlobAPI interface {
	CreateContainer(ctx context.Context, containerName string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error)
	UploadStream(ctx context.Context, containerName, blobName string, body io.Reader, o *azblob.UploadStreamOptions) (azblob.UploadStreamResponse, error)
}

// LoadEnv loads .env files into the process environment. Missing files are
// ignored; variables already set win.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// NewClient creates a blob client. A connection string takes precedence;
// otherwise the account URL is used with DefaultAzureCredential.
func NewClient(opts Options) (*azblob.Client, error) {
	if opts.ConnectionString != "" {
		client, err := azblob.NewClientFromConnectionString(opts.ConnectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		return client, nil
	}
	if opts.AccountURL == "" {
		return nil, ErrNoCredentials
	}

	cred, err := defaultCredential()
	if err != nil {
		return nil, err
	}
	client, err := azblob.NewClient(opts.AccountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return client, nil
}

func defaultCredential() (azcore.TokenCredential, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("create azure credential: %w", err)
	}
	return cred, nil
}

// Uploader copies local report files into a container.
type Uploader struct {
	client    BlobAPI
	container string
	prefix    string
}

// NewUploader wraps client for the given container. Keys are placed under prefix.
func NewUploader(client BlobAPI, container, prefix string) *Uploader {
	return &Uploader{client: client, container: container, prefix: strings.Trim(prefix, "/")}
}

// EnsureContainer creates the container if it does not exist yet.
func (u *Uploader) EnsureContainer(ctx context.Context) error {
	_, err := u.client.CreateContainer(ctx, u.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("create container %s: %w", u.container, err)
	}
	return nil
}

// Key returns the blob key for a file relative to the report directory.
func (u *Uploader) Key(runID, rel string) (string, error) {
	rel = filepath.ToSlash(rel)
	if rel == "" || strings.Contains(rel, "..") || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, rel)
	}
	return path.Join(u.prefix, runID, rel), nil
}

// Upload uploads every regular file below dir and returns the blob keys in
// walk order.
func (u *Uploader) Upload(ctx context.Context, dir, runID string) ([]string, error) {
	if err := u.EnsureContainer(ctx); err != nil {
		return nil, err
	}

	var keys []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		key, err := u.Key(runID, rel)
		if err != nil {
			return err
		}
		if err := u.uploadFile(ctx, p, key); err != nil {
			return err
		}
		slog.Debug("uploaded blob", "container", u.container, "key", key)
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return keys, err
	}
	return keys, nil
}

func (u *Uploader) uploadFile(ctx context.Context, p, key string) error {
	f, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close() //nolint:errcheck

	contentType := ContentType(p)
	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	}
	if _, err := u.client.UploadStream(ctx, u.container, key, f, opts); err != nil {
		return fmt.Errorf("upload blob %s: %w", key, err)
	}
	return nil
}

// ContentType maps report file extensions to MIME types.
func ContentType(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".html":
		return "text/html; charset=utf-8"
	case ".xml":
		return "application/xml"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".gz":
		return "application/gzip"
	case ".zst":
		return "application/zstd"
	default:
		return "application/octet-stream"
	}
}
