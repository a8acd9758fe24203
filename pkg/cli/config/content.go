package config

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/folio/pkg/repository/memory"
	"github.com/secmon-lab/folio/pkg/utils/safe"
)

const gcsScheme = "gs://"

// LoadSeed reads a seed file from a local path or a gs://bucket/object URL.
// The format is chosen by file extension (.json or TOML otherwise).
func LoadSeed(ctx context.Context, path string) (*memory.Seed, error) {
	if path == "" {
		return nil, goerr.Wrap(ErrMissingOption, "content file path is required")
	}

	var data []byte
	var err error
	if strings.HasPrefix(path, gcsScheme) {
		data, err = readGCSObject(ctx, path)
	} else {
		data, err = readLocalFile(path)
	}
	if err != nil {
		return nil, err
	}

	seed, err := memory.ParseSeed(data, memory.FormatFromPath(path))
	if err != nil {
		return nil, goerr.Wrap(err, "invalid content file", goerr.V("path", path))
	}
	return seed, nil
}

func readLocalFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) // #nosec G304 path comes from operator configuration
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, goerr.Wrap(ErrContentNotFound, "content file does not exist", goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to read content file", goerr.V("path", path))
	}
	return data, nil
}

// ParseGCSPath splits gs://bucket/object into its bucket and object names
func ParseGCSPath(path string) (string, string, error) {
	rest, ok := strings.CutPrefix(path, gcsScheme)
	if !ok {
		return "", "", goerr.Wrap(ErrInvalidConfig, "not a gs:// path", goerr.V("path", path))
	}
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", goerr.Wrap(ErrInvalidConfig, "gs:// path needs bucket and object", goerr.V("path", path))
	}
	return bucket, object, nil
}

func readGCSObject(ctx context.Context, path string) ([]byte, error) {
	bucket, object, err := ParseGCSPath(path)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Cloud Storage client")
	}
	defer safe.Close(ctx, client)

	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, goerr.Wrap(ErrContentNotFound, "content object does not exist", goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to open content object", goerr.V("path", path))
	}
	defer safe.Close(ctx, reader)

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read content object", goerr.V("path", path))
	}
	return data, nil
}
