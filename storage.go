package ldsccts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"google.golang.org/api/iterator"
)

var BufferSize = 4096 * 32

const gsPrefix = "gs://"

// IsGoogleStorage reports whether path is a gs:// URL.
func IsGoogleStorage(path string) bool {
	return strings.HasPrefix(path, gsPrefix)
}

// SplitGSPath detects the bucket and the object path of a gs:// URL.
func SplitGSPath(path string) (bucket, object string, err error) {
	pathParts := strings.SplitN(strings.TrimPrefix(path, gsPrefix), "/", 2)
	if len(pathParts) != 2 {
		return "", "", fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}

// ExpandHome expands ~ to its proper path, where appropriate.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	usr, err := user.Current()
	if err != nil {
		return "", pfx.Err(err)
	}

	return filepath.Join(usr.HomeDir, path[2:]), nil
}

func requireClient(path string, client *storage.Client) error {
	if client == nil {
		return fmt.Errorf("%s is a Google Storage path, but no storage client was configured", path)
	}
	return nil
}

// Open opens a local file or a gs:// object for reading.
func Open(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	if IsGoogleStorage(path) {
		if err := requireClient(path, client); err != nil {
			return nil, err
		}
		bucketName, pathName, err := SplitGSPath(path)
		if err != nil {
			return nil, err
		}

		rdr, err := client.Bucket(bucketName).Object(pathName).NewReader(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
		return rdr, nil
	}

	local, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	return os.Open(local)
}

// OpenDecompressed opens path and transparently strips any compression layer.
// Closing the returned ReadCloser closes the underlying file or object too.
func OpenDecompressed(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, DataType, error) {
	raw, err := Open(ctx, path, client)
	if err != nil {
		return nil, DataTypeInvalid, err
	}

	dec, dt, err := MaybeDecompress(raw)
	if err != nil {
		raw.Close()
		return nil, dt, fmt.Errorf("%s: %w", path, err)
	}

	return &stackedCloser{Reader: dec, closers: []io.Closer{dec, raw}}, dt, nil
}

// Create opens a local file or a gs:// object for writing. For Google Storage,
// the object only becomes visible once Close returns without error.
func Create(ctx context.Context, path string, client *storage.Client) (io.WriteCloser, error) {
	if IsGoogleStorage(path) {
		if err := requireClient(path, client); err != nil {
			return nil, err
		}
		bucketName, pathName, err := SplitGSPath(path)
		if err != nil {
			return nil, err
		}

		return client.Bucket(bucketName).Object(pathName).NewWriter(ctx), nil
	}

	local, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(local); dir != "" {
		if err := os.MkdirAll(dir, 0775); err != nil {
			return nil, pfx.Err(err)
		}
	}

	return os.Create(local)
}

// Exists reports whether a local file or gs:// object is present.
func Exists(ctx context.Context, path string, client *storage.Client) (bool, error) {
	if IsGoogleStorage(path) {
		if err := requireClient(path, client); err != nil {
			return false, err
		}
		bucketName, pathName, err := SplitGSPath(path)
		if err != nil {
			return false, err
		}

		_, err = client.Bucket(bucketName).Object(pathName).Attrs(ctx)
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		} else if err != nil {
			return false, pfx.Err(err)
		}
		return true, nil
	}

	local, err := ExpandHome(path)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(local); os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, pfx.Err(err)
	}

	return true, nil
}

// gsListed reports whether a delimited listing entry is an object, rather
// than a collapsed "subdirectory" prefix, whose name ends with suffix.
func gsListed(attrs *storage.ObjectAttrs, suffix string) bool {
	return attrs.Prefix == "" && strings.HasSuffix(attrs.Name, suffix)
}

// ListPrefixSuffix returns, in sorted order, every file or object whose full
// path starts with prefix and ends with suffix. This is the "<prefix>*<suffix>"
// glob, without interpreting any glob metacharacters in the prefix itself.
func ListPrefixSuffix(ctx context.Context, prefix, suffix string, client *storage.Client) ([]string, error) {
	if IsGoogleStorage(prefix) {
		if err := requireClient(prefix, client); err != nil {
			return nil, err
		}
		bucketName, pathName, err := SplitGSPath(prefix)
		if err != nil {
			return nil, err
		}

		out := make([]string, 0)
		// The delimiter keeps the listing to one level, like a directory read.
		it := client.Bucket(bucketName).Objects(ctx, &storage.Query{Prefix: pathName, Delimiter: "/"})
		for {
			attrs, err := it.Next()
			if err == iterator.Done {
				break
			} else if err != nil {
				return nil, pfx.Err(err)
			}

			if gsListed(attrs, suffix) {
				out = append(out, gsPrefix+bucketName+"/"+attrs.Name)
			}
		}
		sort.Strings(out)
		return out, nil
	}

	local, err := ExpandHome(prefix)
	if err != nil {
		return nil, err
	}

	dir, base := filepath.Split(local)
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, pfx.Err(err)
	}

	out := make([]string, 0)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, base) || !strings.HasSuffix(name, suffix) {
			continue
		}
		// A name shorter than prefix+suffix combined would let the two overlap
		if len(name) < len(base)+len(suffix) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)

	return out, nil
}

type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
