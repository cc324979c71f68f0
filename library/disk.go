package library

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// DiskLoader implements ContentLoader over the local filesystem, the
// concrete collaborator `cmd/hlasmctl` wires in for a real analysis run
// (the out-of-scope file_manager interface the spec names, generalized
// here from the teacher's binary-image file reads to member text).
type DiskLoader struct{}

func (DiskLoader) ListDirectory(dir source.URI) ([]string, error) {
	path := strings.TrimPrefix(string(dir), "file://")
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (DiskLoader) ReadFile(uri source.URI) (string, error) {
	path := strings.TrimPrefix(string(uri), "file://")
	path = filepath.Clean(path)
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
