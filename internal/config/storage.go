package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// BucketConfig holds per-bucket limits for the blob store.
type BucketConfig struct {
	Name             string   `yaml:"name"`
	QuotaBytes       int64    `yaml:"quota_bytes"`
	MaxObjectSize    int64    `yaml:"max_object_size"`
	AllowedMimeTypes []string `yaml:"allowed_mime_types"`
}

type storageFile struct {
	Buckets []BucketConfig `yaml:"buckets"`
}

// DefaultBuckets are used when no storage config file is given.
func DefaultBuckets(maxObjectSize int64) []BucketConfig {
	return []BucketConfig{
		{Name: "files", MaxObjectSize: maxObjectSize},
		{Name: "womenchildren_files", MaxObjectSize: maxObjectSize},
	}
}

// LoadBuckets reads the YAML bucket list at path. An empty path yields the
// default buckets. Buckets missing from the file keep their defaults.
func LoadBuckets(path string, maxObjectSize int64) ([]BucketConfig, error) {
	defaults := DefaultBuckets(maxObjectSize)
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read storage config: %w", err)
	}

	return parseBuckets(data, defaults)
}

func parseBuckets(data []byte, defaults []BucketConfig) ([]BucketConfig, error) {
	var file storageFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse storage config: %w", err)
	}

	out := make([]BucketConfig, len(defaults))
	copy(out, defaults)

	for _, b := range file.Buckets {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			return nil, fmt.Errorf("storage config: bucket name is required")
		}
		if b.QuotaBytes < 0 || b.MaxObjectSize < 0 {
			return nil, fmt.Errorf("storage config: bucket %q has negative limits", name)
		}

		idx := -1
		for i := range out {
			if out[i].Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("storage config: unknown bucket %q", name)
		}

		if b.QuotaBytes > 0 {
			out[idx].QuotaBytes = b.QuotaBytes
		}
		if b.MaxObjectSize > 0 {
			out[idx].MaxObjectSize = b.MaxObjectSize
		}
		if len(b.AllowedMimeTypes) > 0 {
			out[idx].AllowedMimeTypes = append([]string(nil), b.AllowedMimeTypes...)
		}
	}

	return out, nil
}
