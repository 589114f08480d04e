package config

import "time"

// Storage backends.
const (
	BackendDisk = "disk"
	BackendS3   = "s3"
)

// StorageConfig holds the upload policy and blob storage settings. All of it
// is externally supplied; nothing in the pipeline hardcodes a limit or path.
type StorageConfig struct {
	// Backend selects where committed bytes live.
	Backend string `yaml:"backend" validate:"oneof=disk s3"`
	// Root is the flat directory of opaque-named files (disk backend). It
	// must lie outside anything the serving layer treats as executable.
	Root string `yaml:"root"`
	// ScratchDir is the spool area for bytes still being decoded. Empty
	// means the operating system temp directory.
	ScratchDir string `yaml:"scratch_dir"`
	// MaxFileSize is the per-file ceiling in bytes, measured from bytes
	// actually written to scratch, never from a client-declared length.
	MaxFileSize int64 `yaml:"max_file_size" validate:"gt=0"`
	// MaxRequestSize is the per-request total-byte ceiling. It bounds
	// worst-case disk usage independently of MaxFileSize.
	MaxRequestSize int64 `yaml:"max_request_size" validate:"gt=0"`
	// AllowedTypes is the closed extension allowlist, mapping each lowercase
	// extension to the Content-Type it is served with.
	AllowedTypes map[string]string `yaml:"allowed_types" validate:"min=1"`
	// SweepInterval is how often the reconciler scans for orphaned blobs.
	// Zero disables the sweep.
	SweepInterval time.Duration `yaml:"sweep_interval"`

	S3 S3Config `yaml:"s3"`
}

// S3Config holds settings for the S3 blob store backend.
type S3Config struct {
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

func (s *StorageConfig) applyDefaults() {
	if s.Backend == "" {
		s.Backend = BackendDisk
	}
	if s.MaxFileSize == 0 {
		s.MaxFileSize = 10_000_000
	}
	if s.MaxRequestSize == 0 {
		s.MaxRequestSize = 25_000_000
	}
	if len(s.AllowedTypes) == 0 {
		s.AllowedTypes = DefaultAllowedTypes()
	}
	if s.SweepInterval == 0 {
		s.SweepInterval = time.Hour
	}
}

// DefaultAllowedTypes returns the stock extension allowlist.
func DefaultAllowedTypes() map[string]string {
	return map[string]string{
		"png":  "image/png",
		"jpg":  "image/jpeg",
		"jpeg": "image/jpeg",
		"gif":  "image/gif",
		"pdf":  "application/pdf",
		"txt":  "text/plain; charset=utf-8",
		"csv":  "text/csv; charset=utf-8",
		"zip":  "application/zip",
	}
}
