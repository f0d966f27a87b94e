package script

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
)

// checkScriptName applies the name rules. It never touches a filesystem.
func checkScriptName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return &FileRejectedError{Name: name, Reason: ErrInvalidScriptName, Detail: "empty name"}
	case hasParentElement(name):
		return &FileRejectedError{Name: name, Reason: ErrInvalidScriptName, Detail: "parent reference"}
	case strings.ContainsAny(name, `/\`):
		return &FileRejectedError{Name: name, Reason: ErrInvalidScriptName, Detail: "path separator"}
	case !strings.HasSuffix(name, ScriptExtension):
		return &FileRejectedError{Name: name, Reason: ErrDisallowedExtension, Detail: "want " + ScriptExtension}
	}
	return nil
}

func hasParentElement(name string) bool {
	for _, elem := range strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' }) {
		if elem == ".." {
			return true
		}
	}
	return false
}

// readScript stats name under root, refuses anything above limit, and reads
// through a bounded reader so a file that grows after the stat is still
// refused.
func readScript(root fs.FS, name string, limit int64) ([]byte, error) {
	if err := checkScriptName(name); err != nil {
		return nil, err
	}
	if root == nil {
		return nil, &FileRejectedError{Name: name, Reason: ErrScriptNotFound, Detail: "no script root"}
	}

	info, err := fs.Stat(root, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FileRejectedError{Name: name, Reason: ErrScriptNotFound}
		}
		return nil, fmt.Errorf("stat script %q: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return nil, &FileRejectedError{Name: name, Reason: ErrInvalidScriptName, Detail: "not a regular file"}
	}
	if info.Size() > limit {
		return nil, &FileRejectedError{Name: name, Reason: ErrScriptTooLarge, Detail: FormatSize(info.Size())}
	}

	f, err := root.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open script %q: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(NewLimitedReader(f, limit))
	if err != nil {
		if IsSizeLimitExceededError(err) {
			return nil, &FileRejectedError{Name: name, Reason: ErrScriptTooLarge, Detail: err.Error()}
		}
		return nil, fmt.Errorf("read script %q: %w", name, err)
	}
	return data, nil
}

// LimitedReader wraps an io.Reader with a maximum size limit.
// Reading exactly Limit bytes is fine; a byte past it is an error.
type LimitedReader struct {
	R     io.Reader
	N     int64 // bytes remaining
	Limit int64
	read  int64
}

// NewLimitedReader creates a new LimitedReader that will read at most limit bytes.
func NewLimitedReader(r io.Reader, limit int64) *LimitedReader {
	return &LimitedReader{
		R:     r,
		N:     limit,
		Limit: limit,
	}
}

// Read implements io.Reader with size limit enforcement.
func (l *LimitedReader) Read(p []byte) (n int, err error) {
	if l.N <= 0 {
		var buf [1]byte
		extra, extraErr := l.R.Read(buf[:])
		if extra > 0 {
			return 0, &SizeLimitExceededError{Limit: l.Limit, Read: l.read + 1}
		}
		if extraErr == nil {
			extraErr = io.EOF
		}
		return 0, extraErr
	}

	if int64(len(p)) > l.N {
		p = p[0:l.N]
	}

	n, err = l.R.Read(p)
	l.N -= int64(n)
	l.read += int64(n)
	return n, err
}

// BytesRead returns the number of bytes read so far.
func (l *LimitedReader) BytesRead() int64 {
	return l.read
}

// SizeLimitExceededError is returned when the size limit is exceeded.
type SizeLimitExceededError struct {
	Limit int64
	Read  int64
}

func (e *SizeLimitExceededError) Error() string {
	return fmt.Sprintf("size limit exceeded: read %d bytes, limit is %s", e.Read, FormatSize(e.Limit))
}

// IsSizeLimitExceededError returns true if the error is a SizeLimitExceededError.
func IsSizeLimitExceededError(err error) bool {
	var sizeLimitErr *SizeLimitExceededError
	return errors.As(err, &sizeLimitErr)
}

// FormatSize returns a human-readable size string.
func FormatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)

	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
