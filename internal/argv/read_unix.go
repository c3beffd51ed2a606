//go:build unix

package argv

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// readOnce opens path, performs a single read of up to size bytes and
// closes it again.
func readOnce(path string, size int) ([]byte, int, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: opening %s: %w", ErrAcquisition, path, err)
	}
	defer func() {
		_ = unix.Close(fd) //nolint:errcheck // Read-only descriptor
	}()

	buf := make([]byte, size)
	for {
		n, err := unix.Read(fd, buf)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: reading %s: %w", ErrAcquisition, path, err)
		}
		return buf, n, nil
	}
}
