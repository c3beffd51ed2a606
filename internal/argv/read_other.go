//go:build !unix

package argv

import "fmt"

func readOnce(path string, _ int) ([]byte, int, error) {
	return nil, 0, fmt.Errorf("%w: %s is not available on this platform", ErrAcquisition, path)
}
