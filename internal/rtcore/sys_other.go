//go:build !linux

package rtcore

import "errors"

var errUnsupported = errors.New("not supported on this platform")

func setAffinity([]int) error { return errUnsupported }

func lockMemory() error { return errUnsupported }
