package timesync

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"time"

	"github.com/prometheus/procfs"
)

// UserHZ is the tick rate the kernel exposes to user space in /proc.
const UserHZ = 100

// ErrMalformedStat is returned when a stat file cannot be parsed.
var ErrMalformedStat = errors.New("malformed stat file")

// Converter turns tick and nanosecond offsets since boot into wall-clock time.
type Converter struct {
	proc     procfs.FS
	procErr  error
	procRoot string
	bootTime time.Time
}

// NewConverter reads the boot time below procRoot ("/proc" when empty).
// If btime cannot be read, the converter falls back to an estimate one hour
// before now and returns the error alongside it.
func NewConverter(procRoot string) (*Converter, error) {
	if procRoot == "" {
		procRoot = procfs.DefaultMountPoint
	}

	c := &Converter{procRoot: procRoot}
	proc, err := procfs.NewFS(procRoot)
	if err == nil {
		c.proc = proc
		c.bootTime, err = readBootTime(proc)
	} else {
		err = fmt.Errorf("failed to open procfs at %s: %w", procRoot, err)
		c.procErr = err
	}
	if err != nil {
		c.bootTime = time.Now().Add(-time.Hour)
	}

	return c, err
}

// BootTime returns the system boot time used for conversions.
func (c *Converter) BootTime() time.Time {
	return c.bootTime
}

// MonotonicToWallClock converts nanoseconds since boot to wall-clock time.
func (c *Converter) MonotonicToWallClock(monotonicNanos uint64) time.Time {
	//nolint:gosec // offsets since boot fit in int64
	return c.bootTime.Add(time.Duration(monotonicNanos))
}

// TicksToWallClock converts clock ticks since boot to wall-clock time.
func (c *Converter) TicksToWallClock(ticks uint64) time.Time {
	return c.MonotonicToWallClock(ticks * uint64(time.Second/UserHZ))
}

// ProcessStart returns the wall-clock start time of the calling process.
func (c *Converter) ProcessStart() (time.Time, error) {
	if c.procErr != nil {
		return time.Time{}, c.procErr
	}
	self, err := c.proc.Self()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to resolve %s/self: %w", c.procRoot, err)
	}

	stat, err := self.Stat()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, fmt.Errorf("failed to read stat of pid %d: %w", self.PID, err)
		}
		return time.Time{}, fmt.Errorf("%w: pid %d: %w", ErrMalformedStat, self.PID, err)
	}

	start, err := stat.StartTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to compute start time of pid %d: %w", self.PID, err)
	}
	sec, frac := math.Modf(start)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))), nil
}

// readBootTime returns the btime of /proc/stat.
func readBootTime(proc procfs.FS) (time.Time, error) {
	stat, err := proc.Stat()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read stat: %w", err)
	}
	if stat.BootTime == 0 {
		return time.Time{}, errors.New("btime not found in stat")
	}
	//nolint:gosec // btime is seconds since the epoch
	return time.Unix(int64(stat.BootTime), 0), nil
}
