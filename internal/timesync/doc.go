// Package timesync converts kernel-relative process timestamps to wall-clock
// time.
//
// The kernel reports a process start time in clock ticks since boot
// (field 22 of /proc/<pid>/stat). Adding that offset to the boot time from
// the btime line of /proc/stat gives the instant the process was created,
// which is used as the start of the bootstrap span.
package timesync
