//go:build rtboot_dso

// rtboot-dso is a shared library bootstrapped through rtboot. Build with
//
//	go build -tags rtboot_dso -buildmode=c-shared -o librtboot-demo.so ./cmd/rtboot-dso
//
// Loading the library captures the host process's arguments and runs the
// demo runtime's InitDSO; the host's own main is left untouched.
package main

import "C"

import (
	"log"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mrzor/rtboot"
	"github.com/mrzor/rtboot/internal/rtcore"
)

var core = rtcore.New(rtcore.WithLogger(hclog.New(&hclog.LoggerOptions{
	Name:   "rtcore",
	Level:  hclog.Warn,
	Output: os.Stderr,
})))

func init() {
	if err := rtboot.SetRuntime(core); err != nil {
		log.Printf("rtboot-dso: %v", err)
		return
	}
	if err := rtboot.Load(); err != nil {
		log.Printf("rtboot-dso: %v", err)
	}
}

// rtboot_captured_args returns the captured host arguments joined with
// spaces, or NULL when nothing was captured. The caller frees the result.
//
//export rtboot_captured_args
func rtboot_captured_args() *C.char {
	args, ok := rtboot.CapturedArgs()
	if !ok {
		return nil
	}
	return C.CString(strings.Join(args, " "))
}

// rtboot_runtime_initialized reports whether InitDSO ran.
//
//export rtboot_runtime_initialized
func rtboot_runtime_initialized() C.int {
	if core.State().Initialized {
		return 1
	}
	return 0
}

func main() {}
