//go:build !rtboot_dso

// rtboot-demo is a small program bootstrapped through rtboot. The demo
// runtime consumes --rt-* options before main; main parses what is left.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/hashicorp/go-hclog"
	"github.com/mrzor/rtboot"
	"github.com/mrzor/rtboot/internal/rtcore"
)

// Version information injected at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// CLI is the program's own command line, after runtime options are gone.
type CLI struct {
	Version kong.VersionFlag `help:"Print version information and exit." short:"V"`
	Upper   bool             `help:"Print arguments in upper case." short:"u"`
	Runtime bool             `help:"Print the runtime state." short:"r"`
	Args    []string         `arg:"" optional:"" help:"Arguments to echo."`
}

var core = rtcore.New(rtcore.WithLogger(hclog.New(&hclog.LoggerOptions{
	Name:   "rtcore",
	Level:  hclog.Info,
	Output: os.Stderr,
})))

func init() {
	if err := rtboot.SetRuntime(core); err != nil {
		log.Fatalf("Error: %v", err)
	}
	// A failed capture is logged by the bootstrap and main still runs.
	_ = rtboot.Load() //nolint:errcheck // informational
}

func main() {
	os.Exit(rtboot.Main(realMain))
}

func realMain(_ int, v rtboot.Vector) int {
	if err := run(v); err != nil {
		log.Printf("Error: %v", err)
		return 1
	}
	return 0
}

func versionString() string {
	info := fmt.Sprintf("rtboot-demo %s (commit %s, built %s)", version, commit, date)
	if rt, ok := rtboot.VersionInfo(core); ok {
		info += "\n" + rt
	}
	return info
}

func run(v rtboot.Vector) error {
	var cli CLI
	name := "rtboot-demo"
	var args []string
	if len(v) > 0 {
		name = v[0]
		args = v[1:]
	}

	parser, err := kong.New(&cli,
		kong.Name(name),
		kong.Description("Echo arguments left over by the runtime."),
		kong.Vars{"version": versionString()},
	)
	if err != nil {
		return fmt.Errorf("building parser: %w", err)
	}
	if _, err := parser.Parse(args); err != nil {
		return err
	}

	out := strings.Join(cli.Args, " ")
	if cli.Upper {
		out = strings.ToUpper(out)
	}
	fmt.Println(out)

	if cli.Runtime {
		state := core.State()
		fmt.Printf("variant=%s initialized=%t verbosity=%d mlock=%t cpus=%v\n",
			rtboot.Variant, state.Initialized, state.Options.Verbosity, state.Options.Mlock, state.Options.CPUAffinity)
		for _, issue := range rtboot.Issues() {
			fmt.Printf("issue: %s\n", issue)
		}
	}
	return nil
}
