//go:build !rtboot_dso

package rtboot

import (
	"context"
	"time"

	"github.com/mrzor/rtboot/internal/entry"
)

// Variant names the compiled variant.
const Variant = "executable"

const isDSO = false

// shutdownTimeout bounds the span flush after the real entry point returns.
const shutdownTimeout = 5 * time.Second

// Main runs the load-time hooks if nothing has yet, then calls realMain
// through the entry-point wrapper with the vector the runtime left behind.
// If nothing could be captured, realMain gets the loader-supplied arguments.
// The returned value is realMain's.
//
//	func main() { os.Exit(rtboot.Main(realMain)) }
func (b *Bootstrap) Main(realMain MainFunc) int {
	ctx := context.Background()
	_ = b.Load(ctx)

	d := b.dispatch()
	wrapper := entry.NewInterposer(realMain, b.cell,
		entry.WithFallback(d.Fallback),
		entry.WithOSArgsSync(b.cfg.SyncOSArgs),
		entry.WithLogger(b.logger.Named("entry")),
	)

	supplied := Vector(b.supplied()).Clone()
	defer func() {
		sctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err := b.Shutdown(sctx); err != nil {
			b.logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	table, err := entry.NewTable(entry.Names{
		Wrapper:   WrapperName,
		Real:      RealName,
		WeakAlias: WeakAliasName,
	}, wrapper.Main, realMain)
	if err != nil {
		b.logger.Error("invalid entry point names, calling real main directly", "error", err)
		return wrapper.Main(supplied.Argc(), supplied)
	}

	name := table.Names().WeakAlias
	if name == "" {
		name = table.Names().Wrapper
	}
	code, err := table.Call(name, supplied.Argc(), supplied)
	if err != nil {
		b.logger.Error("entry point unresolved, calling real main directly", "name", name, "error", err)
		return wrapper.Main(supplied.Argc(), supplied)
	}
	return code
}

// Main runs realMain through the default Bootstrap.
func Main(realMain MainFunc) int {
	return std.Main(realMain)
}
