//go:build rtboot_dso

package rtboot

// Variant names the compiled variant.
const Variant = "shared-object"

// The shared-object variant defines no entry point. The host program's
// main is never wrapped; Load must be called from an init function.
const isDSO = true
