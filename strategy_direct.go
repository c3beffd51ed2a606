//go:build rtboot_direct

package rtboot

// Always use the supplied vector.
const forceDirect = true
