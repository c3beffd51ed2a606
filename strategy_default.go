//go:build !rtboot_direct

package rtboot

const forceDirect = false
