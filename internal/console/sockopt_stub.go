//go:build !unix

package console

import "syscall"

// reuseAddr is a no-op on platforms without SOL_SOCKET semantics worth
// tuning; the dial proceeds with the platform defaults.
func reuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
