//go:build !(linux || darwin || freebsd)

package memory

import "errors"

const pageLockingSupported = false

func mapLocked(int) ([]uint32, error) { return nil, errors.ErrUnsupported }
func unmapLocked([]uint32) error      { return errors.ErrUnsupported }
