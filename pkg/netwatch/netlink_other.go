//go:build !linux

package netwatch

import (
	"context"

	"github.com/go-logr/logr"
)

// NetlinkSource is only available on Linux.
type NetlinkSource struct {
	Log logr.Logger
}

// Subscribe always returns ErrUnsupported.
func (n *NetlinkSource) Subscribe(context.Context, func()) error {
	return ErrUnsupported
}

// Wait returns immediately.
func (n *NetlinkSource) Wait() {}
