//go:build linux

package netwatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sys/unix"

	"github.com/wifireconnect/wifireconnect-go/pkg/reconnect"
)

// pollInterval bounds how long a blocked receive delays noticing
// cancellation.
const pollInterval = 500 * time.Millisecond

// NetlinkSource notifies on kernel link and address changes, received on an
// rtnetlink socket.
type NetlinkSource struct {
	Log logr.Logger

	wg sync.WaitGroup
}

// Subscribe implements reconnect.StatusSource.
func (n *NetlinkSource) Subscribe(ctx context.Context, notify func()) error {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.NETLINK_ROUTE)
	if err != nil {
		return fmt.Errorf("open rtnetlink socket: %w", err)
	}

	addr := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: unix.RTMGRP_LINK | unix.RTMGRP_IPV4_IFADDR | unix.RTMGRP_IPV6_IFADDR,
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return fmt.Errorf("bind rtnetlink socket: %w", err)
	}

	tv := unix.NsecToTimeval(pollInterval.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		unix.Close(fd)
		return fmt.Errorf("set rtnetlink receive timeout: %w", err)
	}

	n.wg.Add(1)
	go n.receive(ctx, fd, notify)
	return nil
}

func (n *NetlinkSource) receive(ctx context.Context, fd int, notify func()) {
	defer n.wg.Done()
	defer unix.Close(fd)

	log := n.Log
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	buf := make([]byte, unix.Getpagesize())
	for ctx.Err() == nil {
		nr, _, err := unix.Recvfrom(fd, buf, 0)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR) {
				continue
			}
			if errors.Is(err, unix.ENOBUFS) {
				// Kernel dropped events; treat it as a change.
				notify()
				continue
			}
			log.Error(err, "Receiving link events failed")
			return
		}
		if nr < unix.NLMSG_HDRLEN {
			continue
		}

		msgs, err := syscall.ParseNetlinkMessage(buf[:nr])
		if err != nil {
			log.V(1).Info("Skipping malformed netlink message", "error", err.Error())
			continue
		}
		if isLinkEvent(msgs) {
			notify()
		}
	}
}

func isLinkEvent(msgs []syscall.NetlinkMessage) bool {
	for _, m := range msgs {
		switch m.Header.Type {
		case unix.RTM_NEWLINK, unix.RTM_DELLINK, unix.RTM_NEWADDR, unix.RTM_DELADDR:
			return true
		}
	}
	return false
}

// Wait blocks until the receive goroutine has stopped.
func (n *NetlinkSource) Wait() {
	n.wg.Wait()
}

var _ reconnect.StatusSource = (*NetlinkSource)(nil)
