package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"syscall"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/jroosing/herald/internal/pool"
)

// mdnsMulticastTTL is the TTL required for mDNS multicast datagrams
// (RFC 6762 Section 11).
const mdnsMulticastTTL = 255

// bufferPool reduces allocations for incoming UDP datagrams.
var bufferPool = pool.Bytes(RecvBufferSize)

// UDPv4 is the mDNS exchange over a single IPv4 UDP socket.
//
// The socket is opened with SO_REUSEADDR and SO_REUSEPORT so the
// responder can share port 5353 with other mDNS stacks on the host, and
// wrapped in an ipv4.PacketConn for multicast group control.
//
// Wiring order matters: Listen, then SetObserver, then Serve. Grants
// from RequestSendBuffer are synchronous, so a request made from inside
// an observer callback completes before the serve loop reads on.
type UDPv4 struct {
	Logger *slog.Logger   // optional
	Iface  *net.Interface // multicast interface; nil picks the OS default

	conn  *net.UDPConn
	pconn *ipv4.PacketConn
	obs   Observer
}

// Listen binds the socket on the given UDP port (typically 5353) and
// prepares it for multicast work.
func (u *UDPv4) Listen(port int) error {
	lc := net.ListenConfig{Control: reuseAddrAndPort}
	pc, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("transport: listen udp4 port %d: %w", port, err)
	}
	u.conn = pc.(*net.UDPConn)
	u.pconn = ipv4.NewPacketConn(u.conn)
	if err := u.pconn.SetMulticastTTL(mdnsMulticastTTL); err != nil {
		_ = u.conn.Close()
		return fmt.Errorf("transport: set multicast TTL: %w", err)
	}
	if u.Iface != nil {
		if err := u.pconn.SetMulticastInterface(u.Iface); err != nil {
			_ = u.conn.Close()
			return fmt.Errorf("transport: set multicast interface %s: %w", u.Iface.Name, err)
		}
	}
	return nil
}

// reuseAddrAndPort sets SO_REUSEADDR and SO_REUSEPORT before bind, so
// several sockets can share the mDNS port. Unix-only, like the rest of
// this daemon's socket handling.
func reuseAddrAndPort(network, address string, c syscall.RawConn) error {
	var optErr error
	err := c.Control(func(fd uintptr) {
		optErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		if optErr != nil {
			return
		}
		optErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
	if err != nil {
		return err
	}
	return optErr
}

// SetObserver wires the callback target. It must be called after Listen
// and before Serve or any RequestSendBuffer; the exchange does not lock
// around the observer.
func (u *UDPv4) SetObserver(obs Observer) {
	u.obs = obs
}

// JoinGroup subscribes the socket to a multicast group on the configured
// interface.
func (u *UDPv4) JoinGroup(group netip.Addr) error {
	if err := u.pconn.JoinGroup(u.Iface, &net.UDPAddr{IP: group.AsSlice()}); err != nil {
		return fmt.Errorf("transport: join group %s: %w", group, err)
	}
	return nil
}

// LeaveGroup drops the multicast group subscription.
func (u *UDPv4) LeaveGroup(group netip.Addr) error {
	if err := u.pconn.LeaveGroup(u.Iface, &net.UDPAddr{IP: group.AsSlice()}); err != nil {
		return fmt.Errorf("transport: leave group %s: %w", group, err)
	}
	return nil
}

// LocalAddrPort reports the bound socket address.
func (u *UDPv4) LocalAddrPort() netip.AddrPort {
	return u.conn.LocalAddr().(*net.UDPAddr).AddrPort()
}

// Serve reads datagrams and dispatches them to the observer, one at a
// time, until ctx is cancelled or the socket closes. Reads wake up once
// a second to notice cancellation, the same shutdown style the rest of
// the daemon uses.
func (u *UDPv4) Serve(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		bufPtr := bufferPool.Get()
		buf := *bufPtr

		_ = u.conn.SetReadDeadline(time.Now().Add(1 * time.Second))
		n, src, err := u.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			bufferPool.Put(bufPtr)
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("transport: read: %w", err)
		}

		// The observer gets a view into the pooled buffer; the contract
		// is that it copies anything it keeps.
		u.obs.DatagramReceived(buf[:n], src)
		bufferPool.Put(bufPtr)
	}
}

// RequestSendBuffer allocates a fixed buffer of exactly size bytes for
// dest and grants it to the observer before returning. Only sizes no
// datagram could carry are refused.
func (u *UDPv4) RequestSendBuffer(size int, dest netip.AddrPort) error {
	if size <= 0 || size > MaxUDPPayload {
		return fmt.Errorf("%w: %d bytes", ErrBufferSize, size)
	}
	u.obs.SendBufferGranted(NewSendBuffer(size, dest, u.writeTo))
	return nil
}

func (u *UDPv4) writeTo(p []byte, dest netip.AddrPort) error {
	if _, err := u.conn.WriteToUDPAddrPort(p, dest); err != nil {
		return fmt.Errorf("transport: write to %s: %w", dest, err)
	}
	return nil
}

// Close closes the socket, unblocking Serve.
func (u *UDPv4) Close() error {
	if u.conn == nil {
		return nil
	}
	return u.conn.Close()
}
