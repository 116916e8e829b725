package instance

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"sync"
	"syscall"

	"github.com/gofrs/flock"
)

// ErrEndpointBusy reports that another process owns the endpoint.
var ErrEndpointBusy = errors.New("endpoint is owned by another instance")

// Claim binds the endpoint. File endpoints take the advisory lock first and
// only then replace a stale socket file, so two processes never unlink each
// other's live socket. The returned listener releases the lock on Close.
func Claim(ep Endpoint) (net.Listener, error) {
	if ep.LockPath == "" {
		ln, err := net.Listen(ep.Network, ep.Address)
		if err != nil {
			if errors.Is(err, syscall.EADDRINUSE) {
				return nil, fmt.Errorf("%w: %s", ErrEndpointBusy, ep)
			}
			return nil, fmt.Errorf("listen %s: %w", ep, err)
		}
		return ln, nil
	}

	lock := flock.New(ep.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", ep.LockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrEndpointBusy, ep.LockPath)
	}
	if err := os.Remove(ep.Address); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_ = lock.Unlock()
		return nil, fmt.Errorf("remove stale socket %s: %w", ep.Address, err)
	}
	ln, err := net.Listen(ep.Network, ep.Address)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("listen %s: %w", ep, err)
	}
	return &lockedListener{Listener: ln, lock: lock}, nil
}

// lockedListener holds the endpoint lock for the listener's lifetime.
type lockedListener struct {
	net.Listener
	lock *flock.Flock
	once sync.Once
	err  error
}

func (l *lockedListener) Close() error {
	l.once.Do(func() {
		l.err = l.Listener.Close()
		if err := l.lock.Unlock(); err != nil && l.err == nil {
			l.err = err
		}
	})
	return l.err
}
