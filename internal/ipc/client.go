package ipc

import (
	"fmt"
	"net"
	"time"

	"q7z/internal/extract"
)

// Forward writes req to conn as a single frame. A positive timeout bounds
// the write so an unresponsive Primary cannot hang the caller.
func Forward(conn net.Conn, req extract.Request, timeout time.Duration) error {
	frame, err := Encode(req)
	if err != nil {
		return err
	}
	if timeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}
	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("forward request: %w", err)
	}
	return nil
}
