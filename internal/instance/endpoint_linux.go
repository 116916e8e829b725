package instance

import "fmt"

// platformEndpoint uses the abstract namespace; the kernel guarantees a single
// owner and drops the name when the owning socket closes.
func platformEndpoint(name string) (Endpoint, error) {
	address := "@" + name
	if len(address) > maxSocketPath {
		return Endpoint{}, fmt.Errorf("%w: endpoint name exceeds %d bytes", ErrInvalidAppID, maxSocketPath)
	}
	return Endpoint{Name: name, Network: "unix", Address: address}, nil
}
