// Package instance decides whether this process becomes the Primary or hands
// its request to one that is already running.
//
// Coordinator.Decide dials the named endpoint first. A live Primary receives
// the request and this process exits; otherwise the endpoint is claimed and the
// bound listener is returned for the caller to serve. On Linux endpoints live
// in the abstract socket namespace, which the kernel releases with the
// process. Elsewhere they are socket files guarded by an advisory lock file.
package instance
