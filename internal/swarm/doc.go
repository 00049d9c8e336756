// Package swarm implements the client for the Swarm real-time betting data service.
//
// A single websocket connection carries many concurrent request/response exchanges:
//   - Every request is tagged with a random correlation id ("rid")
//   - Replies arrive out of order and are matched back to their caller by rid
//   - Each request has its own deadline; a dropped connection fails every outstanding request
//   - A session is bootstrapped once per connection with "request_session"
//
// Connect attempts are coalesced: concurrent callers share exactly one dial and bootstrap.
// The client never reconnects in the background; the next caller that needs a connection
// triggers a new connect.
package swarm
