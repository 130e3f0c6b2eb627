package server

import "errors"

// errNoServersAreCreated is returned by NewServer when no listen address is
// configured, so no transport can be initialized. Treated as a fatal
// misconfiguration at startup.
var errNoServersAreCreated = errors.New("no servers are created")
