// Package daemon drives a long-lived worker process that executes tool
// invocations on behalf of the task graph.
//
// The worker announces the TCP port of its loopback listener on the first
// line of stdout. The Client connects to it and sends length-prefixed
// request records; the worker answers each with a completion record
// carrying only the request id and a success flag. Many requests may be in
// flight at once and the worker may finish them in any order.
//
// Everything the worker prints after the port line is forwarded to the
// client's logger.
package daemon
