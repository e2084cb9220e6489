// Package proxy implements a websockify-style console proxy used as a local
// stand-in for the cloud's serial console endpoint.
//
// The server upgrades HTTP requests on /websockify to WebSocket with the
// "binary" subprotocol, authenticates the session token and then bridges
// binary frames to a backend. Two backends exist: a built-in fake serial
// port that greets with a banner and echoes input (the default), and a raw
// TCP bridge selected by configuring a backend address.
//
// Console clients carry their token in the URL query; reduced clients that
// cannot send arbitrary headers smuggle the query string through the Cookie
// header instead, where "token=<value>" happens to parse as a cookie. The
// proxy accepts both forms.
//
// Outbound frames are capped at 125 payload bytes so clients that only
// parse the short length form of the framing can read everything the proxy
// sends. Larger writes are split across consecutive frames.
package proxy
