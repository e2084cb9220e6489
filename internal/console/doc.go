// Package console implements a minimal WebSocket client for compute serial
// console sessions.
//
// Compute services expose interactive guest consoles through a websockify
// proxy: an HTTP endpoint that upgrades the connection to WebSocket and then
// relays raw console bytes as binary frames. This package speaks exactly the
// subset of RFC 6455 that the negotiation needs, directly over a TCP socket,
// so that tests observe and control every byte on the wire. It is not a
// general-purpose WebSocket client.
//
// # Supported subset
//
// Outbound frames are always single binary frames (FIN set, opcode 0x2) with
// a masked payload of at most 125 bytes. Inbound frames are assumed to be
// unmasked single frames with 7-bit lengths; zero-length frames are skipped
// transparently. Extended payload lengths (length byte 126/127),
// continuation frames, ping/pong, compression, and masked server frames are
// all out of scope and will misparse if a peer sends them.
//
// # Handshake
//
// Dial connects to the URL's host and port, requests the fixed /websockify
// path, and passes the URL's query string (the one-time console token) as a
// Cookie header. The response is accumulated until the header terminator
// CRLFCRLF and kept verbatim for diagnostics (HandshakeResponse). The status
// line and Sec-WebSocket-Accept header are deliberately not verified: any
// response that reaches the header terminator counts as an upgrade. Proxies
// under test have accepted this since the suite was written, and verifying
// would change which failures the checks can detect.
//
// # Sessions
//
//	client, err := console.Dial(consoleURL, console.WithTimeout(10*time.Second))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	if err := client.SendFrame([]byte("\r\n")); err != nil {
//	    return err
//	}
//	out, err := client.ReceiveFrame()
//	if err == io.EOF {
//	    // peer ended the session
//	}
//
// ReceiveFrame reports a peer-initiated close as io.EOF. That is the normal
// end of a console session, not a failure; transport faults surface as other
// errors.
//
// # Blocking and timeouts
//
// All socket operations block. Without WithTimeout there is no I/O deadline
// at all, and a silent peer blocks the caller until the surrounding test or
// context gives up. That is the suite's historical behavior; WithTimeout arms
// a deadline per Dial/SendFrame/ReceiveFrame call for callers that want one.
//
// A Client owns one TCP connection, is not safe for concurrent use, and does
// not reconnect.
package console
