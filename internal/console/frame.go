package console

import (
	"fmt"
	"io"
)

// Frame layout constants for the subset this client speaks.
// See RFC 6455 section 5.2.
const (
	// finBinary is the first header byte of every outbound frame:
	// FIN set, no RSV bits, opcode 0x2 (binary).
	finBinary = 0x82

	// maskBit marks the payload as masked in the second header byte.
	maskBit = 0x80

	// lenBits extracts the 7-bit payload length from the second header byte.
	lenBits = 0x7f

	// MaxPayload is the largest payload this client can frame. Larger
	// payloads would need the extended length encoding, which the console
	// negotiation never uses.
	MaxPayload = 125
)

// frameMask is the masking key applied to every outbound payload. The
// protocol obliges clients to mask; nothing here depends on the key being
// unpredictable, so a fixed key keeps the wire format reproducible in tests.
var frameMask = [4]byte{7, 2, 1, 9}

// encodeFrame returns the full wire encoding of a single masked binary frame:
// two header bytes, the four mask key bytes, then the XOR-masked payload.
func encodeFrame(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}

	frame := make([]byte, 0, 2+len(frameMask)+len(payload))
	frame = append(frame, finBinary, maskBit|byte(len(payload)))
	frame = append(frame, frameMask[:]...)
	for i, b := range payload {
		frame = append(frame, b^frameMask[i%4])
	}
	return frame, nil
}

// readFrame reads frames from r until one carries data or the stream ends.
//
// Zero-length frames (keep-alives during negotiation) are consumed and
// skipped. A clean end of stream before a header is reported as io.EOF; a
// stream that dies inside a header or payload is an ErrUnexpectedEOF-style
// transport error. The payload is returned as read, unmasked: servers do not
// mask, and this client does not check the mask bit.
func readFrame(r io.Reader) ([]byte, error) {
	var header [2]byte
	for {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if err == io.EOF {
				// Peer closed between frames: normal session end.
				return nil, io.EOF
			}
			return nil, fmt.Errorf("console: read frame header: %w", err)
		}

		// Only the low 7 bits of the second header byte carry the
		// length. Values 126/127 would announce an extended length,
		// which this subset does not decode.
		n := int(header[1] & lenBits)
		if n == 0 {
			continue
		}

		payload := make([]byte, n)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("console: read frame payload: %w", err)
		}
		return payload, nil
	}
}

// unmask XORs p in place with the fixed frame mask. Masking is an
// involution, so the same operation encodes and decodes.
func unmask(p []byte) {
	for i := range p {
		p[i] ^= frameMask[i%4]
	}
}
