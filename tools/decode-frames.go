//go:build ignore

// decode-frames walks a captured console WebSocket byte stream and prints
// one block per frame: header fields, mask key and the unmasked payload
// as a hex dump.
//
// Capture the stream after the HTTP upgrade (wireshark: follow TCP
// stream, save as raw) and run:
//
//	go run tools/decode-frames.go capture.bin
//	go run tools/decode-frames.go -hex capture.hex
package main

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

func main() {
	args := os.Args[1:]
	hexInput := false
	if len(args) > 0 && args[0] == "-hex" {
		hexInput = true
		args = args[1:]
	}
	if len(args) != 1 {
		fmt.Println("Usage: decode-frames [-hex] <capture-file>")
		fmt.Println("Example: decode-frames console-session.bin")
		os.Exit(1)
	}

	filename := args[0]
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	if hexInput {
		cleaned := strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
				return -1
			}
			return r
		}, string(data))
		data, err = hex.DecodeString(cleaned)
		if err != nil {
			fmt.Printf("Error decoding hex input: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("=== Console Frame Decoder ===\n")
	fmt.Printf("File: %s\n", filename)
	fmt.Printf("Bytes: %d\n\n", len(data))

	frames := 0
	payloadTotal := 0
	offset := 0
	for offset < len(data) {
		n, payloadLen := decodeFrame(data[offset:], frames+1, offset)
		if n == 0 {
			fmt.Printf("Truncated frame at offset %d, %d bytes left:\n", offset, len(data)-offset)
			hexDump(data[offset:])
			break
		}
		frames++
		payloadTotal += payloadLen
		offset += n
	}

	fmt.Printf("Decoded %d frames, %d payload bytes\n", frames, payloadTotal)
}

var opcodeNames = map[byte]string{
	0x0: "continuation",
	0x1: "text",
	0x2: "binary",
	0x8: "close",
	0x9: "ping",
	0xa: "pong",
}

// decodeFrame prints one frame starting at data[0] and returns how many
// bytes it consumed, or 0 if the buffer ends mid-frame.
func decodeFrame(data []byte, num, offset int) (consumed, payloadLen int) {
	if len(data) < 2 {
		return 0, 0
	}

	b0, b1 := data[0], data[1]
	fin := b0&0x80 != 0
	opcode := b0 & 0x0f
	masked := b1&0x80 != 0
	length := int(b1 & 0x7f)

	pos := 2
	switch length {
	case 126:
		if len(data) < pos+2 {
			return 0, 0
		}
		length = int(binary.BigEndian.Uint16(data[pos:]))
		pos += 2
	case 127:
		if len(data) < pos+8 {
			return 0, 0
		}
		length = int(binary.BigEndian.Uint64(data[pos:]))
		pos += 8
	}

	var mask []byte
	if masked {
		if len(data) < pos+4 {
			return 0, 0
		}
		mask = data[pos : pos+4]
		pos += 4
	}

	if len(data) < pos+length {
		return 0, 0
	}
	payload := make([]byte, length)
	copy(payload, data[pos:pos+length])
	if masked {
		for i := range payload {
			payload[i] ^= mask[i%4]
		}
	}

	name := opcodeNames[opcode]
	if name == "" {
		name = "reserved"
	}

	fmt.Printf("========================================\n")
	fmt.Printf("Frame #%d - offset %d - %s\n", num, offset, name)
	fmt.Printf("========================================\n")
	fmt.Printf("FIN:     %v\n", fin)
	fmt.Printf("Opcode:  0x%x (%s)\n", opcode, name)
	fmt.Printf("Masked:  %v", masked)
	if masked {
		fmt.Printf("  key %02x %02x %02x %02x", mask[0], mask[1], mask[2], mask[3])
	}
	fmt.Println()
	fmt.Printf("Length:  %d\n", length)

	if opcode == 0x8 && length >= 2 {
		code := binary.BigEndian.Uint16(payload)
		fmt.Printf("Close:   code %d, reason %q\n", code, string(payload[2:]))
	}

	if length > 0 {
		fmt.Println("\nPayload (unmasked):")
		hexDump(payload)
	}
	fmt.Println()

	return pos + length, length
}

func hexDump(payload []byte) {
	for i := 0; i < len(payload); i += 16 {
		fmt.Printf("%04x  ", i)

		for j := 0; j < 16; j++ {
			if i+j < len(payload) {
				fmt.Printf("%02x ", payload[i+j])
			} else {
				fmt.Print("   ")
			}
			if j == 7 {
				fmt.Print(" ")
			}
		}

		fmt.Print(" |")
		for j := 0; j < 16 && i+j < len(payload); j++ {
			b := payload[i+j]
			if b >= 32 && b <= 126 {
				fmt.Printf("%c", b)
			} else {
				fmt.Print(".")
			}
		}
		fmt.Println("|")
	}
}
