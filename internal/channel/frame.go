// Package channel implements the extension messaging transport: 4-byte
// little-endian length-prefixed JSON frames, the wire format browsers use
// for native-messaging hosts.
package channel

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// maxFrameSize bounds a single message; the browser side enforces 1MB for
// host-bound frames.
const maxFrameSize = 1 << 20

// writeFrame marshals payload and writes one length-prefixed frame.
func writeFrame(w io.Writer, payload any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	if len(encoded) > maxFrameSize {
		return fmt.Errorf("frame too large: %d bytes", len(encoded))
	}

	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(encoded)))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(encoded); err != nil {
		return fmt.Errorf("write frame body: %w", err)
	}
	return nil
}

// readFrame reads one frame. A clean end of stream returns io.EOF.
func readFrame(r io.Reader) (json.RawMessage, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	length := binary.LittleEndian.Uint32(header[:])
	if length == 0 {
		return nil, io.EOF
	}
	if length > maxFrameSize {
		return nil, fmt.Errorf("frame too large: %d bytes", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read frame body: %w", err)
	}
	return body, nil
}
