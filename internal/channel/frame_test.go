package channel

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"strings"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := writeFrame(&buf, map[string]string{"type": "health"}); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}

	// 4-byte little-endian length prefix.
	if got := binary.LittleEndian.Uint32(buf.Bytes()[:4]); int(got) != buf.Len()-4 {
		t.Fatalf("header length %d, body length %d", got, buf.Len()-4)
	}

	raw, err := readFrame(&buf)
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}

	var decoded struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if decoded.Type != "health" {
		t.Fatalf("unexpected type: %q", decoded.Type)
	}
}

func TestReadFrameCleanEOF(t *testing.T) {
	t.Parallel()

	if _, err := readFrame(strings.NewReader("")); err != io.EOF {
		t.Fatalf("empty stream should read as EOF, got %v", err)
	}

	// A zero-length frame also marks the end of the stream.
	if _, err := readFrame(bytes.NewReader([]byte{0, 0, 0, 0})); err != io.EOF {
		t.Fatalf("zero-length frame should read as EOF, got %v", err)
	}
}

func TestReadFrameRejectsOversizedHeader(t *testing.T) {
	t.Parallel()

	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], maxFrameSize+1)

	_, err := readFrame(bytes.NewReader(header[:]))
	if err == nil || err == io.EOF {
		t.Fatalf("expected oversize error, got %v", err)
	}
}

func TestReadFrameTruncatedBody(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], 100)
	buf.Write(header[:])
	buf.WriteString("short")

	if _, err := readFrame(&buf); err == nil {
		t.Fatalf("expected error for truncated body")
	}
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	payload := map[string]string{"data": strings.Repeat("x", maxFrameSize)}
	if err := writeFrame(&buf, payload); err == nil {
		t.Fatalf("expected oversize error")
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written on failure, got %d bytes", buf.Len())
	}
}
