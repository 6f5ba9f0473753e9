package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func TestReadWriteRoundTrip(t *testing.T) {
	payload := []byte("node.info payload")
	var buf bytes.Buffer
	if err := Write(&buf, payload, DefaultLimits()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	got, err := Read(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: %q", got)
	}
}

func TestReadAccumulatesPartialChunks(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	var buf bytes.Buffer
	if err := Write(&buf, payload, DefaultLimits()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	// Deliver one byte at a time; the reader must suspend, not error.
	got, err := Read(iotest{r: &buf}, DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: %v", got)
	}
}

func TestReadCleanEOFBeforeHeader(t *testing.T) {
	_, err := Read(bytes.NewReader(nil), DefaultLimits())
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReadTornFrame(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, []byte("abcdef"), DefaultLimits()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	torn := buf.Bytes()[:buf.Len()-2]
	_, err := Read(bytes.NewReader(torn), DefaultLimits())
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestReadSkipsOversizedFrameAndResyncs(t *testing.T) {
	limits := Limits{MaxPayloadBytes: 8}
	var buf bytes.Buffer
	buf.Write(binary.LittleEndian.AppendUint32(nil, 9))
	buf.Write([]byte("too-large"))
	if err := Write(&buf, []byte("ok"), limits); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	_, err := Read(&buf, limits)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	// The oversized body was drained; the next frame reads cleanly.
	got, err := Read(&buf, limits)
	if err != nil {
		t.Fatalf("read after oversize: %v", err)
	}
	if string(got) != "ok" {
		t.Fatalf("resync payload = %q", got)
	}
}

func TestWriteRejectsEmptyPayload(t *testing.T) {
	if err := Write(io.Discard, nil, DefaultLimits()); !errors.Is(err, ErrEmptyFrame) {
		t.Fatalf("expected ErrEmptyFrame, got %v", err)
	}
}

// iotest yields at most one byte per Read call.
type iotest struct {
	r io.Reader
}

func (s iotest) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return s.r.Read(p)
}
