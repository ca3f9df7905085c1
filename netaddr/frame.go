package netaddr

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
)

// ConsoleMode requests a terminal mode change from the remote client, per
// spec.md §6 CommandReply.con_mode.
type ConsoleMode int

const (
	// Cooked is the default line-buffered terminal mode.
	Cooked ConsoleMode = iota
	// Raw delivers keystrokes to the remote process unbuffered.
	Raw
)

// ScreenSize is the optional terminal geometry a client may report.
type ScreenSize struct {
	SizeX int32 `json:"size_x"`
	SizeY int32 `json:"size_y"`
}

// CommandQuery is the client→server frame body.
type CommandQuery struct {
	Command    []byte      `json:"command"`
	ScreenData *ScreenSize `json:"screen_data,omitempty"`
}

// CommandReply is the server→client frame body.
type CommandReply struct {
	Reply     []byte      `json:"reply"`
	ConMode   ConsoleMode `json:"con_mode"`
	Configure bool        `json:"configure"`
}

// WriteFrame writes a 4-byte little-endian length header followed by the
// JSON-encoded body, matching spec.md §6's framing. A zero-length body is
// refused by the caller's protocol logic, not by WriteFrame itself.
func WriteFrame(w io.Writer, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal frame body: %w", err)
	}
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(data)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write frame body: %w", err)
	}
	return nil
}

// ReadFrameLength reads the 4-byte little-endian length header.
func ReadFrameLength(r io.Reader) (uint32, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, fmt.Errorf("read frame header: %w", err)
	}
	return binary.LittleEndian.Uint32(header[:]), nil
}

// FrameDebugHash returns a short debug hash of a frame body, used for
// logging parse failures without echoing potentially sensitive payloads
// (spec.md §6: "Parse failure is logged with a debug hash and ignored").
func FrameDebugHash(body []byte) uint32 {
	h := fnv.New32a()
	h.Write(body)
	return h.Sum32()
}

// DecodeCommandQuery parses a CommandQuery body. A zero-length body is
// logged by the caller and ignored, per spec.md §6; this function simply
// reports the empty case so callers can act on it.
func DecodeCommandQuery(body []byte) (CommandQuery, bool, error) {
	if len(body) == 0 {
		return CommandQuery{}, true, nil
	}
	var q CommandQuery
	if err := json.Unmarshal(body, &q); err != nil {
		return CommandQuery{}, false, fmt.Errorf("decode command query (hash %x): %w", FrameDebugHash(body), err)
	}
	return q, false, nil
}

// DecodeCommandReply parses a CommandReply body.
func DecodeCommandReply(body []byte) (CommandReply, bool, error) {
	if len(body) == 0 {
		return CommandReply{}, true, nil
	}
	var r CommandReply
	if err := json.Unmarshal(body, &r); err != nil {
		return CommandReply{}, false, fmt.Errorf("decode command reply (hash %x): %w", FrameDebugHash(body), err)
	}
	return r, false, nil
}
