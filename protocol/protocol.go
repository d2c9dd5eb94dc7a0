// Package protocol implements the binary framing of the rail-game server
// protocol. A request frame is <action:i32 LE><length:i32 LE><body>, a
// response frame is <status:i32 LE><length:i32 LE><body>. Bodies are UTF-8
// JSON; length may be zero.
package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Action identifies a request type on the wire.
type Action int32

const (
	Login   Action = 1
	Logout  Action = 2
	Move    Action = 3
	Upgrade Action = 4
	Turn    Action = 5
	Player  Action = 6
	Games   Action = 7
	Map     Action = 10
)

// String returns the action name as the server documentation spells it.
func (a Action) String() string {
	switch a {
	case Login:
		return "LOGIN"
	case Logout:
		return "LOGOUT"
	case Move:
		return "MOVE"
	case Upgrade:
		return "UPGRADE"
	case Turn:
		return "TURN"
	case Player:
		return "PLAYER"
	case Games:
		return "GAMES"
	case Map:
		return "MAP"
	default:
		return fmt.Sprintf("ACTION(%d)", int32(a))
	}
}

// Status is the result code carried in a response frame.
type Status int32

const (
	OK                  Status = 0
	BadCommand          Status = 1
	ResourceNotFound    Status = 2
	AccessDenied        Status = 3
	NotReady            Status = 4
	Timeout             Status = 5
	InternalServerError Status = 500
)

// String returns the status name as the server documentation spells it.
func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case BadCommand:
		return "BAD_COMMAND"
	case ResourceNotFound:
		return "RESOURCE_NOT_FOUND"
	case AccessDenied:
		return "ACCESS_DENIED"
	case NotReady:
		return "NOT_READY"
	case Timeout:
		return "TIMEOUT"
	case InternalServerError:
		return "INTERNAL_SERVER_ERROR"
	default:
		return fmt.Sprintf("STATUS(%d)", int32(s))
	}
}

// Map request layers.
const (
	LayerStatic      = 0
	LayerDynamic     = 1
	LayerCoordinates = 10
)

// headerSize is the fixed prefix of every frame: two little-endian int32s.
const headerSize = 8

// maxBodySize bounds a frame body so a corrupt length header cannot make the
// reader allocate an arbitrary amount of memory.
const maxBodySize = 64 << 20

// EncodeRequest encodes an action and an optional JSON body into a request
// frame. A nil or empty body encodes a zero length.
func EncodeRequest(action Action, body []byte) []byte {
	frame := make([]byte, headerSize+len(body))
	binary.LittleEndian.PutUint32(frame[0:4], uint32(action))
	binary.LittleEndian.PutUint32(frame[4:8], uint32(len(body)))
	copy(frame[headerSize:], body)
	return frame
}

// ReadRequest reads a single request frame from r. It is the inverse of
// EncodeRequest and exists for in-process test servers.
func ReadRequest(r io.Reader) (Action, []byte, error) {
	action, body, err := readFrame(r)
	return Action(action), body, err
}

// Response is a decoded response frame.
type Response struct {
	Status Status
	Body   []byte
}

// EncodeResponse encodes a status and body into a response frame. Like
// ReadRequest it exists for in-process test servers.
func EncodeResponse(status Status, body []byte) []byte {
	frame := make([]byte, headerSize+len(body))
	binary.LittleEndian.PutUint32(frame[0:4], uint32(status))
	binary.LittleEndian.PutUint32(frame[4:8], uint32(len(body)))
	copy(frame[headerSize:], body)
	return frame
}

// ReadResponse reads a single response frame from r. The body is read in full
// even when it spans multiple reads; a partial frame is never returned.
func ReadResponse(r io.Reader) (*Response, error) {
	status, body, err := readFrame(r)
	if err != nil {
		return nil, err
	}
	return &Response{Status: Status(status), Body: body}, nil
}

// ErrorMessage extracts the "error" field from a non-OK response body.
// It returns an empty string when the body is empty or not an error object.
func (r *Response) ErrorMessage() string {
	if len(r.Body) == 0 {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(r.Body, &payload); err != nil {
		return ""
	}
	return payload.Error
}

func readFrame(r io.Reader) (int32, []byte, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, fmt.Errorf("read frame header: %w", err)
	}
	code := int32(binary.LittleEndian.Uint32(header[0:4]))
	length := int32(binary.LittleEndian.Uint32(header[4:8]))
	if length < 0 || length > maxBodySize {
		return 0, nil, fmt.Errorf("invalid frame length %d", length)
	}
	if length == 0 {
		return code, nil, nil
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, fmt.Errorf("read frame body: %w", err)
	}
	return code, body, nil
}
