package protocol

import (
	"bytes"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRequestHeader(t *testing.T) {
	body := []byte(`{"line_idx":7,"speed":-1,"train_idx":2}`)
	frame := EncodeRequest(Move, body)

	require.Len(t, frame, 8+len(body))
	assert.Equal(t, []byte{0x03, 0x00, 0x00, 0x00}, frame[0:4])
	assert.Equal(t, []byte{byte(len(body)), 0x00, 0x00, 0x00}, frame[4:8])
	assert.Equal(t, body, frame[8:])
}

func TestEncodeRequestEmptyBody(t *testing.T) {
	frame := EncodeRequest(Turn, nil)
	require.Len(t, frame, 8)
	assert.Equal(t, []byte{0x05, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, frame)
}

func TestRequestRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		action Action
		body   []byte
	}{
		{"move", Move, []byte(`{"line_idx":7,"speed":-1,"train_idx":2}`)},
		{"login", Login, []byte(`{"name":"player"}`)},
		{"turn no body", Turn, nil},
		{"map", Map, []byte(`{"layer":0}`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frame := EncodeRequest(tc.action, tc.body)
			action, body, err := ReadRequest(bytes.NewReader(frame))
			require.NoError(t, err)
			assert.Equal(t, tc.action, action)
			assert.Equal(t, tc.body, body)
		})
	}
}

func TestResponseRoundTrip(t *testing.T) {
	body := []byte(`{"idx":1,"name":"map"}`)
	frame := EncodeResponse(OK, body)

	resp, err := ReadResponse(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, OK, resp.Status)
	assert.Equal(t, body, resp.Body)
}

// The reader must assemble a body that arrives one byte at a time instead of
// parsing a partial frame.
func TestReadResponseFragmented(t *testing.T) {
	body := []byte(`{"posts":[],"trains":[]}`)
	frame := EncodeResponse(OK, body)

	resp, err := ReadResponse(iotest.OneByteReader(bytes.NewReader(frame)))
	require.NoError(t, err)
	assert.Equal(t, body, resp.Body)
}

func TestReadResponseTruncated(t *testing.T) {
	frame := EncodeResponse(OK, []byte(`{"idx":1}`))
	_, err := ReadResponse(bytes.NewReader(frame[:len(frame)-3]))
	require.Error(t, err)
}

func TestErrorMessage(t *testing.T) {
	resp := &Response{Status: AccessDenied, Body: []byte(`{"error":"wrong password"}`)}
	assert.Equal(t, "wrong password", resp.ErrorMessage())

	empty := &Response{Status: Timeout}
	assert.Equal(t, "", empty.ErrorMessage())
}

func TestStatusNames(t *testing.T) {
	names := map[Status]string{
		OK:                  "OK",
		BadCommand:          "BAD_COMMAND",
		ResourceNotFound:    "RESOURCE_NOT_FOUND",
		AccessDenied:        "ACCESS_DENIED",
		NotReady:            "NOT_READY",
		Timeout:             "TIMEOUT",
		InternalServerError: "INTERNAL_SERVER_ERROR",
	}
	for status, name := range names {
		assert.Equal(t, name, status.String())
	}
}
