package streaming

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws/protocol/eventstream"
)

// EventStreamFrame is one decoded AWS Event Stream message payload. The
// {"bytes": "<base64>"} envelope that Bedrock's InvokeModel stream wraps
// each provider-native event in is removed; ConverseStream payloads carry
// no envelope and are kept as they arrive.
type EventStreamFrame struct {
	Payload []byte
}

// EventStreamParser reassembles AWS Event Stream binary frames (total
// length, headers length, prelude CRC, header blocks, payload, message
// CRC) from arbitrary byte fragments, verifying each message's CRCs via
// the decoder from aws-sdk-go-v2. It holds at most one incomplete frame
// between Feed calls.
type EventStreamParser struct {
	carry bytes.Buffer
}

// Feed appends chunk to the carry buffer and decodes as many complete,
// CRC-valid messages as are available. A CRC failure or malformed frame
// returns an error and the parser must not be fed further.
func (p *EventStreamParser) Feed(chunk []byte) ([]EventStreamFrame, error) {
	p.carry.Write(chunk)
	var frames []EventStreamFrame
	for {
		data := p.carry.Bytes()
		if len(data) < 4 {
			break
		}
		totalLen := int(bigEndianUint32(data))
		if totalLen <= 0 || len(data) < totalLen {
			break // incomplete frame, wait for more bytes
		}
		msgBytes := data[:totalLen]
		dec := eventstream.NewDecoder()
		msg, err := dec.Decode(bytes.NewReader(msgBytes), nil)
		if err != nil {
			return frames, fmt.Errorf("malformed event stream frame: %w", err)
		}
		frame, err := decodePayload(msg.Payload)
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)

		remaining := append([]byte(nil), data[totalLen:]...)
		p.carry.Reset()
		p.carry.Write(remaining)
	}
	return frames, nil
}

func bigEndianUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// decodePayload unwraps the {"bytes": "<base64>"} envelope Bedrock's
// InvokeModel stream puts around each provider-native event body; a
// payload without it (a ConverseStream event) is passed through.
func decodePayload(payload []byte) (EventStreamFrame, error) {
	var envelope struct {
		Bytes string `json:"bytes"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		// Some event types (e.g. exception frames) are not base64 wrapped;
		// pass the raw payload through.
		return EventStreamFrame{Payload: payload}, nil
	}
	if envelope.Bytes == "" {
		return EventStreamFrame{Payload: payload}, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(envelope.Bytes)
	if err != nil {
		return EventStreamFrame{}, fmt.Errorf("invalid base64 in event stream payload: %w", err)
	}
	return EventStreamFrame{Payload: decoded}, nil
}
