// Package streaming implements the incremental push parser described for
// the streaming engine: it accepts byte fragments from an upstream
// provider and emits a lazy sequence of logical events, never awaiting.
package streaming

import "bytes"

// SSEFrame is one fully reassembled Server-Sent Event.
type SSEFrame struct {
	Event string // value of an "event:" line, if any
	ID    string // value of an "id:" line, if any
	Data  []byte // concatenation of "data:" line payloads, joined by \n
}

// SSEParser reassembles SSE frames from arbitrary byte fragments. It holds
// an internal carry buffer of at most one incomplete frame; callers feed
// bytes via Feed and drain completed frames from the returned slice.
//
// SSEParser is not goroutine-safe; it is owned exclusively by one
// streaming session.
type SSEParser struct {
	carry bytes.Buffer
	done  bool
}

// Feed appends chunk to the carry buffer and returns zero or more fully
// reassembled frames. Partial lines and partial final frames remain in the
// carry buffer for the next call.
func (p *SSEParser) Feed(chunk []byte) []SSEFrame {
	if p.done {
		return nil
	}
	p.carry.Write(chunk)
	var frames []SSEFrame
	for {
		raw := p.carry.Bytes()
		idx := bytes.Index(raw, []byte("\n\n"))
		if idx < 0 {
			// Also accept \r\n\r\n terminated events.
			idx = bytes.Index(raw, []byte("\r\n\r\n"))
			if idx < 0 {
				break
			}
		}
		end := idx
		// Find actual separator length by re-scanning from idx.
		sep := 2
		if idx+1 < len(raw) && raw[idx] == '\r' {
			sep = 4
		}
		block := raw[:end]
		frame, ok := parseSSEBlock(block)
		remaining := append([]byte(nil), raw[end+sep:]...)
		p.carry.Reset()
		p.carry.Write(remaining)
		if ok {
			frames = append(frames, frame)
		}
	}
	return frames
}

func parseSSEBlock(block []byte) (SSEFrame, bool) {
	var frame SSEFrame
	var dataLines [][]byte
	for _, line := range bytes.Split(block, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		switch {
		case len(line) == 0:
			continue
		case line[0] == ':':
			continue // comment line
		case bytes.HasPrefix(line, []byte("data:")):
			dataLines = append(dataLines, trimOneLeadingSpace(line[len("data:"):]))
		case bytes.HasPrefix(line, []byte("event:")):
			frame.Event = string(trimOneLeadingSpace(line[len("event:"):]))
		case bytes.HasPrefix(line, []byte("id:")):
			frame.ID = string(trimOneLeadingSpace(line[len("id:"):]))
		}
	}
	if len(dataLines) == 0 {
		return SSEFrame{}, false
	}
	frame.Data = bytes.Join(dataLines, []byte("\n"))
	return frame, true
}

func trimOneLeadingSpace(b []byte) []byte {
	if len(b) > 0 && b[0] == ' ' {
		return b[1:]
	}
	return b
}

// EncodeSSE renders a single SSE data frame.
func EncodeSSE(data []byte) []byte {
	out := make([]byte, 0, len(data)+8)
	out = append(out, []byte("data: ")...)
	out = append(out, data...)
	out = append(out, '\n', '\n')
	return out
}

// EncodeSSEDone renders the OpenAI-style terminal SSE frame.
func EncodeSSEDone() []byte {
	return []byte("data: [DONE]\n\n")
}
