package llm

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// SSEEvent represents a single Server-Sent Event
type SSEEvent struct {
	Event string // Event type, empty if not specified
	Data  []byte // Concatenated data lines
}

// SSEParser parses Server-Sent Event streams
type SSEParser struct {
	reader    *bufio.Reader
	buffer    *bytes.Buffer
	eventType string
}

// NewSSEParser creates a new SSE parser
func NewSSEParser(reader io.Reader) *SSEParser {
	return &SSEParser{
		reader: bufio.NewReader(reader),
		buffer: &bytes.Buffer{},
	}
}

// NextEvent reads the next SSE event from the stream.
// Returns io.EOF when the stream is complete and io.ErrUnexpectedEOF
// when the stream ends mid-event.
func (p *SSEParser) NextEvent() (SSEEvent, error) {
	for {
		line, err := p.reader.ReadBytes('\n')
		if err != nil {
			if p.buffer.Len() > 0 || p.eventType != "" {
				return SSEEvent{}, fmt.Errorf("stream ended mid-event: %w", io.ErrUnexpectedEOF)
			}
			return SSEEvent{}, err
		}

		line = bytes.TrimSuffix(line, []byte{'\n'})
		line = bytes.TrimSuffix(line, []byte{'\r'})

		// Blank line terminates the current event
		if len(line) == 0 {
			if p.buffer.Len() > 0 || p.eventType != "" {
				event := SSEEvent{Event: p.eventType, Data: p.buffer.Bytes()}
				p.buffer = &bytes.Buffer{}
				p.eventType = ""
				return event, nil
			}
			continue
		}

		// Comment lines start with ':'
		if line[0] == ':' {
			continue
		}

		idx := bytes.IndexByte(line, ':')
		if idx == -1 {
			continue
		}

		field := string(line[:idx])
		value := string(line[idx+1:])
		if len(value) > 0 && value[0] == ' ' {
			value = value[1:]
		}

		switch field {
		case "event":
			p.eventType = value
		case "data":
			if p.buffer.Len() > 0 {
				p.buffer.WriteByte('\n')
			}
			p.buffer.WriteString(value)
		}
	}
}
