package llm

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// SSEReader reads the content deltas of a chat completion event stream.
// Lines may end in LF or CRLF. Blank lines, ':' comments and fields other
// than "data: " are skipped, as are payloads that do not decode. "[DONE]"
// ends the stream; a final line without a newline is still read.
type SSEReader struct {
	r    *bufio.Reader
	done bool
}

func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{r: bufio.NewReader(r)}
}

// Next returns the next non-empty delta, or io.EOF when the stream ends.
func (s *SSEReader) Next() (string, error) {
	for !s.done {
		line, err := s.r.ReadString('\n')
		if err == io.EOF {
			s.done = true
		} else if err != nil {
			return "", err
		}

		delta, end := parseSSELine(line)
		if end {
			s.done = true
			break
		}
		if delta != "" {
			return delta, nil
		}
	}
	return "", io.EOF
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func parseSSELine(line string) (delta string, end bool) {
	line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, ":") {
		return "", false
	}
	payload, ok := strings.CutPrefix(line, "data: ")
	if !ok {
		return "", false
	}
	payload = strings.TrimSpace(payload)
	if payload == "[DONE]" {
		return "", true
	}
	var chunk streamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil || len(chunk.Choices) == 0 {
		return "", false
	}
	return chunk.Choices[0].Delta.Content, false
}
