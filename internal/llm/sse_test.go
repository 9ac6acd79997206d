package llm

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r *SSEReader) []string {
	t.Helper()
	var out []string
	for {
		d, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, d)
	}
}

func chunk(content string) string {
	return `data: {"choices":[{"delta":{"content":"` + content + `"}}]}`
}

func TestSSEReader_Deltas(t *testing.T) {
	body := strings.Join([]string{
		": keep-alive",
		"",
		chunk("Hello"),
		"event: ping",
		chunk(""),
		chunk(" world"),
		"data: [DONE]",
		chunk("ignored"),
	}, "\n")

	assert.Equal(t, []string{"Hello", " world"}, readAll(t, NewSSEReader(strings.NewReader(body))))
}

func TestSSEReader_CRLFAndTrailingLine(t *testing.T) {
	body := chunk("a") + "\r\n\r\n" + chunk("b")
	assert.Equal(t, []string{"a", "b"}, readAll(t, NewSSEReader(strings.NewReader(body))))
}

func TestSSEReader_SkipsMalformedPayloads(t *testing.T) {
	body := strings.Join([]string{
		`data: {"choices":[{"delta":{"content":`,
		`data: {"choices":[]}`,
		`data:no-space`,
		chunk("ok"),
	}, "\n") + "\n"
	assert.Equal(t, []string{"ok"}, readAll(t, NewSSEReader(strings.NewReader(body))))
}

func TestSSEReader_EOFIsSticky(t *testing.T) {
	r := NewSSEReader(strings.NewReader("data: [DONE]\n"))
	_, err := r.Next()
	assert.ErrorIs(t, err, io.EOF)
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestSSEReader_ReadError(t *testing.T) {
	_, err := NewSSEReader(failingReader{}).Next()
	assert.EqualError(t, err, "connection reset")
}
