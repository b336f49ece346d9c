package chat

import (
	"bytes"
	"encoding/json"
)

const doneMarker = "[DONE]"

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Decoder turns an OpenAI-style event stream into text deltas. Bytes after
// the last newline stay buffered until the next Feed or Flush, so the output
// does not depend on how the stream was chunked.
type Decoder struct {
	buffer []byte
	done   bool
}

// Feed consumes chunk and returns the deltas of every complete line in it.
// done reports that the [DONE] marker was seen; later input is ignored.
func (d *Decoder) Feed(chunk []byte) (deltas []string, done bool) {
	if d.done {
		return nil, true
	}
	d.buffer = append(d.buffer, chunk...)

	for {
		newline := bytes.IndexByte(d.buffer, '\n')
		if newline < 0 {
			break
		}
		line := d.buffer[:newline]
		d.buffer = d.buffer[newline+1:]

		delta, ok, finished := decodeLine(line)
		if finished {
			d.finish()
			return deltas, true
		}
		if ok {
			deltas = append(deltas, delta)
		}
	}

	if len(d.buffer) == 0 {
		d.buffer = nil
	} else {
		d.buffer = append([]byte(nil), d.buffer...)
	}
	return deltas, false
}

// Flush decodes the unterminated trailing fragment at end of stream.
func (d *Decoder) Flush() (deltas []string, done bool) {
	if d.done {
		return nil, true
	}
	rest := d.buffer
	d.buffer = nil
	for _, line := range bytes.Split(rest, []byte{'\n'}) {
		delta, ok, finished := decodeLine(line)
		if finished {
			d.finish()
			return deltas, true
		}
		if ok {
			deltas = append(deltas, delta)
		}
	}
	return deltas, false
}

func (d *Decoder) Done() bool {
	return d.done
}

func (d *Decoder) finish() {
	d.done = true
	d.buffer = nil
}

func decodeLine(line []byte) (delta string, ok bool, done bool) {
	line = bytes.TrimSuffix(line, []byte{'\r'})
	if len(bytes.TrimSpace(line)) == 0 || line[0] == ':' {
		return "", false, false
	}
	payload, found := bytes.CutPrefix(line, []byte("data:"))
	if !found {
		return "", false, false
	}
	payload = bytes.TrimSpace(payload)
	if string(payload) == doneMarker {
		return "", false, true
	}

	var chunk streamChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return "", false, false
	}
	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
		return "", false, false
	}
	return chunk.Choices[0].Delta.Content, true, false
}
