// Package input turns raw terminal bytes into viewer commands.
package input

import (
	"bufio"
)

// Input is what was pressed since the previous read.
type Input struct {
	Quit    bool
	Pause   bool
	Reset   bool
	Closed  bool   // The underlying reader ended
	Pressed []byte // Every byte received, for activity tracking
}

// Stream delivers input bytes read on a background goroutine.
type Stream struct {
	ch     chan byte
	closed bool
}

// StartStream spawns a goroutine that reads from r until it fails.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{ch: make(chan byte, 128)}
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// ReadInput drains all available bytes without blocking.
func ReadInput(s *Stream) Input {
	var in Input
	for !s.closed {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break
			}
			in.Pressed = append(in.Pressed, b)
		default:
			return parse(in)
		}
	}
	in.Closed = true
	return parse(in)
}

// parse maps bytes to actions. Escape sequences (arrow keys) are skipped whole.
func parse(in Input) Input {
	buf := in.Pressed
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if b == '\x1b' && i+2 < len(buf) && buf[i+1] == '[' {
			i += 2
			continue
		}
		switch b {
		case 'q', 'Q', '\x03':
			in.Quit = true
		case ' ', 'p', 'P':
			in.Pause = true
		case 'r', 'R':
			in.Reset = true
		}
	}
	return in
}
