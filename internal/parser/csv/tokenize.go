package csv

import "strings"

// lineScanner accumulates chunk bytes and yields complete logical lines.
// A newline only terminates a line outside quotes, so a quoted field may
// span raw lines and any chunk boundary. Quote state and the resume
// position carry across append calls; appended bytes are scanned once.
type lineScanner struct {
	buf      []byte
	pos      int
	inQuotes bool
}

func (s *lineScanner) append(chunk []byte) {
	s.buf = append(s.buf, chunk...)
}

// next returns the next complete logical line without its terminator, or
// ok=false when the buffer holds only a partial line.
func (s *lineScanner) next() (line string, ok bool) {
	for i := s.pos; i < len(s.buf); i++ {
		switch s.buf[i] {
		case '"':
			s.inQuotes = !s.inQuotes
		case '\n':
			if s.inQuotes {
				continue
			}
			line = strings.TrimSuffix(string(s.buf[:i]), "\r")
			s.buf = s.buf[i+1:]
			s.pos = 0
			return line, true
		}
	}
	s.pos = len(s.buf)
	return "", false
}

// rest drains whatever remains as a final, unterminated line.
func (s *lineScanner) rest() (line string, ok bool) {
	if len(s.buf) == 0 {
		return "", false
	}
	line = strings.TrimSuffix(string(s.buf), "\r")
	s.buf = nil
	s.pos = 0
	s.inQuotes = false
	return line, true
}

// buffered reports how many carry-over bytes are currently held.
func (s *lineScanner) buffered() int { return len(s.buf) }

// splitFields tokenizes one logical line. A quote toggles in-quotes state,
// a delimiter inside quotes is literal, a doubled quote inside quotes is
// one literal quote, and boundary quotes are stripped from the token.
func splitFields(line string, comma rune) []string {
	runes := []rune(line)
	fields := make([]string, 0, 8)
	var b strings.Builder
	inQuotes := false

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				b.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case r == comma && !inQuotes:
			fields = append(fields, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	return append(fields, b.String())
}
