package markdown

import "strings"

// Block delimits a generated region that is rewritten in place while the
// surrounding hand-written text is kept.
type Block struct {
	Start string
	End   string
}

func (b Block) Replace(body, generated string) string {
	start := strings.Index(body, b.Start)
	end := strings.Index(body, b.End)
	block := b.Start + "\n" + generated + "\n" + b.End

	if start >= 0 && end > start {
		return body[:start] + block + body[end+len(b.End):]
	}
	if strings.TrimSpace(body) == "" {
		return block + "\n"
	}
	if strings.HasSuffix(body, "\n") {
		return body + "\n" + block + "\n"
	}
	return body + "\n\n" + block + "\n"
}

// Content returns the generated text between the markers, if present.
func (b Block) Content(body string) (string, bool) {
	start := strings.Index(body, b.Start)
	end := strings.Index(body, b.End)
	if start < 0 || end <= start {
		return "", false
	}
	return strings.Trim(body[start+len(b.Start):end], "\n"), true
}
