package chat

import "strings"

// ParseLine splits a raw chat line such as "!haiku a/b/c" into its command
// ("haiku") and argument ("a/b/c"). The command is lower-cased and the
// argument trimmed. ok is false when text does not start with prefix or no
// command follows it.
func ParseLine(text, prefix string) (cmd, rest string, ok bool) {
	text = strings.TrimSpace(text)
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return "", "", false
	}
	text = strings.TrimPrefix(text, prefix)
	if text == "" || text[0] == ' ' || text[0] == '\t' {
		return "", "", false
	}
	cmd = text
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		cmd, rest = text[:i], text[i+1:]
	}
	return strings.ToLower(cmd), strings.TrimSpace(rest), true
}
