package email

import (
	"strconv"
	"strings"
)

// Tokenizers for the textual response lines the transport hands back.
// Each response kind gets its own parser; a line that does not match the
// expected shape is reported as not-ok and the caller drops it.

// ListLine is the parsed form of one mailbox-list response line such as
//
//	(\HasNoChildren \Noselect) "/" "INBOX/Receipts"
type ListLine struct {
	Flags     []string
	Delimiter string
	Name      string
}

// ParseListLine extracts the flag set, hierarchy delimiter and folder name
// from a mailbox-list line. ok is false for lines that do not carry the
// expected three fields.
func ParseListLine(line string) (ListLine, bool) {
	rest := strings.TrimSpace(line)
	if !strings.HasPrefix(rest, "(") {
		return ListLine{}, false
	}
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return ListLine{}, false
	}
	flags := strings.Fields(rest[1:end])
	rest = strings.TrimSpace(rest[end+1:])

	delim, rest, ok := readDelimiter(rest)
	if !ok {
		return ListLine{}, false
	}

	name := strings.TrimSpace(rest)
	name = strings.Trim(name, `"`)
	name = strings.TrimSpace(name)
	if name == "" {
		return ListLine{}, false
	}

	return ListLine{Flags: flags, Delimiter: delim, Name: name}, true
}

// readDelimiter consumes the quoted hierarchy delimiter (or the NIL atom
// some servers send for flat namespaces) from the front of s.
func readDelimiter(s string) (delim, rest string, ok bool) {
	if strings.HasPrefix(s, "NIL") {
		return "", s[len("NIL"):], true
	}
	if !strings.HasPrefix(s, `"`) {
		return "", s, false
	}
	end := strings.IndexByte(s[1:], '"')
	if end < 0 {
		return "", s, false
	}
	return s[1 : 1+end], s[end+2:], true
}

// ParseStatusLine extracts the message and unseen counters from a status
// line such as
//
//	"INBOX" (MESSAGES 31 UNSEEN 2)
func ParseStatusLine(line string) (total, unseen int, ok bool) {
	open := strings.IndexByte(line, '(')
	closing := strings.LastIndexByte(line, ')')
	if open < 0 || closing < open {
		return 0, 0, false
	}

	fields := strings.Fields(line[open+1 : closing])
	if len(fields)%2 != 0 {
		return 0, 0, false
	}

	var haveTotal, haveUnseen bool
	for i := 0; i+1 < len(fields); i += 2 {
		n, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return 0, 0, false
		}
		switch strings.ToUpper(fields[i]) {
		case "MESSAGES":
			total, haveTotal = n, true
		case "UNSEEN":
			unseen, haveUnseen = n, true
		}
	}
	return total, unseen, haveTotal && haveUnseen
}

// ParseFetchMeta extracts the UID and flag tokens from the metadata line
// accompanying a fetched message, such as
//
//	12 (UID 457 FLAGS (\Seen \Answered))
//
// A missing UID yields "0", which callers must treat as "no UID
// available" rather than a valid identifier.
func ParseFetchMeta(meta string) (uid string, flags []string) {
	uid = "0"

	if rest, ok := afterKeyword(meta, "UID"); ok {
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i > 0 {
			uid = rest[:i]
		}
	}

	if rest, ok := afterKeyword(meta, "FLAGS"); ok && strings.HasPrefix(rest, "(") {
		if end := strings.IndexByte(rest, ')'); end > 0 {
			flags = strings.Fields(rest[1:end])
		}
	}
	return uid, flags
}

// afterKeyword finds keyword as a standalone token in s and returns what
// follows it, with leading spaces trimmed.
func afterKeyword(s, keyword string) (string, bool) {
	for start := 0; ; {
		i := strings.Index(s[start:], keyword)
		if i < 0 {
			return "", false
		}
		i += start
		end := i + len(keyword)
		boundedLeft := i == 0 || s[i-1] == ' ' || s[i-1] == '('
		boundedRight := end < len(s) && s[end] == ' '
		if boundedLeft && boundedRight {
			return strings.TrimLeft(s[end:], " "), true
		}
		start = end
	}
}

// EscapeSearchTerm escapes backslashes and double quotes so a user query
// can be embedded in a quoted search criterion.
func EscapeSearchTerm(q string) string {
	q = strings.ReplaceAll(q, `\`, `\\`)
	return strings.ReplaceAll(q, `"`, `\"`)
}
