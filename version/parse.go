package version

import (
	"strconv"
	"strings"
)

// Marker is the first word of the line printed by `rustc --version`.
const Marker = "rustc"

// ParseError reports rustc output that does not have the expected shape.
// Text is the complete input, kept for diagnostics.
type ParseError struct {
	Text    string
	Message string
}

func (e *ParseError) Error() string {
	return "bad rustc version " + strconv.Quote(e.Text) + ": " + e.Message
}

// Parse parses the output of `rustc --version`.
//
// Only the last non-empty line is considered, so warnings printed ahead of
// the version line are skipped. The line has the shape
//
//	rustc 1.MINOR[.PATCH][-CHANNEL[.N]] [(HASH YYYY-MM-DD)] [...]
//
// A nightly without the parenthesized commit information is reported as
// Dev. Parse never panics; any input it does not understand yields a
// *ParseError.
func Parse(text string) (Version, error) {
	fail := func(msg string) (Version, error) {
		return Version{}, &ParseError{Text: text, Message: msg}
	}

	words := strings.Fields(lastLine(text))
	if len(words) == 0 {
		return fail("empty output")
	}
	if words[0] != Marker {
		return fail("expected line to start with " + strconv.Quote(Marker))
	}
	if len(words) < 2 {
		return fail("missing version number")
	}

	release, suffix, hasSuffix, msg := splitRelease(words[1])
	if msg != "" {
		return fail(msg)
	}

	var channel Channel
	switch {
	case !hasSuffix:
		channel = Stable()
	case suffix == "dev":
		channel = Dev()
	case strings.HasPrefix(suffix, "beta"):
		channel = Beta()
	case suffix == "nightly":
		tail := words[2:]
		if len(tail) == 0 {
			channel = Dev()
			break
		}
		if !strings.HasPrefix(tail[0], "(") {
			return fail("expected (HASH DATE) after nightly version")
		}
		if len(tail) < 2 || !strings.HasSuffix(tail[1], ")") {
			return fail("expected DATE) after commit hash")
		}
		date, err := ParseDate(strings.TrimSuffix(tail[1], ")"))
		if err != nil {
			return fail(err.Error())
		}
		channel = Nightly(date)
	default:
		return fail("unknown release channel " + strconv.Quote(suffix))
	}

	return Version{Release: release, Channel: channel}, nil
}

// ParseVerbose parses the output of `rustc -vV`, which reports the
// release and the commit date on separate "key: value" lines:
//
//	rustc 1.76.0-nightly (87e1447aa 2023-11-30)
//	binary: rustc
//	commit-hash: 87e1447aadaa2899ff6ccabe1fa669eb50fb60a1
//	commit-date: 2023-11-30
//	host: x86_64-unknown-linux-gnu
//	release: 1.76.0-nightly
//	LLVM version: 17.0.5
//
// A nightly whose commit date is missing or "unknown" is reported as Dev.
func ParseVerbose(text string) (Version, error) {
	fail := func(msg string) (Version, error) {
		return Version{}, &ParseError{Text: text, Message: msg}
	}

	fields := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	raw, ok := fields["release"]
	if !ok {
		return fail("missing release line")
	}
	release, suffix, hasSuffix, msg := splitRelease(raw)
	if msg != "" {
		return fail(msg)
	}

	var channel Channel
	switch {
	case !hasSuffix:
		channel = Stable()
	case suffix == "dev":
		channel = Dev()
	case strings.HasPrefix(suffix, "beta"):
		channel = Beta()
	case suffix == "nightly":
		commitDate := fields["commit-date"]
		if commitDate == "" || commitDate == "unknown" {
			channel = Dev()
			break
		}
		date, err := ParseDate(commitDate)
		if err != nil {
			return fail(err.Error())
		}
		channel = Nightly(date)
	default:
		return fail("unknown release channel " + strconv.Quote(suffix))
	}

	return Version{Release: release, Channel: channel}, nil
}

// splitRelease parses "1.MINOR[.PATCH][-CHANNEL...]". On failure msg is
// non-empty.
func splitRelease(token string) (release Release, suffix string, hasSuffix bool, msg string) {
	parts := strings.Split(token, "-")
	if len(parts) > 1 {
		suffix, hasSuffix = parts[1], true
	}

	digits := strings.Split(parts[0], ".")
	if digits[0] != "1" {
		return Release{}, "", false, "major version must be 1"
	}
	if len(digits) < 2 {
		return Release{}, "", false, "missing minor version"
	}
	minor, err := strconv.ParseUint(digits[1], 10, 16)
	if err != nil {
		return Release{}, "", false, "invalid minor version " + strconv.Quote(digits[1])
	}
	var patch uint64
	if len(digits) > 2 {
		patch, err = strconv.ParseUint(digits[2], 10, 16)
		if err != nil {
			return Release{}, "", false, "invalid patch version " + strconv.Quote(digits[2])
		}
	}
	return Release{Minor: uint16(minor), Patch: uint16(patch)}, suffix, hasSuffix, ""
}

func lastLine(text string) string {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
