// Package model defines the data structures shared by the auxmark pipeline.
package model

import "strings"

// Path represents a file system path.
type Path string

// Line is a single line of a tracked file. Text never contains the line
// terminator; Terminator holds it verbatim ("\n", "\r\n" or "" for a final
// unterminated line) so untouched lines round-trip byte for byte.
type Line struct {
	Text       string
	Terminator string
}

// Bytes returns the exact on-disk representation of the line.
func (l Line) Bytes() string {
	return l.Text + l.Terminator
}

// TrackedFile is a version-controlled text file and its content as read at
// the start of a scan pass.
type TrackedFile struct {
	// Path is the identity of the file for the current pass.
	Path Path
	// Source is where the content is read from. It equals Path except for
	// dry-run bundle previews, where the file has not actually been moved.
	Source Path
	Lines  []Line
}

// ContentSource returns the path the file content lives at.
func (f TrackedFile) ContentSource() Path {
	if f.Source == "" {
		return f.Path
	}

	return f.Source
}

// SplitLines splits raw content into lines, keeping each terminator.
func SplitLines(content string) []Line {
	if content == "" {
		return nil
	}

	lines := make([]Line, 0, strings.Count(content, "\n")+1)

	for content != "" {
		idx := strings.IndexByte(content, '\n')
		if idx < 0 {
			lines = append(lines, Line{Text: content})
			break
		}

		text := content[:idx]
		terminator := "\n"

		if strings.HasSuffix(text, "\r") {
			text = text[:len(text)-1]
			terminator = "\r\n"
		}

		lines = append(lines, Line{Text: text, Terminator: terminator})
		content = content[idx+1:]
	}

	return lines
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []Line) string {
	var b strings.Builder

	for _, line := range lines {
		b.WriteString(line.Text)
		b.WriteString(line.Terminator)
	}

	return b.String()
}
