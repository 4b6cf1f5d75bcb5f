package conflict

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// section denotes the various conflict sections
type section uint

const (
	sectionNone = section(iota)
	sectionOurs
	sectionBase
	sectionTheirs
)

const (
	markerOurs   = "<<<<<<<"
	markerBase   = "|||||||"
	markerSplit  = "======="
	markerTheirs = ">>>>>>>"

	// lineLimit is the number of leading bytes of a line that are inspected. The remainder of
	// longer lines is skipped.
	lineLimit = 64 * (1 << 10)
)

// HasMarkers determines whether the content contains at least one complete block of conflict
// markers as written by a content merge: an opening "<<<<<<<" line, an optional "|||||||" base
// section, a "=======" separator and a closing ">>>>>>>" line.
func HasMarkers(content []byte) bool {
	found, _ := ReadMarkers(bytes.NewReader(content))
	return found
}

// ReadMarkers scans r line by line and reports whether a complete conflict block was found.
func ReadMarkers(r io.Reader) (bool, error) {
	reader := bufio.NewReaderSize(r, lineLimit)

	current := sectionNone
	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}

		line := string(chunk)
		if isPrefix {
			if err := skipLine(reader); err != nil {
				return false, err
			}
		}

		switch {
		case isMarker(line, markerOurs):
			current = sectionOurs
		case isMarker(line, markerBase) && current == sectionOurs:
			current = sectionBase
		case line == markerSplit && (current == sectionOurs || current == sectionBase):
			current = sectionTheirs
		case isMarker(line, markerTheirs) && current == sectionTheirs:
			return true, nil
		}
	}
}

// skipLine discards the rest of the current line.
func skipLine(reader *bufio.Reader) error {
	for {
		_, isPrefix, err := reader.ReadLine()
		if err == io.EOF || (err == nil && !isPrefix) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func isMarker(line, marker string) bool {
	if !strings.HasPrefix(line, marker) {
		return false
	}

	rest := line[len(marker):]
	return rest == "" || rest[0] == ' '
}
