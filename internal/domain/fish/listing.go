// Package fish lists the fish species commonly found around a coordinate.
package fish

import (
	"strings"

	platformerrors "adventure-server-go/internal/platform/errors"
	"adventure-server-go/internal/utils"
)

const (
	noDataMarker  = "No fish data available"
	NoDataMessage = "No fish data available for the area."
	UnparsedNote  = "Could not parse fish list from output."
)

// Listing is the species list returned to callers.
type Listing struct {
	Fish      []string `json:"fish"`
	Message   string   `json:"message,omitempty"`
	RawOutput string   `json:"raw_output,omitempty"`
}

// ParseListing reads a numbered prose list. From the first line starting
// with "1.", every line containing a dot contributes the text after its
// first dot. Output mentioning that no data is available gives an empty
// listing; anything else is a parse error carrying the raw text.
func ParseListing(output string) (*Listing, error) {
	lines := strings.Split(strings.TrimSpace(output), "\n")

	start := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "1.") {
			start = i
			break
		}
	}

	if start >= 0 {
		names := make([]string, 0, len(lines)-start)
		for _, line := range lines[start:] {
			_, after, found := strings.Cut(line, ".")
			if !found {
				continue
			}
			names = append(names, utils.CleanText(after))
		}
		return &Listing{Fish: names}, nil
	}

	if strings.Contains(output, noDataMarker) {
		return &Listing{Fish: []string{}, Message: NoDataMessage}, nil
	}

	return nil, platformerrors.New(platformerrors.KindParse, "fish.parse_listing", UnparsedNote).WithDetails(output)
}

// Unparsed is the success payload reported for output the parser could not
// read.
func Unparsed(raw string) *Listing {
	return &Listing{RawOutput: raw, Message: UnparsedNote}
}
