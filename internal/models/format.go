package models

import "strings"

// Format represents the file format of a subtitle
type Format int

const (
	FormatSRT Format = iota // plain SubRip text
	FormatASS               // Advanced SubStation Alpha
	FormatVTT               // WebVTT
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatASS:
		return "ass"
	case FormatVTT:
		return "vtt"
	default:
		return "srt"
	}
}

// Extension returns the file extension for the format, including the dot
func (f Format) Extension() string {
	return "." + f.String()
}

// ParseFormat converts a format string to a Format enum.
// Unrecognized values default to FormatSRT.
func ParseFormat(formatStr string) Format {
	switch strings.ToLower(strings.TrimSpace(formatStr)) {
	case "ass", "ssa":
		return FormatASS
	case "vtt", "webvtt":
		return FormatVTT
	default:
		return FormatSRT
	}
}

// MarshalJSON implements json.Marshaler interface
func (f Format) MarshalJSON() ([]byte, error) {
	return []byte(`"` + f.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler interface
func (f *Format) UnmarshalJSON(data []byte) error {
	*f = ParseFormat(strings.Trim(string(data), `"`))
	return nil
}
