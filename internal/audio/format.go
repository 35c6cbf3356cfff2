// Package audio drives the output device from the playback session.
package audio

import (
	"strconv"
	"strings"
)

// Format is the output format reported by the device.
type Format struct {
	SampleRate int    `json:"sampleRate"` // Hz
	BitDepth   int    `json:"bitDepth"`
	Channels   int    `json:"channels"`
	Type       string `json:"format"` // "PCM", "DSD64", ...
}

// String renders the format as "96kHz/24-bit".
func (f Format) String() string {
	if strings.HasPrefix(f.Type, "DSD") {
		return f.Type
	}
	return FormatSampleRate(f.SampleRate) + "/" + FormatBitDepth(f.BitDepth)
}

// ParseFormat parses MPD's "samplerate:bits:channels" audio field.
// It returns nil for an empty or malformed value.
func ParseFormat(audio string) *Format {
	parts := strings.Split(audio, ":")
	if len(parts) < 2 {
		return nil
	}

	sampleRate, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil
	}
	bitDepth, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil
	}

	channels := 2
	if len(parts) >= 3 {
		if ch, err := strconv.Atoi(parts[2]); err == nil {
			channels = ch
		}
	}

	return &Format{
		SampleRate: sampleRate,
		BitDepth:   bitDepth,
		Channels:   channels,
		Type:       formatType(sampleRate),
	}
}

// DSD rates are multiples of the CD rate: DSD64 = 64 * 44100.
func formatType(sampleRate int) string {
	switch sampleRate {
	case 2822400:
		return "DSD64"
	case 5644800:
		return "DSD128"
	case 11289600:
		return "DSD256"
	case 22579200:
		return "DSD512"
	default:
		return "PCM"
	}
}

// FormatSampleRate returns a human-readable sample rate.
func FormatSampleRate(sampleRate int) string {
	if sampleRate >= 1000000 {
		return formatType(sampleRate)
	}
	if sampleRate >= 1000 {
		return strconv.FormatFloat(float64(sampleRate)/1000, 'f', -1, 64) + "kHz"
	}
	return strconv.Itoa(sampleRate) + "Hz"
}

// FormatBitDepth returns a human-readable bit depth.
func FormatBitDepth(bitDepth int) string {
	return strconv.Itoa(bitDepth) + "-bit"
}
