// Package ocr defines the contract between the extraction engine and a
// text recognition service.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
)

var ErrServiceUnavailable = errors.New("text recognition service unavailable")

// MRZWhitelist restricts recognition to the machine readable zone alphabet.
const MRZWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789<"

// Layout hints how text is arranged in the image.
type Layout int

const (
	LayoutAuto Layout = iota
	LayoutBlock
	LayoutSingleLine
)

func (l Layout) String() string {
	switch l {
	case LayoutBlock:
		return "block"
	case LayoutSingleLine:
		return "single_line"
	default:
		return "auto"
	}
}

type Options struct {
	// Whitelist limits the characters the recognizer may emit. Empty means
	// unrestricted.
	Whitelist string
	Layout    Layout
}

// Recognizer turns an image into lines of text.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, opts Options) ([]string, error)
	// Check probes the service. It fails with an error wrapping
	// ErrServiceUnavailable when recognition cannot run.
	Check(ctx context.Context) error
}

// Unavailable wraps cause so that it matches ErrServiceUnavailable.
func Unavailable(cause error) error {
	if cause == nil {
		return ErrServiceUnavailable
	}
	return fmt.Errorf("%w: %v", ErrServiceUnavailable, cause)
}

// SplitLines splits recognized text into lines, dropping trailing blank
// lines.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimRight(text, "\n\r\t ")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
