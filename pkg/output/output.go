// Package output serializes readings for the consumer on stdout. Diagnostics never go through
// a Sink; they belong to the logger.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"syscall"

	"github.com/matti125/dti-reader/pkg/protocol"
)

// ErrPipeClosed reports that the consumer went away (e.g. `dti-reader | head` after head
// exits). Callers treat it as a clean shutdown, not a failure.
var ErrPipeClosed = errors.New("output pipe closed")

// Sink consumes decoded readings, one at a time, in capture order.
type Sink interface {
	Emit(r protocol.Reading) error
}

// JSONSink writes one JSON record per reading:
//
//	{"displacement":-4.531,"unit":"mm"}
//
// Displacement always carries exactly three decimal places.
type JSONSink struct {
	w io.Writer
}

func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{w: w}
}

type record struct {
	Displacement json.Number   `json:"displacement"`
	Unit         protocol.Unit `json:"unit"`
}

func (s *JSONSink) Emit(r protocol.Reading) error {
	rec := record{
		Displacement: json.Number(strconv.FormatFloat(r.Displacement, 'f', 3, 64)),
		Unit:         r.Unit,
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = s.w.Write(line)
	return pipeError(err)
}

// TextSink writes one human-readable line per reading, e.g. "-4.531 mm".
type TextSink struct {
	w io.Writer
}

func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

func (s *TextSink) Emit(r protocol.Reading) error {
	_, err := fmt.Fprintf(s.w, "%.3f %s\n", r.Displacement, r.Unit)
	return pipeError(err)
}

func pipeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe) {
		return ErrPipeClosed
	}
	return err
}
