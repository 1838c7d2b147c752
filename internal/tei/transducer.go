// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tei

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const byteOrderMark = "\ufeff"

type phase int

const (
	phaseStart phase = iota
	phaseHeaderPending
	phaseBody
	phaseClosed
)

// pageState tracks the page label of the previous content line and the
// sequence number of the open <tei:p>.
type pageState struct {
	label   string
	seq     int
	started bool
}

// advance records page and reports whether it starts a new page. Labels are
// compared as plain strings; order is never checked.
func (s *pageState) advance(page string) bool {
	if !s.started {
		s.started = true
		s.label = page
		return false
	}
	if page == s.label {
		return false
	}
	s.seq++
	s.label = page
	return true
}

// Stats summarizes one transduced file.
type Stats struct {
	Metadata   string
	Title      string
	Lines      int
	Pages      int
	Milestones int
	Malformed  []*LineError

	// Last is the locator of the last well-formed content line.
	Last Locator
}

// Transducer writes the TEI document for one volume, one source line at a
// time. A Transducer is not reusable: create one per input file.
type Transducer struct {
	w      *bufio.Writer
	volume int
	ignum  int
	norm   *Normalizer
	title  *Normalizer

	phase  phase
	pages  pageState
	lineNo int
	stats  Stats
	err    error
}

// NewTransducer returns a Transducer writing to w for the given volume number
// and ignum.
func NewTransducer(w io.Writer, volume, ignum int, norm *Normalizer) *Transducer {
	if norm == nil {
		norm = &Normalizer{}
	}
	// Cross-references never render inside <tei:title>.
	title := *norm
	title.CrossRef = SuppressCrossRef
	return &Transducer{
		w:      bufio.NewWriter(w),
		volume: volume,
		ignum:  ignum,
		norm:   norm,
		title:  &title,
	}
}

// Line consumes the next source line, without its trailing newline.
func (t *Transducer) Line(line string) {
	if t.phase == phaseClosed {
		return
	}
	t.lineNo++
	t.stats.Lines++
	line = strings.TrimSuffix(line, "\r")

	switch t.phase {
	case phaseStart:
		// Line 1 is a metadata line and produces no output.
		t.stats.Metadata = strings.TrimPrefix(line, byteOrderMark)
		t.phase = phaseHeaderPending
		return
	case phaseHeaderPending:
		rest, titled := strings.CutPrefix(line, titleLocator)
		title := ""
		if titled {
			title = t.title.Normalize(rest)
		}
		t.writeHeader(title)
		if titled {
			return
		}
	}

	t.content(line)
}

func (t *Transducer) writeHeader(title string) {
	t.stats.Title = title
	t.printf(header, title, t.volume, t.ignum, firstPageSeq, firstPageLabel)
	t.pages = pageState{label: firstPageLabel, seq: firstPageSeq, started: true}
	t.stats.Pages = 1
	t.phase = phaseBody
}

func (t *Transducer) content(line string) {
	if line == "" {
		return
	}

	loc, rest, err := ParseLocator(line)
	if err != nil {
		t.stats.Malformed = append(t.stats.Malformed, &LineError{Line: t.lineNo, Err: err})
		return
	}

	t.stats.Last = loc
	newPage := t.pages.advance(loc.Page)
	text := t.norm.Normalize(rest)

	if newPage {
		t.printf(pageBreak, t.pages.seq, loc.Page)
		t.stats.Pages++
	}
	if text != "" || newPage {
		t.printf(lineMilestone, loc.Line, text)
		t.stats.Milestones++
	}
}

// Close writes the closing tags and flushes the output. A header with an
// empty title is written first when the input had fewer than two lines.
func (t *Transducer) Close() (Stats, error) {
	if t.phase == phaseClosed {
		return t.stats, t.err
	}
	if t.phase != phaseBody {
		t.writeHeader("")
	}
	t.printf("%s", footer)
	t.phase = phaseClosed

	if t.err == nil {
		if err := t.w.Flush(); err != nil {
			t.err = fmt.Errorf("flushing output: %w", err)
		}
	}
	return t.stats, t.err
}

func (t *Transducer) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	if _, err := fmt.Fprintf(t.w, format, args...); err != nil {
		t.err = fmt.Errorf("writing output: %w", err)
	}
}

// Transduce reads every line of r and writes the complete TEI document to w.
// Malformed lines are reported in Stats and never stop the conversion; only
// read and write failures return an error.
func Transduce(r io.Reader, w io.Writer, volume, ignum int, norm *Normalizer) (Stats, error) {
	t := NewTransducer(w, volume, ignum, norm)

	br := bufio.NewReader(r)
	var readErr error
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			t.Line(strings.TrimSuffix(line, "\n"))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			readErr = fmt.Errorf("reading input: %w", err)
			break
		}
	}

	stats, err := t.Close()
	if readErr != nil {
		return stats, readErr
	}
	return stats, err
}
