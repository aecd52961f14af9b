package ufo

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/npillmayer/glifbez/core"
)

// Engine is an outline processing tool. It receives a glyph as a bez
// program and returns the processed glyph as a bez program.
type Engine interface {
	Process(glyphName, bez string) (string, error)
}

// EngineFunc adapts an ordinary function to the Engine interface.
type EngineFunc func(glyphName, bez string) (string, error)

// Process calls f(glyphName, bez).
func (f EngineFunc) Process(glyphName, bez string) (string, error) {
	return f(glyphName, bez)
}

// ExecEngine runs an external program for every glyph. The program reads a
// bez program from stdin and writes the processed bez program to stdout.
// Occurrences of "{glyph}" in Args are replaced by the glyph name.
type ExecEngine struct {
	Command string
	Args    []string
	Dir     string // working directory, "" for the current one
}

// Process is part of interface Engine.
func (x ExecEngine) Process(glyphName, bez string) (string, error) {
	args := make([]string, len(x.Args))
	for i, a := range x.Args {
		args[i] = strings.ReplaceAll(a, "{glyph}", glyphName)
	}
	cmd := exec.Command(x.Command, args...)
	cmd.Dir = x.Dir
	cmd.Stdin = strings.NewReader(bez)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	tracer().Debugf("running %s for glyph '%s'", x.Command, glyphName)
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", core.WrapError(err, core.EINTERNAL, "%s failed: %s", x.Command, msg)
	}
	return stdout.String(), nil
}

// Process runs tool on every glyph of the font, in glyph order. Glyphs the
// hash map marks as done are skipped. Processed glyphs are staged; call Save
// to write them.
//
// An error for a single glyph does not stop the run. Glyph errors are
// collected and returned as a *BatchError.
func (f *Font) Process(tool string, engine Engine) error {
	batch := &BatchError{}
	processed, skipped := 0, 0
	for _, name := range f.GlyphNames() {
		bez, _, skip, err := f.ConvertToBez(name, tool)
		if err != nil {
			if core.Code(err) == core.EVERSION {
				return err
			}
			tracer().Errorf("glyph '%s': %v", name, core.UserMessage(err))
			batch.add(core.ForGlyph(name, err))
			continue
		}
		if skip {
			skipped++
			continue
		}
		out, err := engine.Process(name, bez)
		if err == nil {
			err = f.UpdateFromBez(name, tool, out)
		}
		if err != nil {
			tracer().Errorf("glyph '%s': %v", name, core.UserMessage(err))
			batch.add(core.ForGlyph(name, err))
			continue
		}
		processed++
	}
	tracer().Infof("%s: processed %d glyphs, skipped %d, %d failed",
		tool, processed, skipped, len(batch.Errors))
	return batch.errOrNil()
}

// BatchError collects the errors of a run over several glyphs.
type BatchError struct {
	Errors []error
}

func (b *BatchError) add(err error) {
	if err != nil {
		b.Errors = append(b.Errors, err)
	}
}

func (b *BatchError) errOrNil() error {
	if len(b.Errors) == 0 {
		return nil
	}
	return b
}

func (b *BatchError) Error() string {
	switch len(b.Errors) {
	case 0:
		return "no errors"
	case 1:
		return b.Errors[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", b.Errors[0].Error(), len(b.Errors)-1)
}

// Unwrap returns the collected errors, for errors.Is and errors.As.
func (b *BatchError) Unwrap() []error {
	return b.Errors
}

// Glyphs returns the names of the glyphs errors have been attributed to.
func (b *BatchError) Glyphs() []string {
	var names []string
	for _, err := range b.Errors {
		if name := core.GlyphName(err); name != "" {
			names = append(names, name)
		}
	}
	return names
}
