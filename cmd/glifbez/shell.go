package main

import (
	"strings"

	"github.com/chzyer/readline"
	"github.com/derekparker/trie"
	"github.com/npillmayer/glifbez/core"
	"github.com/npillmayer/glifbez/engine/ufo"
	"github.com/pterm/pterm"
)

// shell starts interactive mode on a font.
func shell(font *ufo.Font) error {
	repl, err := readline.NewEx(&readline.Config{
		Prompt:       "glifbez > ",
		AutoComplete: newGlyphCompleter(font.GlyphNames()),
	})
	if err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot start interactive mode")
	}
	defer repl.Close()
	pterm.Info.Println("Quit with <ctrl>D") // inform user how to stop the CLI
	for {
		line, err := repl.Readline()
		if err != nil { // io.EOF
			break
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if quit := execute(font, fields[0], fields[1:]); quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
	return nil
}

func execute(font *ufo.Font, cmd string, args []string) bool {
	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		pterm.Println(`glyphs              list glyph names
bez <glyph>         show a glyph as bez program
entry <glyph>       show the hash map entry of a glyph
hints <glyph>       show the hint record of a glyph
quit                leave`)
	case "glyphs":
		pterm.Println(strings.Join(font.GlyphNames(), " "))
	case "bez":
		for _, name := range args {
			prog, err := glyphBez(font, name)
			if err != nil {
				pterm.Error.Println(core.UserMessage(err))
				continue
			}
			pterm.Print(prog)
		}
	case "entry":
		for _, name := range args {
			if e, ok := font.Cache().Entry(name); ok {
				pterm.Printfln("%s: %v %s", name, e.History, e.Hash)
			} else {
				pterm.Printfln("%s: no entry", name)
			}
		}
	case "hints":
		for _, name := range args {
			g, err := font.Glyph(name)
			if err != nil {
				pterm.Error.Println(core.UserMessage(err))
				continue
			}
			hd, err := g.HintData()
			if err != nil {
				pterm.Error.Println(core.UserMessage(err))
			} else if hd == nil {
				pterm.Printfln("%s: no hints", name)
			} else {
				pterm.Printfln("%s: id %s", name, hd.ID)
				for _, set := range hd.HintSets {
					pterm.Printfln("  %s: %s", set.PointTag, strings.Join(set.Stems, ", "))
				}
				if len(hd.FlexList) > 0 {
					pterm.Printfln("  flex: %s", strings.Join(hd.FlexList, ", "))
				}
			}
		}
	default:
		pterm.Error.Printfln("unknown command '%s', try 'help'", cmd)
	}
	return false
}

// glyphCompleter completes glyph names in interactive mode.
type glyphCompleter struct {
	names *trie.Trie
}

func newGlyphCompleter(glyphNames []string) *glyphCompleter {
	c := &glyphCompleter{names: trie.New()}
	for _, name := range glyphNames {
		c.names.Add(name, nil)
	}
	return c
}

// Do is part of interface readline.AutoCompleter. It completes the word
// left of the cursor, if it is not the command.
func (c *glyphCompleter) Do(line []rune, pos int) ([][]rune, int) {
	start := pos
	for start > 0 && line[start-1] != ' ' {
		start--
	}
	if strings.TrimSpace(string(line[:start])) == "" {
		return nil, 0
	}
	prefix := string(line[start:pos])
	var candidates [][]rune
	for _, name := range c.names.PrefixSearch(prefix) {
		candidates = append(candidates, []rune(name[len(prefix):]+" "))
	}
	return candidates, len([]rune(prefix))
}
