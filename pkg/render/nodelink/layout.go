package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/linkatlas/pkg/graph"
)

// Layout runs a Graphviz engine on DOT source and returns the node
// positions it computed, in screen coordinates: origin at the top left of
// the drawing, y growing downward. Pinned input nodes come back Fixed.
func Layout(ctx context.Context, dot, engine string) (map[string]graph.Position, error) {
	if engine == "" {
		engine = EngineNeato
	}
	if !ValidEngine(engine) {
		return nil, fmt.Errorf("unknown graphviz engine %q", engine)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.Layout(engine))

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.Format("dot"), &buf); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	return parsePositions(buf.Bytes())
}

var (
	bbRe  = regexp.MustCompile(`\bbb="([-0-9.e+]+),([-0-9.e+]+),([-0-9.e+]+),([-0-9.e+]+)"`)
	posRe = regexp.MustCompile(`(?:^|[\s,\[])pos="([-0-9.e+]+),([-0-9.e+]+)(!?)"`)
)

// parsePositions reads node positions from laid-out DOT. Graphviz writes a
// node's statement as `"id" [attrs];` and an edge's as `"a" -- "b" [attrs];`,
// so an attribute block preceded by "--" belongs to an edge.
func parsePositions(out []byte) (map[string]graph.Position, error) {
	bb := bbRe.FindSubmatch(out)
	if bb == nil {
		return nil, fmt.Errorf("laid-out DOT has no bounding box")
	}
	llx, _ := strconv.ParseFloat(string(bb[1]), 64)
	ury, _ := strconv.ParseFloat(string(bb[4]), 64)

	pos := make(map[string]graph.Position)
	s := string(out)
	var prev, tok string
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '"':
			end := closingQuote(s, i)
			prev, tok = tok, unquote(s[i+1:end])
			i = end + 1
		case c == '[':
			end := closingBracket(s, i)
			if prev != "--" && !isKeyword(tok) {
				if m := posRe.FindStringSubmatch(s[i:end]); m != nil {
					x, _ := strconv.ParseFloat(m[1], 64)
					y, _ := strconv.ParseFloat(m[2], 64)
					pos[tok] = graph.Position{X: x - llx, Y: ury - y, Fixed: m[3] == "!"}
				}
			}
			prev, tok = "", ""
			i = end + 1
		case c == ';' || c == '{' || c == '}' || c == '\n':
			if c != '\n' {
				prev, tok = "", ""
			}
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		default:
			j := i
			for j < len(s) && !strings.ContainsRune(" \t\r\n\"[];{}", rune(s[j])) {
				j++
			}
			prev, tok = tok, s[i:j]
			i = j
		}
	}
	return pos, nil
}

func closingQuote(s string, open int) int {
	for i := open + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return len(s) - 1
}

func closingBracket(s string, open int) int {
	for i := open + 1; i < len(s); i++ {
		switch s[i] {
		case '"':
			i = closingQuote(s, i)
		case ']':
			return i
		}
	}
	return len(s)
}

func unquote(s string) string {
	s = strings.ReplaceAll(s, "\\\n", "")
	s = strings.ReplaceAll(s, "\\\r\n", "")
	s = strings.ReplaceAll(s, `\"`, `"`)
	return strings.ReplaceAll(s, `\\`, `\`)
}

func isKeyword(tok string) bool {
	switch strings.ToLower(tok) {
	case "graph", "node", "edge", "digraph", "strict", "":
		return true
	}
	return false
}
