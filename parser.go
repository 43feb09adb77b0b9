package statecharts

import (
	"strings"
)

var arrows = map[string]bool{
	"->":  true,
	"-->": true,
	"<-":  true,
	"<--": true,
}

var codeTags = map[string]bool{
	"header": true,
	"footer": true,
	"param":  true,
	"cons":   true,
	"init":   true,
	"code":   true,
	"test":   true,
	"brief":  true,
}

// Parse converts the source buffer into a list of declarations. Errors are
// collected in the report; recovery is per line, so a single bad line never
// hides the rest of the file.
func Parse(src string, rep *Report) []Decl {
	var lines = Tokenize(src)
	for len(lines) != 0 && strings.HasPrefix(lines[0].Text(0), "'") {
		lines = lines[1:]
	}
	if len(lines) == 0 || lines[0].Text(0) != "@startuml" {
		rep.Errorf(ParseError, Pos{1, 1}, "bad file: missing @startuml")
		return nil
	}

	var decls []Decl
	for _, line := range lines[1:] {
		var head = line.Text(0)
		switch {
		case head == "@enduml":
			logger.Debug("parsed", "lines", line.Num, "decls", len(decls))
			return decls
		case strings.HasPrefix(head, "'"):
			if decl, ok := parseDirective(line); ok {
				decls = append(decls, decl)
			}
		case head == "hide" || head == "scale" || head == "skin":
			// Presentation directives carry no machine semantics.
		case len(line.Tokens) >= 3 && arrows[line.Text(1)]:
			if decl, ok := parseTransition(line, rep); ok {
				decls = append(decls, decl)
			}
		case isArrowish(line.Text(1)):
			rep.Errorf(ParseError, line.At(1), "unknown arrow shape %q", line.Text(1))
		case len(line.Tokens) >= 3 && line.Text(1) == ":":
			decls = append(decls, parseState(line, rep)...)
		default:
			rep.Errorf(ParseError, line.At(0), "unexpected declaration %q", head)
		}
	}
	rep.Errorf(ParseError, Pos{lines[len(lines)-1].Num, 1}, "bad file: missing @enduml")
	return decls
}

// isArrowish matches malformed arrow glyphs such as ---> so they get a
// dedicated diagnostic instead of the generic one.
func isArrowish(text string) bool {
	if arrows[text] || !strings.Contains(text, "-") {
		return false
	}
	var trimmed = strings.TrimPrefix(strings.TrimSuffix(text, ">"), "<")
	return trimmed != "" && strings.Trim(trimmed, "-") == ""
}

func parseDirective(line Line) (CodeDecl, bool) {
	var tag, from = "", 0
	var head = line.Text(0)
	if strings.HasPrefix(head, "'[") {
		if end := strings.Index(head, "]"); end > 2 {
			tag, from = head[2:end], 1
		}
	} else if head == "'" && strings.HasPrefix(line.Text(1), "[") {
		var next = line.Text(1)
		if end := strings.Index(next, "]"); end > 1 {
			tag, from = next[1:end], 2
		}
	}
	if !codeTags[tag] {
		// Any other quote line is a human comment.
		return CodeDecl{}, false
	}
	return CodeDecl{Pos: line.At(0), Tag: tag, Text: line.RawFrom(from)}, true
}

func endRef(token Token) EndRef {
	if token.Text == "[*]" {
		return EndRef{Pseudo: true}
	}
	return EndRef{Name: token.Text}
}

func parseTransition(line Line, rep *Report) (TransitionDecl, bool) {
	var decl = TransitionDecl{
		Pos:   line.At(0),
		Lhs:   endRef(line.Tokens[0]),
		Arrow: line.Text(1),
		Rhs:   endRef(line.Tokens[2]),
	}
	if len(line.Tokens) == 3 {
		return decl, true
	}
	if line.Text(3) != ":" {
		rep.Errorf(ParseError, line.At(3), "expected ':' before transition label, got %q", line.Text(3))
		return decl, false
	}
	var label, ok = parseLabel(line, 4, rep)
	if !ok {
		return decl, false
	}
	if label.onReaction {
		rep.Errorf(ParseError, line.At(4), "'on' reactions are only valid in a state declaration")
		return decl, false
	}
	decl.Event, decl.Params = label.event, label.params
	decl.Guard, decl.Action = label.guard, label.action
	return decl, true
}

func parseState(line Line, rep *Report) []Decl {
	var name = line.Text(0)
	var kind = strings.ToLower(line.Text(2))
	switch kind {
	case "entry", "entering", "exit", "leaving":
		if line.Text(3) != "/" && line.Text(3) != ":" {
			rep.Errorf(ParseError, line.At(3), "bad syntax describing a state: expected '/' after %q", kind)
			return nil
		}
		if kind == "entering" {
			kind = "entry"
		}
		if kind == "leaving" {
			kind = "exit"
		}
		return []Decl{StateDecl{Pos: line.At(0), State: name, Kind: kind, Body: line.Join(4, len(line.Tokens))}}
	case "comment":
		var from = 3
		if line.Text(3) == "/" || line.Text(3) == ":" {
			from = 4
		}
		return []Decl{StateDecl{Pos: line.At(0), State: name, Kind: "comment", Body: line.Join(from, len(line.Tokens))}}
	case "on":
		var label, ok = parseLabel(line, 3, rep)
		if !ok {
			return nil
		}
		if label.event == "" {
			// Unlike a transition label, an internal reaction must name its
			// trigger: only transitions may be completion-triggered.
			rep.Errorf(ParseError, line.At(3), "internal reaction requires an event name")
			return nil
		}
		return []Decl{ReactionDecl{
			Pos:    line.At(0),
			State:  name,
			Event:  label.event,
			Params: label.params,
			Guard:  label.guard,
			Action: label.action,
		}}
	case "do":
		rep.Errorf(ParseError, line.At(2), "do / activity is not supported")
		return nil
	default:
		rep.Errorf(ParseError, line.At(2), "bad syntax describing a state: unknown kind %q", line.Text(2))
		return nil
	}
}

type label struct {
	event      string
	params     string
	guard      string
	action     string
	onReaction bool
}

// parseLabel scans "event-part ( [ guard ] )? ( / action )?" starting at
// token idx. Guard and action bodies are opaque text.
func parseLabel(line Line, idx int, rep *Report) (label, bool) {
	var lbl label
	var count = len(line.Tokens)

	var start = idx
	for idx < count && line.Text(idx) != "[" && line.Text(idx) != "/" {
		idx++
	}
	if idx > start {
		var name = line.Text(start)
		if name == "on" && start+1 < idx {
			lbl.onReaction = true
			start++
			name = line.Text(start)
		}
		if paren := strings.Index(name, "("); paren > 0 {
			lbl.params = name[paren:]
			name = name[:paren]
		}
		lbl.event = name
		if rest := line.Join(start+1, idx); rest != "" {
			if lbl.params != "" {
				lbl.params += " "
			}
			lbl.params += rest
		}
	}

	if idx < count && line.Text(idx) == "[" {
		var open = idx
		idx++
		var from = idx
		for idx < count && line.Text(idx) != "]" {
			idx++
		}
		if idx == count {
			rep.Errorf(ParseError, line.At(open), "unterminated guard")
			return lbl, false
		}
		lbl.guard = line.Join(from, idx)
		idx++
	}

	if idx < count {
		if line.Text(idx) != "/" {
			rep.Errorf(ParseError, line.At(idx), "unexpected token %q after guard", line.Text(idx))
			return lbl, false
		}
		lbl.action = line.Join(idx+1, count)
	}
	return lbl, true
}
