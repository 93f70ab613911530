package observation

import (
	"strconv"
	"strings"

	"github.com/cochaviz/collaborative-agent/internal/world"
)

type blockForm struct {
	prefix string
	infix  string
}

var blockGrammar = map[Kind]blockForm{
	KindFound:     {prefix: "Found goal block ", infix: " at location "},
	KindDropped:   {prefix: "Dropped goal block ", infix: " at drop location "},
	KindPickingUp: {prefix: "Picking up goal block ", infix: " at location "},
}

var roomPrefix = map[Kind]string{
	KindMoving:    "Moving to ",
	KindOpening:   "Opening door of ",
	KindSearching: "Searching through ",
}

const distrustPrefix = "I don't trust "

// parseOrder fixes the order prefixes are tried in.
var parseOrder = []Kind{KindFound, KindDropped, KindPickingUp, KindMoving, KindOpening, KindSearching, KindDistrust}

// Parse decodes a report. It returns false when the text does not follow the
// grammar or the decoded fields fail schema validation; such messages are
// kept as raw history only.
func Parse(text string) (Observation, bool) {
	text = strings.TrimSpace(text)
	for _, kind := range parseOrder {
		obs, matched, ok := parseKind(kind, text)
		if !matched {
			continue
		}
		if !ok || Validate(obs) != nil {
			return Observation{}, false
		}
		return obs, true
	}
	return Observation{}, false
}

// parseKind reports whether text carries the prefix of kind and, if so,
// whether the remainder decoded cleanly.
func parseKind(kind Kind, text string) (obs Observation, matched, ok bool) {
	obs = Observation{Version: SchemaVersion, Kind: kind}

	if form, isBlock := blockGrammar[kind]; isBlock {
		rest, found := strings.CutPrefix(text, form.prefix)
		if !found {
			return obs, false, false
		}
		s := &scanner{src: rest}
		vis, ok := s.descriptor()
		if !ok || !s.literal(form.infix) {
			return obs, true, false
		}
		loc, ok := s.location()
		if !ok || !s.done() {
			return obs, true, false
		}
		obs.Block, obs.At = &vis, &loc
		return obs, true, true
	}

	prefix := distrustPrefix
	if kind != KindDistrust {
		prefix = roomPrefix[kind]
	}
	rest, found := strings.CutPrefix(text, prefix)
	if !found {
		return obs, false, false
	}
	s := &scanner{src: rest}
	name, ok := s.name()
	if !ok || !s.done() {
		return obs, true, false
	}
	if kind == KindDistrust {
		obs.Subject = name
	} else {
		obs.Room = name
	}
	return obs, true, true
}

// scanner is a small recursive-descent reader over one report body.
type scanner struct {
	src string
	pos int
}

func (s *scanner) peek() byte {
	if s.pos >= len(s.src) {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) && s.src[s.pos] == ' ' {
		s.pos++
	}
}

func (s *scanner) literal(lit string) bool {
	if !strings.HasPrefix(s.src[s.pos:], lit) {
		return false
	}
	s.pos += len(lit)
	return true
}

func (s *scanner) expect(c byte) bool {
	s.skipSpace()
	if s.peek() != c {
		return false
	}
	s.pos++
	return true
}

func (s *scanner) done() bool {
	return s.pos == len(s.src)
}

// name reads an identifier such as a room or agent name.
func (s *scanner) name() (string, bool) {
	start := s.pos
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == ' ' || c == ',' || c == '(' || c == ')' || c == '{' || c == '}' {
			break
		}
		s.pos++
	}
	return s.src[start:s.pos], s.pos > start
}

// integer reads an optionally signed decimal integer.
func (s *scanner) integer() (int, bool) {
	s.skipSpace()
	start := s.pos
	if s.peek() == '-' {
		s.pos++
	}
	for s.pos < len(s.src) && s.src[s.pos] >= '0' && s.src[s.pos] <= '9' {
		s.pos++
	}
	n, err := strconv.Atoi(s.src[start:s.pos])
	return n, err == nil
}

// quoted reads a single- or double-quoted string.
func (s *scanner) quoted() (string, bool) {
	s.skipSpace()
	q := s.peek()
	if q != '\'' && q != '"' {
		return "", false
	}
	end := strings.IndexByte(s.src[s.pos+1:], q)
	if end < 0 {
		return "", false
	}
	val := s.src[s.pos+1 : s.pos+1+end]
	s.pos += end + 2
	return val, true
}

// scalar skips a dictionary value of a key we do not use.
func (s *scanner) scalar() bool {
	s.skipSpace()
	if c := s.peek(); c == '\'' || c == '"' {
		_, ok := s.quoted()
		return ok
	}
	start := s.pos
	for s.pos < len(s.src) && s.src[s.pos] != ',' && s.src[s.pos] != '}' {
		s.pos++
	}
	return s.pos > start
}

// descriptor reads {'colour': '#rrggbb', 'shape': N, ...}. Keys other than
// colour and shape are skipped.
func (s *scanner) descriptor() (world.Visualization, bool) {
	var vis world.Visualization
	var haveColour, haveShape bool
	if !s.expect('{') {
		return vis, false
	}
	for {
		key, ok := s.quoted()
		if !ok || !s.expect(':') {
			return vis, false
		}
		switch key {
		case "colour":
			if vis.Colour, ok = s.quoted(); !ok {
				return vis, false
			}
			haveColour = true
		case "shape":
			if vis.Shape, ok = s.integer(); !ok {
				return vis, false
			}
			haveShape = true
		default:
			if !s.scalar() {
				return vis, false
			}
		}
		if s.expect(',') {
			continue
		}
		if s.expect('}') {
			break
		}
		return vis, false
	}
	return vis, haveColour && haveShape
}

// location reads "(X, Y)".
func (s *scanner) location() (world.Location, bool) {
	var loc world.Location
	var ok bool
	if !s.expect('(') {
		return loc, false
	}
	if loc.X, ok = s.integer(); !ok || !s.expect(',') {
		return loc, false
	}
	if loc.Y, ok = s.integer(); !ok || !s.expect(')') {
		return loc, false
	}
	return loc, true
}
