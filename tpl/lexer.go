package tpl

import (
	"bytes"
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

const (
	// Literal
	TkTrue = iota
	TkFalse
	TkNull
	TkInt
	TkReal
	TkStr
	TkId

	// Keywords
	TkTable
	TkWhere
	TkRows
	TkCols
	TkAll
	TkAcross
	TkDesc
	TkAsc
	TkIs

	// Punctuation
	TkComma
	TkSemicolon
	TkColon
	TkDot
	TkAt

	TkLSqr
	TkRSqr
	TkLPar
	TkRPar

	TkMul
	TkPipe
	TkSub

	TkLt
	TkLe
	TkGt
	TkGe
	TkEq
	TkNe

	TkAnd
	TkOr
	TkNot

	TkError
	TkEof
)

type Lexeme struct {
	Text string
	Int  int64
	Real float64
}

type Lexer struct {
	Source string
	Cursor int
	Token  int
	Lexeme Lexeme
}

func newLexer(source string) *Lexer {
	return &Lexer{
		Source: source,
		Cursor: 0,
		Token:  TkError,
	}
}

func (self *Lexer) nextRune() (rune, int) {
	if self.Cursor == len(self.Source) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(self.Source[self.Cursor:])
}

func (self *Lexer) nextRune2() rune {
	r, _ := utf8.DecodeRuneInString(self.Source[self.Cursor+1:])
	return r
}

func (self *Lexer) yield(tk int, sz int) int {
	self.Token = tk
	self.Cursor += sz
	return tk
}

func (self *Lexer) eof() int {
	self.Token = TkEof
	return TkEof
}

// generate a debug position for diagnostic information output
func (self *Lexer) pos(where int, source string) (int, int) {
	line := 1
	col := 1
	idx := 0

	for idx < where {
		r, _ := utf8.DecodeRuneInString(source[idx:])
		if r == '\n' {
			line++
			col = 1
		}
		idx++
		col++
	}

	return line, col
}

func (self *Lexer) dinfo() string {
	line, col := self.pos(self.Cursor, self.Source)
	return fmt.Sprintf("around position(%d: %d)", line, col)
}

func (self *Lexer) err(msg string) int {
	self.Lexeme.Text = fmt.Sprintf("%s: %s", self.dinfo(), msg)
	self.Token = TkError
	return TkError
}

func (self *Lexer) errE(err error) int {
	self.Lexeme.Text = fmt.Sprintf("%s: %s", self.dinfo(), err)
	self.Token = TkError
	return TkError
}

func (self *Lexer) errUtf8() int {
	return self.err("invalid utf8 character")
}

func (self *Lexer) lexLineComment() bool {
	for {
		r, sz := utf8.DecodeRuneInString(self.Source[self.Cursor:])
		if r == utf8.RuneError {
			if sz == 0 {
				return true // reaching end of the file
			} else {
				self.errUtf8()
				return false
			}
		}

		self.Cursor += sz

		if r == '\n' {
			break
		}
	}

	return true
}

func (self *Lexer) lexNum(c rune) int {
	hasDot := false
	buf := &bytes.Buffer{}

	buf.WriteRune(c)
	self.Cursor++

loop:
	for {
		r, sz := self.nextRune()
		if r == utf8.RuneError {
			if sz == 0 {
				break
			} else {
				return self.errUtf8()
			}
		}

		switch r {
		case '.':
			// the dot may belong to a measure reference, ie income.sum,
			// only treat it as decimal point when a digit follows
			if hasDot || !unicode.IsDigit(self.nextRune2()) {
				break loop
			}
			buf.WriteRune('.')
			hasDot = true

		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			buf.WriteRune(r)

		default:
			break loop
		}

		self.Cursor += sz
	}

	if hasDot {
		f, err := strconv.ParseFloat(buf.String(), 64)
		if err != nil {
			return self.errE(err)
		}
		self.Lexeme.Real = f
		self.Token = TkReal
		return TkReal
	}

	i, err := strconv.ParseInt(buf.String(), 10, 64)
	if err != nil {
		return self.errE(err)
	}
	self.Lexeme.Int = i
	self.Token = TkInt
	return TkInt
}

func (self *Lexer) lexStr(c rune) int {
	buf := &bytes.Buffer{}

	quote := c
	self.Cursor++
	self.Lexeme.Text = ""

	for {
		c, sz := self.nextRune()

		if c == utf8.RuneError {
			if sz == 0 {
				return self.err("string literal is not closed by quote properly")
			} else {
				return self.errUtf8()
			}
		}

		if c == quote {
			self.Cursor += sz
			break
		}

		if c == '\\' {
			cc := self.nextRune2()
			switch cc {
			case 't':
				self.Cursor++
				buf.WriteRune('\t')
			case 'n':
				self.Cursor++
				buf.WriteRune('\n')
			case '\'':
				self.Cursor++
				buf.WriteRune('\'')
			case '"':
				self.Cursor++
				buf.WriteRune('"')
			case '\\':
				self.Cursor++
				buf.WriteRune('\\')
			default:
				return self.err("unknown escape sequences inside of string literal")
			}
		} else {
			buf.WriteRune(c)
		}

		self.Cursor += sz
	}

	self.Lexeme.Text = buf.String()
	self.Token = TkStr
	return self.Token
}

func (self *Lexer) matchkeyword(str string, offset int) bool {
	c := self.Cursor + offset
	tar := []rune(str)

	for idx := 0; idx < len(tar); idx++ {
		if c >= len(self.Source) {
			return false
		}
		r, sz := utf8.DecodeRuneInString(self.Source[c:]) // case insensitive

		if unicode.ToLower(r) != tar[idx] {
			return false
		}
		c += sz
	}

	r, _ := utf8.DecodeRuneInString(self.Source[c:])
	return !self.isIdChar(r)
}

func (self *Lexer) matchKeyword(w string) bool {
	return self.matchkeyword(w, 1)
}

func (self *Lexer) isWS(r rune) bool {
	switch r {
	case ' ', '\r', '\t', '\n', '\b', '\v':
		return true
	default:
		return false
	}
}

func (self *Lexer) isIdChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func (self *Lexer) isIdLeadingChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func (self *Lexer) tryKeyword(c rune) (bool, int) {
	switch c {
	case 'a', 'A':
		if self.matchKeyword("nd") {
			return true, self.yield(TkAnd, 3)
		}
		if self.matchKeyword("cross") {
			return true, self.yield(TkAcross, 6)
		}
		if self.matchKeyword("sc") {
			return true, self.yield(TkAsc, 3)
		}
		if self.matchKeyword("ll") {
			return true, self.yield(TkAll, 3)
		}
		break

	case 'c', 'C':
		if self.matchKeyword("ols") {
			return true, self.yield(TkCols, 4)
		}
		break

	case 'd', 'D':
		if self.matchKeyword("esc") {
			return true, self.yield(TkDesc, 4)
		}
		break

	case 'f', 'F':
		if self.matchKeyword("alse") {
			return true, self.yield(TkFalse, 5)
		}
		break

	case 'i', 'I':
		if self.matchKeyword("s") {
			return true, self.yield(TkIs, 2)
		}
		break

	case 'n', 'N':
		if self.matchKeyword("ull") {
			return true, self.yield(TkNull, 4)
		}
		if self.matchKeyword("ot") {
			return true, self.yield(TkNot, 3)
		}
		break

	case 'o', 'O':
		if self.matchKeyword("r") {
			return true, self.yield(TkOr, 2)
		}
		break

	case 'r', 'R':
		if self.matchKeyword("ows") {
			return true, self.yield(TkRows, 4)
		}
		break

	case 't', 'T':
		if self.matchKeyword("able") {
			return true, self.yield(TkTable, 5)
		}
		if self.matchKeyword("rue") {
			return true, self.yield(TkTrue, 4)
		}
		break

	case 'w', 'W':
		if self.matchKeyword("here") {
			return true, self.yield(TkWhere, 5)
		}
		break

	default:
		break
	}

	return false, 0
}

func (self *Lexer) lexId(c rune) int {
	if !self.isIdLeadingChar(c) {
		return self.err("invalid leading character of identifier")
	}

	buf := &bytes.Buffer{}
	buf.WriteRune(unicode.ToLower(c))
	self.Cursor++

	for {
		c, sz := self.nextRune()
		if c == utf8.RuneError {
			break
		}
		if !self.isIdChar(c) {
			break
		}
		self.Cursor += sz
		buf.WriteRune(unicode.ToLower(c))
	}

	self.Lexeme.Text = buf.String()
	self.Token = TkId
	return TkId
}

func (self *Lexer) lexKeywordOrId(c rune) int {
	yes, tk := self.tryKeyword(c)
	if yes {
		return tk
	}

	return self.lexId(c)
}

func (self *Lexer) Next() int {
	if self.Token == TkEof {
		return TkEof
	}

	if self.Cursor == len(self.Source) {
		self.Token = TkEof
		return TkEof
	}

	return self.next()
}

func (self *Lexer) next() int {
	for {
		c, sz := self.nextRune()
		if c == utf8.RuneError {
			if sz == 0 {
				return self.eof()
			} else {
				return self.errUtf8()
			}
		}

		switch c {
		case ',':
			return self.yield(TkComma, 1)

		case ';':
			return self.yield(TkSemicolon, 1)

		case ':':
			return self.yield(TkColon, 1)

		case '.':
			return self.yield(TkDot, 1)

		case '@':
			return self.yield(TkAt, 1)

		case '[':
			return self.yield(TkLSqr, 1)

		case ']':
			return self.yield(TkRSqr, 1)

		case '(':
			return self.yield(TkLPar, 1)
		case ')':
			return self.yield(TkRPar, 1)

		case '*':
			return self.yield(TkMul, 1)

		case '|':
			return self.yield(TkPipe, 1)

		case '-':
			return self.yield(TkSub, 1)

		case '=':
			if self.nextRune2() == '=' {
				return self.yield(TkEq, 2)
			}
			return self.yield(TkEq, 1)

		case '>':
			if self.nextRune2() == '=' {
				return self.yield(TkGe, 2)
			}
			return self.yield(TkGt, 1)

		case '<':
			if self.nextRune2() == '=' {
				return self.yield(TkLe, 2)
			}
			return self.yield(TkLt, 1)

		case '!':
			if self.nextRune2() == '=' {
				return self.yield(TkNe, 2)
			}
			return self.yield(TkNot, 1)

		case ' ', '\r', '\t', '\n', '\b', '\v':
			self.Cursor++

		case '\'', '"':
			return self.lexStr(c)

		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			return self.lexNum(c)

		case '#':
			if !self.lexLineComment() {
				self.Cursor++
				return self.Token
			}

		default:
			return self.lexKeywordOrId(c)
		}
	}
}
