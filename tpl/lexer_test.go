package tpl

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestComment(t *testing.T) {
	assert := assert.New(t)
	{
		l := newLexer(`
# last line
#  last line
`)
		assert.True(l.Next() == TkEof)
	}

	{
		l := newLexer(`
# abc
    id #def
# xyz
`)
		assert.True(l.Next() == TkId)
		assert.True(l.Lexeme.Text == "id")
		assert.True(l.Next() == TkEof)
	}
}

func TestOp(t *testing.T) {
	assert := assert.New(t)
	{
		l := newLexer("*|-.[]():;@,")
		assert.True(l.Next() == TkMul)
		assert.True(l.Next() == TkPipe)
		assert.True(l.Next() == TkSub)
		assert.True(l.Next() == TkDot)
		assert.True(l.Next() == TkLSqr)
		assert.True(l.Next() == TkRSqr)
		assert.True(l.Next() == TkLPar)
		assert.True(l.Next() == TkRPar)
		assert.True(l.Next() == TkColon)
		assert.True(l.Next() == TkSemicolon)
		assert.True(l.Next() == TkAt)
		assert.True(l.Next() == TkComma)
		assert.True(l.Next() == TkEof)
	}

	{
		l := newLexer(">>=<<==!=!")
		assert.True(l.Next() == TkGt)
		assert.True(l.Next() == TkGe)
		assert.True(l.Next() == TkLt)
		assert.True(l.Next() == TkLe)
		assert.True(l.Next() == TkEq)
		assert.True(l.Next() == TkNe)
		assert.True(l.Next() == TkNot)
		assert.True(l.Next() == TkEof)
	}
}

func TestKeyword(t *testing.T) {
	assert := assert.New(t)
	{
		l := newLexer("table WHERE rows COLS all across desc ASC is null and or not true false")
		assert.True(l.Next() == TkTable)
		assert.True(l.Next() == TkWhere)
		assert.True(l.Next() == TkRows)
		assert.True(l.Next() == TkCols)
		assert.True(l.Next() == TkAll)
		assert.True(l.Next() == TkAcross)
		assert.True(l.Next() == TkDesc)
		assert.True(l.Next() == TkAsc)
		assert.True(l.Next() == TkIs)
		assert.True(l.Next() == TkNull)
		assert.True(l.Next() == TkAnd)
		assert.True(l.Next() == TkOr)
		assert.True(l.Next() == TkNot)
		assert.True(l.Next() == TkTrue)
		assert.True(l.Next() == TkFalse)
		assert.True(l.Next() == TkEof)
	}

	// identifiers come out lowercased, the language is case-insensitive
	{
		l := newLexer("OCCUPATION Income")
		assert.True(l.Next() == TkId)
		assert.Equal("occupation", l.Lexeme.Text)
		assert.True(l.Next() == TkId)
		assert.Equal("income", l.Lexeme.Text)
		assert.True(l.Next() == TkEof)
	}

	// identifiers sharing a keyword prefix should stay identifiers
	{
		l := newLexer("allocation rowset tableau island")
		assert.True(l.Next() == TkId)
		assert.Equal("allocation", l.Lexeme.Text)
		assert.True(l.Next() == TkId)
		assert.Equal("rowset", l.Lexeme.Text)
		assert.True(l.Next() == TkId)
		assert.Equal("tableau", l.Lexeme.Text)
		assert.True(l.Next() == TkId)
		assert.Equal("island", l.Lexeme.Text)
		assert.True(l.Next() == TkEof)
	}
}

func TestLiteral(t *testing.T) {
	assert := assert.New(t)
	{
		l := newLexer("123 1.5 'hello' \"world\"")
		assert.True(l.Next() == TkInt)
		assert.Equal(int64(123), l.Lexeme.Int)
		assert.True(l.Next() == TkReal)
		assert.Equal(1.5, l.Lexeme.Real)
		assert.True(l.Next() == TkStr)
		assert.Equal("hello", l.Lexeme.Text)
		assert.True(l.Next() == TkStr)
		assert.Equal("world", l.Lexeme.Text)
		assert.True(l.Next() == TkEof)
	}

	// the dot of a measure reference must not be eaten by number lexing
	{
		l := newLexer("occupation[5@income.sum]")
		assert.True(l.Next() == TkId)
		assert.True(l.Next() == TkLSqr)
		assert.True(l.Next() == TkInt)
		assert.Equal(int64(5), l.Lexeme.Int)
		assert.True(l.Next() == TkAt)
		assert.True(l.Next() == TkId)
		assert.Equal("income", l.Lexeme.Text)
		assert.True(l.Next() == TkDot)
		assert.True(l.Next() == TkId)
		assert.Equal("sum", l.Lexeme.Text)
		assert.True(l.Next() == TkRSqr)
		assert.True(l.Next() == TkEof)
	}

	{
		l := newLexer("'unclosed")
		assert.True(l.Next() == TkError)
	}
}
