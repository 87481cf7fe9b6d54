package tpl

// parser of TPL, the table producing language. We briefly describe the
// grammar as following EBNF
//
// ### statement -------------------------------------------------------------
//
// table := TABLE where? ROWS axis COLS axis ';'?
//
// where := WHERE filter
//
// ### axis ------------------------------------------------------------------
//
// axis := nest ('|' nest)*
// nest := unit ('*' unit)*
// unit := '(' axis ')' | term
//
// term := field order? label? dir?
//       | ALL label?
//       | measure
//
// order := '[' '-'? INT ('@' field ('.' agg)?)? ']'
// label := STR
// dir := DESC | ASC
//
// measure := field '.' agg-or-bundle (':' format)? (ACROSS (ROWS|COLS))?
// agg-or-bundle := agg | '(' agg ('|' agg)* ')'
// format := ID ('.' INT)?
//
// nesting '*' binds tighter than concatenation '|', explicit parenthesis
// groups either way
//
// ### filter ----------------------------------------------------------------
//
// filter := and-chain (OR and-chain)*
// and-chain := unary (AND unary)*
// unary := NOT unary | '(' filter ')' | comparison
// comparison := field op const | field IS NOT? NULL
// op := '=' | '!=' | '>' | '<' | '>=' | '<='
// const := INT | REAL | STR | TRUE | FALSE | NULL
//
// ----------------------------------------------------------------------------

import (
	"fmt"
)

type Parser struct {
	L *Lexer
}

func newParser(xx string) *Parser {
	return &Parser{
		L: newLexer(xx),
	}
}

func NewParser(xx string) *Parser {
	return newParser(xx)
}

// Parse a full TPL statement into its AST. Convenience wrapper used by
// callers that do not care about reusing the parser.
func Parse(source string) (*Table, error) {
	return NewParser(source).Parse()
}

func (self *Parser) err(msg string) error {
	if self.L.Token == TkError {
		return fmt.Errorf("%s", self.L.Lexeme.Text)
	} else {
		return fmt.Errorf("%s: %s", self.L.dinfo(), msg)
	}
}

func (self *Parser) expect(tk int) error {
	if self.L.Token == tk {
		self.L.Next()
		return nil
	} else {
		return self.err("unexpected token during grammar parsing")
	}
}

func (self *Parser) Parse() (*Table, error) {
	t := &Table{}

	self.L.Next()
	if self.L.Token != TkTable {
		return nil, self.err("unknown statement, expect *table*")
	}
	self.L.Next()

	if self.L.Token == TkWhere {
		if n, err := self.parseWhere(); err != nil {
			return nil, err
		} else {
			t.Where = n
		}
	}

	if err := self.expect(TkRows); err != nil {
		return nil, err
	}
	if n, err := self.parseAxis(); err != nil {
		return nil, err
	} else {
		t.Rows = n
	}

	if err := self.expect(TkCols); err != nil {
		return nil, err
	}
	if n, err := self.parseAxis(); err != nil {
		return nil, err
	} else {
		t.Cols = n
	}

	if self.L.Token == TkSemicolon {
		self.L.Next()
	}
	if self.L.Token != TkEof {
		return nil, self.err("dangling code after parser thinks the statement is finished")
	}
	return t, nil
}

// ----------------------------------------------------------------------------
// axis clause

func (self *Parser) parseAxis() (Term, error) {
	lhs, err := self.parseNest()
	if err != nil {
		return nil, err
	}

	for self.L.Token == TkPipe {
		self.L.Next()
		rhs, err := self.parseNest()
		if err != nil {
			return nil, err
		}
		lhs = &ConcatTerm{
			L: lhs,
			R: rhs,
		}
	}

	return lhs, nil
}

func (self *Parser) parseNest() (Term, error) {
	lhs, err := self.parseUnit()
	if err != nil {
		return nil, err
	}

	for self.L.Token == TkMul {
		self.L.Next()
		rhs, err := self.parseUnit()
		if err != nil {
			return nil, err
		}
		lhs = &NestTerm{
			L: lhs,
			R: rhs,
		}
	}

	return lhs, nil
}

func (self *Parser) parseUnit() (Term, error) {
	switch self.L.Token {
	case TkLPar:
		self.L.Next()
		t, err := self.parseAxis()
		if err != nil {
			return nil, err
		}
		if err := self.expect(TkRPar); err != nil {
			return nil, err
		}
		return t, nil

	case TkAll:
		self.L.Next()
		all := &AllTerm{}
		if self.L.Token == TkStr {
			all.Label = self.L.Lexeme.Text
			self.L.Next()
		}
		return all, nil

	case TkId:
		name := self.L.Lexeme.Text
		self.L.Next()

		if self.L.Token == TkDot {
			return self.parseMeasureRest(name)
		}
		return self.parseFieldRest(name)

	default:
		return nil, self.err("unexpected token inside of axis clause")
	}
}

func (self *Parser) parseFieldRest(name string) (Term, error) {
	f := &FieldTerm{
		Name: name,
	}

	if self.L.Token == TkLSqr {
		order, err := self.parseOrder()
		if err != nil {
			return nil, err
		}
		f.Order = order
	}

	if self.L.Token == TkStr {
		f.Label = self.L.Lexeme.Text
		self.L.Next()
	}

	switch self.L.Token {
	case TkDesc:
		if f.Order == nil {
			f.Order = &Order{}
		}
		f.Order.Dir = OrderDesc
		self.L.Next()

	case TkAsc:
		if f.Order == nil {
			f.Order = &Order{}
		}
		f.Order.Dir = OrderAsc
		self.L.Next()
	}

	return f, nil
}

func (self *Parser) parseOrder() (*Order, error) {
	self.L.Next() // skip '['

	order := &Order{}
	neg := false

	if self.L.Token == TkSub {
		neg = true
		self.L.Next()
	}

	if self.L.Token != TkInt {
		return nil, self.err("ordering limit must be an integer literal")
	}
	order.HasLimit = true
	order.Limit = self.L.Lexeme.Int
	if neg {
		order.Limit = -order.Limit
	}
	if order.Limit == 0 {
		return nil, self.err("ordering limit must not be zero")
	}
	self.L.Next()

	if self.L.Token == TkAt {
		self.L.Next()
		if self.L.Token != TkId {
			return nil, self.err("by-value ordering expects a measure reference after '@'")
		}
		ref := &MeasureTerm{
			Field: self.L.Lexeme.Text,
		}
		self.L.Next()

		if self.L.Token == TkDot {
			self.L.Next()
			if self.L.Token != TkId {
				return nil, self.err("measure reference expects aggregate name after '.'")
			}
			ref.Aggs = append(ref.Aggs, self.L.Lexeme.Text)
			self.L.Next()
		}
		order.OrderRef = ref
	}

	if err := self.expect(TkRSqr); err != nil {
		return nil, err
	}
	return order, nil
}

func (self *Parser) parseMeasureRest(name string) (Term, error) {
	self.L.Next() // skip '.'

	m := &MeasureTerm{
		Field: name,
	}

	switch self.L.Token {
	case TkId:
		m.Aggs = append(m.Aggs, self.L.Lexeme.Text)
		self.L.Next()

	case TkLPar:
		// bundled form, ie income.(sum | mean)
		self.L.Next()
		for {
			if self.L.Token != TkId {
				return nil, self.err("aggregate bundle expects aggregate names")
			}
			m.Aggs = append(m.Aggs, self.L.Lexeme.Text)
			self.L.Next()

			if self.L.Token == TkPipe {
				self.L.Next()
				continue
			}
			break
		}
		if err := self.expect(TkRPar); err != nil {
			return nil, err
		}

	default:
		return nil, self.err("measure expects aggregate name after '.'")
	}

	if self.L.Token == TkColon {
		self.L.Next()
		format, err := self.parseFormat()
		if err != nil {
			return nil, err
		}
		m.Format = format
	}

	if self.L.Token == TkAcross {
		self.L.Next()
		switch self.L.Token {
		case TkRows:
			m.Across = AcrossRows
			self.L.Next()
		case TkCols:
			m.Across = AcrossCols
			self.L.Next()
		default:
			return nil, self.err("across expects *rows* or *cols*")
		}
	}

	return m, nil
}

func (self *Parser) parseFormat() (string, error) {
	if self.L.Token != TkId {
		return "", self.err("format expects an identifier")
	}
	format := self.L.Lexeme.Text
	self.L.Next()

	// decimal format carries its precision, ie decimal.2
	if self.L.Token == TkDot {
		self.L.Next()
		if self.L.Token != TkInt {
			return "", self.err("decimal format expects precision after '.'")
		}
		format = fmt.Sprintf("%s.%d", format, self.L.Lexeme.Int)
		self.L.Next()
	}

	return format, nil
}

// ----------------------------------------------------------------------------
// filter clause

func (self *Parser) parseWhere() (*Where, error) {
	self.L.Next() // skip the *where* keyword

	cond, err := self.parseFilter()
	if err != nil {
		return nil, err
	}
	return &Where{
		Condition: cond,
	}, nil
}

func (self *Parser) parseFilter() (Filter, error) {
	lhs, err := self.parseAndChain()
	if err != nil {
		return nil, err
	}

	for self.L.Token == TkOr {
		self.L.Next()
		rhs, err := self.parseAndChain()
		if err != nil {
			return nil, err
		}
		lhs = &BinaryFilter{
			Op: FilterOr,
			L:  lhs,
			R:  rhs,
		}
	}

	return lhs, nil
}

func (self *Parser) parseAndChain() (Filter, error) {
	lhs, err := self.parseFilterUnary()
	if err != nil {
		return nil, err
	}

	for self.L.Token == TkAnd {
		self.L.Next()
		rhs, err := self.parseFilterUnary()
		if err != nil {
			return nil, err
		}
		lhs = &BinaryFilter{
			Op: FilterAnd,
			L:  lhs,
			R:  rhs,
		}
	}

	return lhs, nil
}

func (self *Parser) parseFilterUnary() (Filter, error) {
	switch self.L.Token {
	case TkNot:
		self.L.Next()
		operand, err := self.parseFilterUnary()
		if err != nil {
			return nil, err
		}
		return &NotFilter{
			Operand: operand,
		}, nil

	case TkLPar:
		self.L.Next()
		f, err := self.parseFilter()
		if err != nil {
			return nil, err
		}
		if err := self.expect(TkRPar); err != nil {
			return nil, err
		}
		return f, nil

	default:
		return self.parseComparison()
	}
}

func (self *Parser) parseComparison() (Filter, error) {
	if self.L.Token != TkId {
		return nil, self.err("comparison expects a field name")
	}
	field := self.L.Lexeme.Text
	self.L.Next()

	if self.L.Token == TkIs {
		self.L.Next()
		op := CmpIsNull
		if self.L.Token == TkNot {
			op = CmpIsNotNull
			self.L.Next()
		}
		if err := self.expect(TkNull); err != nil {
			return nil, err
		}
		return &CmpFilter{
			Field: field,
			Op:    op,
		}, nil
	}

	var op int
	switch self.L.Token {
	case TkEq:
		op = CmpEq
	case TkNe:
		op = CmpNe
	case TkGt:
		op = CmpGt
	case TkLt:
		op = CmpLt
	case TkGe:
		op = CmpGe
	case TkLe:
		op = CmpLe
	default:
		return nil, self.err("unknown comparison operator")
	}
	self.L.Next()

	value, err := self.parseConst()
	if err != nil {
		return nil, err
	}

	return &CmpFilter{
		Field: field,
		Op:    op,
		Value: value,
	}, nil
}

func (self *Parser) parseConst() (Const, error) {
	neg := false
	if self.L.Token == TkSub {
		neg = true
		self.L.Next()
	}

	switch self.L.Token {
	case TkInt:
		v := self.L.Lexeme.Int
		if neg {
			v = -v
		}
		self.L.Next()
		return Const{Ty: ConstInt, Int: v}, nil

	case TkReal:
		v := self.L.Lexeme.Real
		if neg {
			v = -v
		}
		self.L.Next()
		return Const{Ty: ConstReal, Real: v}, nil

	case TkStr:
		if neg {
			return Const{}, self.err("string literal cannot be negated")
		}
		v := self.L.Lexeme.Text
		self.L.Next()
		return Const{Ty: ConstStr, String: v}, nil

	case TkTrue:
		self.L.Next()
		return Const{Ty: ConstBool, Bool: true}, nil

	case TkFalse:
		self.L.Next()
		return Const{Ty: ConstBool, Bool: false}, nil

	case TkNull:
		self.L.Next()
		return Const{Ty: ConstNull}, nil

	default:
		return Const{}, self.err("unknown constant literal")
	}
}
