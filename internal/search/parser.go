package search

import (
	"strconv"
	"strings"
)

// minOperandLength is the minimum trimmed length of every AND/OR operand.
const minOperandLength = 3

// Parser parses expression strings into predicate trees.
type Parser struct {
	input  string
	tokens []Token
	pos    int
}

// Parse parses a structured query expression. It returns a LexError or
// ParseError when the input is not a structured expression; callers fall back
// to full-text mode in that case.
func Parse(input string) (*Query, error) {
	tokens, err := NewLexer(input).Tokens()
	if err != nil {
		return nil, err
	}
	p := &Parser{input: input, tokens: tokens}
	return p.parseQuery()
}

func (p *Parser) curr() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return Token{Type: TokenEOF, Pos: len(p.input), End: len(p.input)}
}

func (p *Parser) advance() Token {
	tok := p.curr()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) parseQuery() (*Query, error) {
	if p.curr().Type == TokenEOF {
		return nil, parseErrorf(0, "empty expression")
	}

	root, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	q := &Query{Root: root, Limit: -1}
	if err := p.parseDirectives(q); err != nil {
		return nil, err
	}

	if tok := p.curr(); tok.Type != TokenEOF {
		return nil, parseErrorf(tok.Pos, "unexpected %q after expression", tok.Value)
	}
	return q, nil
}

// parseExpression parses one boolean level. Mixing AND and OR on the same
// level without parentheses is a syntax error.
func (p *Parser) parseExpression() (Node, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	var level TokenType
	for {
		tok := p.curr()
		if tok.Type != TokenAnd && tok.Type != TokenOr {
			return left, nil
		}
		if level == 0 {
			level = tok.Type
		} else if tok.Type != level {
			return nil, parseErrorf(tok.Pos, "mixing AND and OR on one level requires parentheses")
		}
		p.advance()

		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if err := p.checkOperandLength(left); err != nil {
			return nil, err
		}
		if err := p.checkOperandLength(right); err != nil {
			return nil, err
		}

		ls, _ := left.nodeSpan()
		_, re := right.nodeSpan()
		if tok.Type == TokenAnd {
			left = &And{Left: left, Right: right, start: ls, end: re}
		} else {
			left = &Or{Left: left, Right: right, start: ls, end: re}
		}
	}
}

// checkOperandLength enforces the minimum-length rule on the operand's source
// text span. It applies transitively: a compound operand is measured as a whole.
func (p *Parser) checkOperandLength(n Node) error {
	start, end := n.nodeSpan()
	if len(strings.TrimSpace(p.input[start:end])) < minOperandLength {
		return parseErrorf(start, "AND/OR operands must be at least %d characters", minOperandLength)
	}
	return nil
}

func (p *Parser) parseOperand() (Node, error) {
	if tok := p.curr(); tok.Type == TokenLParen {
		lparen := p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		rparen := p.curr()
		if rparen.Type != TokenRParen {
			return nil, parseErrorf(rparen.Pos, "expected closing parenthesis")
		}
		p.advance()
		setSpan(inner, lparen.Pos, rparen.End)
		return inner, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Node, error) {
	field := p.curr()
	if field.Type != TokenField {
		return nil, parseErrorf(field.Pos, "expected a field comparison, got %q", field.Value)
	}
	p.advance()

	entity, path, err := splitFieldPath(field)
	if err != nil {
		return nil, err
	}

	comp := p.curr()
	if comp.Type != TokenComparator {
		return nil, parseErrorf(comp.Pos, "expected comparison operator after %q", field.Value)
	}
	p.advance()

	lit := p.curr()
	var value Literal
	switch lit.Type {
	case TokenString:
		value = Literal{Kind: LiteralString, Str: lit.Value}
	case TokenNumber:
		n, err := strconv.ParseInt(lit.Value, 10, 64)
		if err != nil {
			return nil, parseErrorf(lit.Pos, "invalid number %q", lit.Value)
		}
		value = Literal{Kind: LiteralNumber, Num: n}
	case TokenDate:
		value = Literal{Kind: LiteralDate, Date: lit.Date}
	default:
		return nil, parseErrorf(lit.Pos, "expected a comparison value, got %q", lit.Value)
	}
	p.advance()

	return &Comparison{
		Entity: entity,
		Path:   path,
		Op:     comparatorOps[comp.Value],
		Value:  value,
		start:  field.Pos,
		end:    lit.End,
	}, nil
}

// parseDirectives parses the trailing SORT and LIMIT directives, in either
// order, at most one of each.
func (p *Parser) parseDirectives(q *Query) error {
	for {
		switch tok := p.curr(); tok.Type {
		case TokenSort:
			if q.Sort != nil {
				return parseErrorf(tok.Pos, "duplicate SORT directive")
			}
			p.advance()
			order := p.curr()
			if order.Type != TokenSortOrder {
				return parseErrorf(order.Pos, "expected ASC or DESC after SORT")
			}
			p.advance()
			target := p.curr()
			if target.Type != TokenField {
				return parseErrorf(target.Pos, "expected a sort field after SORT %s", order.Value)
			}
			p.advance()
			entity, path, err := splitFieldPath(target)
			if err != nil {
				return err
			}
			q.Sort = &SortSpec{
				Entity:     entity,
				Field:      strings.Join(path, "."),
				Descending: order.Value == "DESC",
			}
		case TokenLimit:
			if q.Limit != -1 {
				return parseErrorf(tok.Pos, "duplicate LIMIT directive")
			}
			p.advance()
			num := p.curr()
			if num.Type != TokenNumber {
				return parseErrorf(num.Pos, "expected an integer after LIMIT")
			}
			p.advance()
			n, err := strconv.Atoi(num.Value)
			if err != nil || n < 0 {
				return parseErrorf(num.Pos, "invalid LIMIT value %q", num.Value)
			}
			q.Limit = n
		default:
			return nil
		}
	}
}

func splitFieldPath(tok Token) (entity string, path []string, err error) {
	parts := strings.Split(tok.Value, ".")
	if len(parts) < 2 {
		return "", nil, parseErrorf(tok.Pos, "field %q must be qualified as Entity.field", tok.Value)
	}
	for _, part := range parts {
		if part == "" {
			return "", nil, parseErrorf(tok.Pos, "malformed field path %q", tok.Value)
		}
	}
	return parts[0], parts[1:], nil
}

func setSpan(n Node, start, end int) {
	switch node := n.(type) {
	case *Comparison:
		node.start, node.end = start, end
	case *And:
		node.start, node.end = start, end
	case *Or:
		node.start, node.end = start, end
	}
}
