package permissions

import (
	"fmt"
	"sort"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Expression grammar, lowest precedence first:
//
//	or      = and { "|" and }
//	and     = unary { "&" unary }
//	unary   = "~" unary | primary
//	primary = Ident [ "(" [ String { "," String } ] ")" ] | "(" or ")"
type orExpr struct {
	Terms []*andExpr `parser:"@@ ( '|' @@ )*"`
}

type andExpr struct {
	Factors []*unaryExpr `parser:"@@ ( '&' @@ )*"`
}

type unaryExpr struct {
	Not     *unaryExpr   `parser:"  '~' @@"`
	Primary *primaryExpr `parser:"| @@"`
}

type primaryExpr struct {
	Call  *callExpr `parser:"  @@"`
	Group *orExpr   `parser:"| '(' @@ ')'"`
}

type callExpr struct {
	Name string   `parser:"@Ident"`
	Args []string `parser:"( '(' ( @String ( ',' @String )* )? ')' )?"`
}

var expressionParser = participle.MustBuild[orExpr](
	participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
		{Name: "String", Pattern: `"(\\"|[^"])*"`},
		{Name: "Ident", Pattern: `[a-zA-Z_]\w*`},
		{Name: "Punct", Pattern: `[|&~(),]`},
		{Name: "Whitespace", Pattern: `[ \r\n\t]+`},
	})),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
)

// Factory builds a named component from its string arguments.
type Factory func(args ...string) (Component, error)

// Catalog resolves component names used in expressions. Register every
// factory before the catalog is shared.
type Catalog struct {
	factories map[string]Factory
}

// NewCatalog returns a catalog holding the built-in components.
func NewCatalog() *Catalog {
	c := &Catalog{factories: make(map[string]Factory)}
	c.factories["AllowAny"] = fixed(AllowAny)
	c.factories["DenyAll"] = fixed(DenyAll)
	c.factories["IsAuthenticated"] = fixed(IsAuthenticated)
	c.factories["IsSuperUser"] = fixed(IsSuperUser)
	c.factories["IsObjectOwner"] = fixed(IsObjectOwner)
	c.factories["IsTheSameUser"] = fixed(IsTheSameUser)
	c.factories["AllowAnyGetPerm"] = fixed(AllowAnyGetPerm)
	c.factories["AllowAnyPostPerm"] = fixed(AllowAnyPostPerm)
	c.factories["AllOnlyGetPerm"] = fixed(AllOnlyGetPerm)
	c.factories["And"] = fixed(And())
	c.factories["Or"] = fixed(Or())
	c.factories["HasMandatoryParam"] = unary(HasMandatoryParam)
	c.factories["MethodIs"] = unary(MethodIs)
	c.factories["AuthenticatedMethod"] = unary(AuthenticatedMethod)
	return c
}

// Register adds a named factory. Names must be unique.
func (c *Catalog) Register(name string, f Factory) error {
	if _, exists := c.factories[name]; exists {
		return fmt.Errorf("component %q already registered", name)
	}
	c.factories[name] = f
	return nil
}

// Names returns the registered component names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse compiles an expression such as `IsSuperUser | ~HasMandatoryParam("q")`.
// NOT binds tighter than AND, which binds tighter than OR.
func (c *Catalog) Parse(src string) (Component, error) {
	ast, err := expressionParser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("parse permission expression %q: %w", src, err)
	}
	comp, err := c.buildOr(ast)
	if err != nil {
		return nil, fmt.Errorf("parse permission expression %q: %w", src, err)
	}
	return comp, nil
}

// MustParse is Parse that panics on error. Use it for expressions fixed at
// compile time.
func (c *Catalog) MustParse(src string) Component {
	comp, err := c.Parse(src)
	if err != nil {
		panic(err)
	}
	return comp
}

func (c *Catalog) buildOr(e *orExpr) (Component, error) {
	terms := make([]Component, 0, len(e.Terms))
	for _, t := range e.Terms {
		comp, err := c.buildAnd(t)
		if err != nil {
			return nil, err
		}
		terms = append(terms, comp)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return Or(terms...), nil
}

func (c *Catalog) buildAnd(e *andExpr) (Component, error) {
	factors := make([]Component, 0, len(e.Factors))
	for _, f := range e.Factors {
		comp, err := c.buildUnary(f)
		if err != nil {
			return nil, err
		}
		factors = append(factors, comp)
	}
	if len(factors) == 1 {
		return factors[0], nil
	}
	return And(factors...), nil
}

func (c *Catalog) buildUnary(e *unaryExpr) (Component, error) {
	if e.Not != nil {
		comp, err := c.buildUnary(e.Not)
		if err != nil {
			return nil, err
		}
		return Not(comp), nil
	}
	if e.Primary.Group != nil {
		return c.buildOr(e.Primary.Group)
	}
	call := e.Primary.Call
	factory, ok := c.factories[call.Name]
	if !ok {
		return nil, fmt.Errorf("unknown component %q", call.Name)
	}
	comp, err := factory(call.Args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", call.Name, err)
	}
	return comp, nil
}

func fixed(comp Component) Factory {
	return func(args ...string) (Component, error) {
		if len(args) != 0 {
			return nil, fmt.Errorf("expects no arguments, got %d", len(args))
		}
		return comp, nil
	}
}

func unary(build func(string) Component) Factory {
	return func(args ...string) (Component, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expects 1 argument, got %d", len(args))
		}
		return build(args[0]), nil
	}
}
