package dice

import (
	"fmt"
	"regexp"
	"strconv"
)

// Expression is a parsed dice expression of the form "NdS", "NdS+M", or "NdS-M".
type Expression struct {
	Count    int    // number of dice, >= 1
	Sides    int    // faces per die, >= 2
	Modifier int    // flat modifier, may be negative
	Raw      string // original expression string
}

var exprPattern = regexp.MustCompile(`^(\d+)d(\d+)([+-]\d+)?$`)

// Parse converts a dice expression string into an Expression.
//
// Precondition: expr must match "NdS", "NdS+M", or "NdS-M" with N >= 1 and S >= 2.
// Postcondition: Returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	m := exprPattern.FindStringSubmatch(expr)
	if m == nil {
		return Expression{}, fmt.Errorf("invalid dice expression %q", expr)
	}
	count, err := strconv.Atoi(m[1])
	if err != nil || count < 1 {
		return Expression{}, fmt.Errorf("invalid dice count in %q", expr)
	}
	sides, err := strconv.Atoi(m[2])
	if err != nil || sides < 2 {
		return Expression{}, fmt.Errorf("invalid die sides in %q", expr)
	}
	modifier := 0
	if m[3] != "" {
		modifier, err = strconv.Atoi(m[3])
		if err != nil {
			return Expression{}, fmt.Errorf("invalid modifier in %q", expr)
		}
	}
	return Expression{Count: count, Sides: sides, Modifier: modifier, Raw: expr}, nil
}

// MustParse parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}

// Roll evaluates the expression using src and returns the total.
//
// Precondition: e must come from Parse; src must be non-nil.
// Postcondition: Returns a value in [Count + Modifier, Count*Sides + Modifier].
func (e Expression) Roll(src Source) int {
	total := e.Modifier
	for i := 0; i < e.Count; i++ {
		total += src.Intn(e.Sides) + 1
	}
	return total
}
