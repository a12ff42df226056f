package sqlstore

import (
	"errors"
)

// SQLite extended result codes.
const (
	codeConstraintForeignKey = 787
	codeConstraintPrimaryKey = 1555
	codeConstraintUnique     = 2067

	codeConstraint = 19
)

type sqliteCoder interface {
	Code() int
}

func resultCode(err error) int {
	var c sqliteCoder
	if errors.As(err, &c) {
		return c.Code()
	}
	return 0
}

func isUniqueViolation(err error) bool {
	code := resultCode(err)
	return code == codeConstraintUnique || code == codeConstraintPrimaryKey
}

func isForeignKeyViolation(err error) bool {
	return resultCode(err) == codeConstraintForeignKey
}

func isConstraint(err error) bool {
	return resultCode(err)&0xff == codeConstraint
}
