package parse

import (
	"errors"
	"unicode/utf8"
)

// plainParser handles text formats stored as-is (.txt, .md, .csv).
type plainParser struct{}

func (plainParser) Parse(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("file is not valid UTF-8")
	}
	return string(data), nil
}
