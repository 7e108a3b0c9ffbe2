package main

import (
	"strconv"
	"strings"

	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/SF/errors"
)

// parseLiteral reads a command-line literal. "type:text" parses text with
// the named type; otherwise null, booleans, integers, floats and quoted
// strings are recognized and anything else is taken as text.
func parseLiteral(cat *ext.Catalog, s string) (ext.Value, error) {
	if name, body, ok := strings.Cut(s, ":"); ok {
		if te, ok := cat.TypeByName(name); ok {
			v, err := te.ParseText(body)
			if err != nil {
				return ext.Value{}, errors.Wrap(err, errors.CodeOf(err), "literal %q", s)
			}
			return v, nil
		}
	}
	switch strings.ToLower(s) {
	case "null":
		return ext.Null(), nil
	case "true":
		return ext.Bool(true), nil
	case "false":
		return ext.Bool(false), nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ext.Int(n), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return ext.Float(f), nil
	}
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return ext.Text(s[1 : len(s)-1]), nil
	}
	return ext.Text(s), nil
}

// formatValue renders v with its type's text format.
func formatValue(cat *ext.Catalog, v ext.Value) (string, string) {
	dt, err := cat.TypeOf(v)
	if err != nil {
		return v.String(), "?"
	}
	te, ok := cat.Type(dt.ID())
	if !ok {
		return v.String(), dt.Name()
	}
	s, err := te.FormatText(v)
	if err != nil {
		return v.String(), dt.Name()
	}
	return s, dt.Name()
}
