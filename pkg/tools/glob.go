// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package tools

import (
	"fmt"
	"regexp"
	"strings"
)

// Glob dialect for permission rules and the Glob tool:
//
//	*      any run of characters except '/'
//	**     any run of characters including '/'
//	?      any single character except '/'
//	[set]  character class ([!set] negates)
//	{a,b}  alternation
//
// Patterns are matched against whole paths (anchored both ends).
// path/filepath.Match covers neither '**' nor '{a,b}', so patterns are
// compiled to regular expressions once and reused.

// CompileGlob compiles a glob pattern into an anchored regular expression.
func CompileGlob(pattern string) (*regexp.Regexp, error) {
	expr, err := globToRegexp(pattern)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
	}
	return re, nil
}

// MatchGlob reports whether path matches the glob pattern.
func MatchGlob(pattern, path string) (bool, error) {
	re, err := CompileGlob(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(path), nil
}

func globToRegexp(pattern string) (string, error) {
	var sb strings.Builder
	sb.WriteString("^(?:")

	// Byte indexing throughout: every metacharacter is ASCII, and bytes
	// of a multibyte rune pass through the default case unchanged.
	braceDepth := 0
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				sb.WriteString(".*")
				i++
			} else {
				sb.WriteString("[^/]*")
			}
		case '?':
			sb.WriteString("[^/]")
		case '[':
			end := strings.IndexByte(pattern[i+1:], ']')
			if end < 0 {
				return "", fmt.Errorf("invalid glob %q: unclosed character class", pattern)
			}
			class := pattern[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			sb.WriteString("[" + class + "]")
			i += end + 1
		case '{':
			braceDepth++
			sb.WriteString("(?:")
		case '}':
			if braceDepth == 0 {
				return "", fmt.Errorf("invalid glob %q: unbalanced '}'", pattern)
			}
			braceDepth--
			sb.WriteString(")")
		case ',':
			if braceDepth > 0 {
				sb.WriteString("|")
			} else {
				sb.WriteString(",")
			}
		case '.', '+', '(', ')', '|', '^', '$', '\\':
			sb.WriteString("\\" + string(c))
		default:
			sb.WriteByte(c)
		}
	}
	if braceDepth != 0 {
		return "", fmt.Errorf("invalid glob %q: unclosed '{'", pattern)
	}

	sb.WriteString(")$")
	return sb.String(), nil
}
