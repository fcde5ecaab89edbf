// SPDX-License-Identifier: MPL-2.0

// Package expr compiles and evaluates environment activation expressions.
//
// An expression is a predicate over the set of active environment names, so a
// moldfile author can write `prod + (linux | darwin)` instead of listing every
// combination:
//
//	or   := and ('|' or)?
//	and  := not ('+' and)?
//	not  := '~' atom | atom
//	atom := name | '*' | '?' | '(' or ')'
//
// '+' is AND, '|' is OR, '~' negates the next atom only, and '*' / '?' always
// match. Names are made of ASCII letters, digits, '_' and '-'.
//
// By default the tokenizer skips characters it does not recognize. Pass
// [Strict] to [Compile] to reject them instead.
package expr
