// Completion: 100% - token definitions complete
package main

// TokenType enumerates the lexical categories of the source language
// (spec §1): scalar types, control flow, declarations, and the small
// operator/punctuation set a C-like statement language needs.
type TokenType int

const (
	TokEOF TokenType = iota
	TokIdent
	TokNumber
	TokString

	TokKwBool
	TokKwUint8
	TokKwUint16
	TokKwUint32
	TokKwString
	TokKwIf
	TokKwElse
	TokKwWhile
	TokKwGoto
	TokKwReturn
	TokKwFunc
	TokKwMain

	TokPlus
	TokMinus
	TokStar
	TokSlash
	TokPercent
	TokShl
	TokShr
	TokAssign
	TokEq
	TokNe
	TokLt
	TokGt
	TokLe
	TokGe
	TokAndAnd
	TokOrOr
	TokNot
	TokAmp // address-of / pointer sigil

	TokLParen
	TokRParen
	TokLBrace
	TokRBrace
	TokComma
	TokSemicolon
	TokColon

	TokDirectiveStack
)

var keywords = map[string]TokenType{
	"bool":   TokKwBool,
	"uint8":  TokKwUint8,
	"uint16": TokKwUint16,
	"uint32": TokKwUint32,
	"string": TokKwString,
	"if":     TokKwIf,
	"else":   TokKwElse,
	"while":  TokKwWhile,
	"goto":   TokKwGoto,
	"return": TokKwReturn,
	"func":   TokKwFunc,
	"main":   TokKwMain,
}

// Token is one lexed unit with its source position for diagnostics.
type Token struct {
	Type TokenType
	Text string
	Line int
	Col  int
}
