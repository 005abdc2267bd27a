/*

Process of compilation

Preprocessed C Text ->
	lex ->
Tokens (front.Token) ->
	parse ->
Abstract Syntax Tree (ast) ->
	tacky ->
Three Address Code (ir) ->
	codegen ->
Assembly Tree (asm) ->
	emit ->
Assembly Text ->
	gcc ->
Binary Executable

Preprocessing and linking are done by the external toolchain (see toolchain).

*/
package compiler
