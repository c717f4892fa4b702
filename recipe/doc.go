// Package recipe describes synthesized modules in YAML.
//
// A recipe lists imported functions, locally defined functions with their
// bodies, and exports:
//
//	name: double
//	imports:
//	  - {module: env, name: log, arity: 1}
//	funcs:
//	  - name: double
//	    arity: 1
//	    body:
//	      - local.get 0
//	      - local.get 0
//	      - i64.add
//	      - call env.log
//	exports:
//	  - {func: double, name: run}
//
// Body lines use WebAssembly text format mnemonics for the i64 subset the
// function builder supports. call takes a function name or an import as
// module.name. Functions may call each other in any order.
//
// Imports are keyed by module.name alone. Declaring the same host function
// twice is rejected even at different arities; the builder API still
// accepts that.
package recipe
