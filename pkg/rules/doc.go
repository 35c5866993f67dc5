// Package rules evaluates small expressions against a preference snapshot.
//
// The prefs package uses rules to compute registered defaults lazily: a
// default registered as prefs.Rule("darkMode ? 'dark' : 'light'") is handed
// to an Evaluator together with the current preference dictionary and the
// key being derived. Three engines are available behind the same interface:
//
//   - expr (github.com/expr-lang/expr), the default
//   - cel (github.com/google/cel-go)
//   - js (github.com/dop251/goja), compiled in with the js_eval build tag
//
// Evaluators are safe for concurrent use when their ProgramCache and
// FunctionRegistry are.
package rules
