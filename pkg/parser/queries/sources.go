package queries

// hookCallsQuery matches calls whose callee is a plain identifier. Callers
// filter for the `use` prefix; predicates are kept out of the query so the
// same source compiles on every grammar.
const hookCallsQuery = `
(call_expression
  function: (identifier) @hook.name
  arguments: (arguments) @hook.args) @hook.call
`

// memberCallsQuery matches `object.property(...)` calls.
const memberCallsQuery = `
(call_expression
  function: (member_expression
    object: (_) @member.object
    property: (property_identifier) @member.property)
  arguments: (arguments) @member.args) @member.call
`

// importsQuery matches import statements and their source module.
const importsQuery = `
(import_statement
  source: (string (string_fragment) @import.source)) @import.statement
`

// jsxTagsQuery matches opening and self-closing JSX tags. Only the
// JavaScript and TSX grammars define these nodes.
const jsxTagsQuery = `
(jsx_opening_element
  name: (_) @jsx.name) @jsx.element

(jsx_self_closing_element
  name: (_) @jsx.name) @jsx.element
`
