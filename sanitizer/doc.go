// Package sanitizer turns untrusted article HTML from third-party RSS/Atom
// feeds into markup that is safe to hand to a renderer's raw-HTML injection
// point.
//
// # Pipeline
//
// Every call runs the same stateless steps:
//
//  1. cap: input longer than [Policy.MaxInputBytes] is cut at a UTF-8 boundary
//  2. decode: one level of HTML character references is reversed
//     ([DecodeEntities]), undoing double-encoding by upstream feed processors
//  3. sanitize: the allow-list in [Policy] is enforced by bluemonday, tags
//     nested deeper than [Policy.MaxDepth] are dropped in one token pass, then
//     the result is re-parsed as a body fragment and checked again
//  4. inject: [InjectAttributes] forces link and image attributes
//  5. wrap: the output is returned as [SanitizedContent], which the
//     presentation layer turns into a [RenderHTML] value
//
// # Policies
//
// A [Policy] is built once with [NewPolicy] and never mutated. Configuration
// mistakes are reported as a [*PolicyConfigurationError] at construction
// time; sanitizing input never fails; hostile or malformed markup degrades
// to a smaller safe subset instead.
//
// # Concurrency
//
// A [Sanitizer] holds only immutable state and is safe for concurrent use.
//
// # Example
//
//	s := sanitizer.New(sanitizer.DefaultPolicy())
//	out := s.Sanitize(article.Content)
//	view := sanitizer.WrapForRender(out)
package sanitizer
