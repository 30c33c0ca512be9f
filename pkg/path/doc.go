// Package path compiles slash-delimited device resource paths into typed
// wire components.
//
// Each non-empty token is resolved on its own, with no context from its
// neighbours, by trying an ordered list of resolvers. The first resolver that
// accepts the token wins:
//
//  1. ResourceID
//  2. ModuleType
//  3. ParameterID
//  4. OptionID
//  5. InputID
//  6. OutputID
//  7. SystemOptionID
//  8. integer
//  9. string (always accepts)
//
// The same text can be valid under several enumerations ("phase" is both a
// resource and an option), so this order is part of the addressing contract.
// Compilation never fails: a token no enum or integer parse accepts becomes a
// string argument.
package path
