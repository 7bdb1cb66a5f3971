// Package session holds the client-side state of one review session: the
// editor buffer, the last report and refactored code, the chat history, the
// console log and one state machine per operation kind.
//
// Review, Refactor and Chat block until the gateway answers and may be called
// from separate goroutines. Responses that arrive after Clear, or after a
// newer call of the same kind, are discarded.
package session
