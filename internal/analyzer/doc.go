// Package analyzer defines the backend abstraction the gateway dispatches to and
// ships the default deterministic backend.
//
// Stub is not a static analyzer. It runs a small set of line-oriented heuristics
// so that the gateway returns believable, stable reports without any external
// service. Backends that proxy to a real model live in other packages and
// satisfy the same Backend interface.
package analyzer
