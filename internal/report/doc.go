// Package report defines the contract for review reports crossing the boundary
// between the gateway and its clients.
//
// Validate checks a raw payload against a JSON schema, decodes it into
// models.ReviewReport and degrades what it can: unrecognized severity or category
// values land in the "unknown" bucket and the summary is always recomputed from the
// issue list. Those degradations are returned as warnings; only structural problems
// fail validation.
package report
