// Package domain contains the pure model for registration verification.
//
// # Registration Verification
//
// A registration number is issued by a regulator in one jurisdiction and
// asserts that a builder, project or agent is registered there. The pair
// (registration number, jurisdiction) is the natural key of every stored
// verification record.
//
// This package owns:
//   - Jurisdiction: closed set of known regulators plus an explicit unknown branch
//   - Category, Status, Method: closed enumerations used across the pipeline
//   - Validate: syntactic checks with hard failures and soft warnings
//   - FreshnessPolicy: status-dependent staleness windows
//   - Confidence: bounded trust score
//
// # Domain Purity
//
//	✓ No I/O
//	✓ No context.Context in function signatures
//	✓ No time.Now() calls - time is received as parameters
//
// The service layer injects the current time and coordinates the cache,
// partner client, persister and manual queue around these rules.
package domain
