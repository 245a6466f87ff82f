// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package auth implements Parley's credential and session core.
//
// # Domain Types
//
// Domain types should be created using their constructors:
//   - NewIdentity - creates an Identity with a validated nickname and password hash
//   - NewSession - creates a Session bound to an identity
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types from these
// constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - IdentityService - registration, lookup, password verification
//   - SessionService - login, logout, token validation, rotation
//
// Services are created with New*Service constructors that validate
// dependencies. All failures are typed (see errors.go) and carry oops codes;
// the package never logs, retries, or recovers internally - that policy
// belongs to the caller.
package auth
