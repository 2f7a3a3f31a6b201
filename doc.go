// Package identity provides credential verification, signed token issuance,
// and admin guarded user management for applications that need a small,
// self-contained auth core.
//
// The package is organized around a few collaborators:
//   - Users is the credential store: a Bun backed repository of user records
//     with soft deletes and case-insensitive identifier lookups.
//   - TokenService issues and validates stateless HS256 JWTs carrying the
//     user id, username, and role. Tokens are valid until expiry; there is
//     no server side session state and no revocation list.
//   - Auther orchestrates login and drives the token service, the password
//     hasher, and the store. Every login rejection is reported to callers as
//     ErrInvalidCredentials regardless of the internal cause.
//   - Guard resolves a raw token back to an Identity, re-checking the store
//     so tokens for deleted or deactivated accounts stop working for any
//     request that reaches it, and gates operations by role.
//   - The command handlers (CreateUserHandler, UpdateUserHandler, ...)
//     implement the admin operations. Each runs its uniqueness probes and
//     the last-admin count inside the same store transaction as the write.
//   - Admin fronts the handlers, requiring an admin actor for every call.
//
// EnsureDefaultAdmin seeds an empty store with a single admin account that
// must change its password on first login. The middleware/fiberauth
// subpackage mounts the Guard on a fiber application.
package identity
