// Package pathwise implements the backend for the Pathwise education
// consultancy platform: account registration and session management for
// students, consultants, and admins, role-gated routing, the admin
// back-office surface, and the GDPR data-subject access/erasure workflow.
//
// Notable behaviors:
//   - Login treats "unknown email" and "wrong password" identically so the
//     endpoint cannot be used to enumerate accounts.
//   - Registration creates the account and its student profile in a single
//     transaction; a duplicate email produces the same generic outcome as
//     any other conflict.
//   - GDPR erasure writes its audit row before any destructive work and
//     enumerates dependent-record deletions explicitly instead of relying
//     on database-declared cascades.
package pathwise
