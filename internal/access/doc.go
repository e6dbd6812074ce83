// Package access holds the access code allow-list.
//
// Entries are either plain codes or bcrypt hashes ($2a$, $2b$ or $2y$
// prefix). Successful bcrypt matches are remembered for a short time, keyed by
// the code's SHA-256 fingerprint, so repeated requests with the same code skip
// the hash comparison. Plain codes are compared in constant time.
//
// Codes are never logged; use Fingerprint to correlate requests instead.
package access
