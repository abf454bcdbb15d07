// Package identity establishes who is submitting an anchor.
//
// Submitters authenticate with HS256 bearer tokens minted by TokenIssuer.
// When no signing secret is configured the server runs in open mode and
// trusts the X-Submitter header instead.
package identity
