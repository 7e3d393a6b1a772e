// Package session is warden's session authority.
//
// It issues paired access/refresh tokens bound to a single session id per
// user, persists session state in the kv store, and enforces the
// "most recent login wins" policy: establishing a session deletes the prior
// session and refresh-token records and overwrites the active-session
// pointer.
//
// Concurrency model: per-key store operations are atomic but the multi-key
// sequences in Establish and Revoke are not transactional. Two logins racing
// for the same user both attempt supersession; whichever write to the active
// pointer lands last wins and the loser's records are orphaned until their
// TTL reaps them. Every related key is written with the same conservative
// TTL so orphans are self-healing. The request-authentication path only
// reads and takes no locks.
package session
