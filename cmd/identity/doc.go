// Package identity is warden's durable user directory.
//
// It owns the canonical user record (id, name, email, password hash, role)
// and nothing else: all short-lived auth state lives in the kv store, and the
// directory is only ever referenced by id or normalized email.
package identity
