/*
Package actor manages the local user directory: creating accounts, resolving
WebFinger account resources to local users, and changing or checking
passwords.

Passwords are never stored. Each account keeps a random 256-byte salt and the
256-byte Argon2id hash derived from it, both encoded as unpadded base64 so
they are always 342 characters and contain nothing that needs escaping inside
a query literal. Derivations run on a Hasher, which bounds how many run at
once.

# Basic Usage

	mgr, err := actor.New(actor.Config{DB: client, Logger: logger})
	if err != nil {
		// handle error
	}

	id, err := mgr.CreateUser(ctx, "bob", "correct horse")
	name, err := mgr.LocalActor(ctx, "acct:bob@example.com")
*/
package actor
