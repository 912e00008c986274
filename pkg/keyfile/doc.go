/*
Package keyfile stores an armor.Secret at rest, locked with a key derived from a user-provided passphrase.

# How it works:

A key is derived from the passphrase and a random salt using scrypt, and the Secret is sealed with AES-256-GCM.
The scrypt tuning values, salt, and nonce are written in a fixed-size header next to the sealed Secret, so Unlock only needs the passphrase.

# General guidelines:
  - Both short and long delay iteration GeneratorOpt functions are provided. A keyfile is typically unlocked once per process, so the long delay default is usually fine.
  - Don't use SetIterations, SetCPUCost, or SetRelativeBlockSize unless you know what you're doing.
  - Tampering with any part of a keyfile makes Unlock fail, it can't be used to recover a different Secret.
*/
package keyfile
