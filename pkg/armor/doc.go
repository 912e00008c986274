/*
Package armor disguises arbitrary binary data as a sequence of word-salad messages, using a word mapping that rotates every day.

Note that this is NOT encryption.
The mapping is a keyed permutation over a small alphabet, and a motivated adversary can recover it with dictionary or frequency analysis.
It's intended to keep non-text payloads from being picked out by casual or automated content classifiers.

# How it works:

Both parties hold the same Catalog of unique words and the same 128-bit Secret.
BuildTable derives a Table from the Secret and a calendar Date by shuffling every catalog index and slicing the result into four disjoint roles:
five begin markers, five end markers, five fragment markers, and one word for each possible 16-bit value.

Don splits the input into big-endian 16-bit values, replaces each with its word, wraps the sequence in a random begin and end marker, and cuts the result into messages no longer than a character limit.
Every message after the first starts with a random fragment marker followed by the word for its sequence number.

Doff accepts the messages in any order, uses the markers to place each one, and maps the words back to bytes.

# Important notes:
  - Both parties must agree on the Date, which is always taken in UTC. A mismatched date produces an unrelated Table, which shows up as ErrMalformedMessage.
  - Input with an odd length is padded with a single zero byte, and the original length is not recorded. Callers that need an exact round trip must carry the length themselves.
  - Tokens that aren't in the Catalog are silently dropped when decoding. This tolerates transport noise, but a mangled data word makes the output silently shorter rather than failing.
*/
package armor
