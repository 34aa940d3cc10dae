/*
Package engine runs a file's rules to a bounded fixed point.

	Parsed -> Scanning -> (Mutating -> Reparsing)* -> Settled

🔍 Scanning walks the tree in pre-order and tries every enabled rule at every
node. An accepted match becomes a place and, in fix mode, a set of pending
edits.

✏️ Mutating applies the pending edits of one round. Edits overlapping an edit
already accepted in the round are deferred to the next round.

🌳 Reparsing parses the new text from scratch. The loop stops when a scan
produces nothing to apply or after FixCount rounds, whichever comes first.

Rule errors and panics become places named after the rule; a parse failure
becomes a single crash/parser place and the original text is returned.
*/
package engine
