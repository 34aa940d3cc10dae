/*
Package cache memoizes the places computed for a file.

An entry is valid while both the content fingerprint of the file and the
fingerprint of the options it was processed with are unchanged:

	path -> { contentFingerprint, optionsFingerprint, places }

💾 Lifecycle

	Open       load the store once at batch start (skipped when fresh)
	CanUseCache / GetPlaces / SetInfo / RemoveEntry while processing files
	Reconcile  flush everything to the store once, after the last file

The cache is an optimization only. A malformed store or entry is a miss,
never an error. Two stores exist: a JSON file written atomically and a
badger database.
*/
package cache
