/*
Package operation runs sourcefix over a batch of files.

	+-------------+
	|   Runner    |
	|   (Batch)   |
	+------+------+
	       |
	+------+------+
	|   Process   |
	|   (File)    |
	+------+------+

🔄 Flow, per file and in order:
 1. Skip ignored files
 2. Read the file and fingerprint content and effective options
 3. Serve the places from the cache when the entry is still valid
 4. Otherwise extract segments, run each through the engine and the
    external linter, and shift the places to file coordinates
 5. Reinsert the segments and, in fix mode, write the result atomically
    after dropping the cache entry
 6. Record the outcome in the cache unless the parser crashed

🔄 Flow, per batch:
  - Single rule toggles (--enable, --disable) only edit the config
  - The cache is reconciled exactly once, after the last file
  - Bulk rule toggles (--enable-all, --disable-all) run after the batch on
    every place reported, and the linter is skipped for them

Files are processed one at a time. The cache and the ruler both need the
complete set of places, so nothing is shared across goroutines.

🔍 Example:

	runner, err := operation.New(operation.Options{
		Config:   cfg,
		Registry: registry,
		Cache:    fc,
		Status:   status.New(dir, zerolog.Ctx(ctx)),
	})
	summary, err := runner.Run(ctx, files)
	os.Exit(summary.ExitCode())
*/
package operation
