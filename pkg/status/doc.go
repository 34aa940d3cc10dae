/*
Package status manages file storage and per-file outcome tracking for
sourcefix.

	            +-------------+
	            |   Status    |
	            |  (Storage)  |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |                       |
	+-----+-----+           +----+----+
	|   Files   |           | Outcome |
	| (Storage) |           | (UI/UX) |
	+-----------+           +---------+

🎯 Purpose:
  - Reads sources and writes fixes atomically (temp file + rename)
  - Tracks the outcome of every file in a batch (clean, reported, fixed,
    cached, ignored, crashed)
  - Reports batch progress

🔄 Flow:
 1. The batch runner reads a file through the FileManager
 2. Fixed content is written with WriteFileAtomic after the cache entry for
    the file has been removed
 3. Each outcome is recorded with TrackFile
 4. The CLI summarizes Counts() and TotalPlaces()

🤝 Interfaces:
  - FileManager: Handles file operations
  - StatusReporter: Tracks outcomes and progress
  - FileFormatter: Formats status messages

🔍 Example:

	mgr := status.New(cwd, zerolog.Ctx(ctx))

	src, err := mgr.ReadFile(ctx, "src/app.js")
	if err != nil {
		return err
	}

	if err := mgr.WriteFileAtomic(ctx, "src/app.js", fixed); err != nil {
		return err
	}

	mgr.TrackFile(ctx, "src/app.js", status.FileInfo{Path: "src/app.js", Status: status.StatusFixed})
*/
package status
