/*
Package provider defines the interface for remote rule pack sources.

	+-------------+        +-------------+
	|   plugin    | -----> |  Provider   |
	|  resolver   |        |  (remote)   |
	+-------------+        +------+------+
	                              |
	                        +-----+-----+
	                        |  GitHub   |
	                        +-----------+

🎯 Purpose:
  - Fetch declarative rule files that are not present locally
  - List what a remote rule pack offers

🔄 Flow:
 1. The config names a remote repo, ref and path
 2. The plugin resolver asks the provider for sourcefix-plugin-<name> files
 3. A missing file is reported as ErrNotFound so resolution can move on

Providers register a Factory from init(), the same way config parsers do.
*/
package provider
