/*
Package config manages configuration parsing, path overlays and rule state
for sourcefix.

	            +--------------+
	            |    Config    |
	            | (.sourcefix) |
	            +------+-------+
	                   |
	     +-------------+-------------+
	     |             |             |
	+----+----+   +----+----+   +----+----+
	|  JSON   |   |  YAML   |   |   HCL   |
	| Parser  |   | Parser  |   | Parser  |
	+---------+   +---------+   +---------+
	                   |
	            +------+-------+
	            |   RuleSet    |
	            |  (per file)  |
	            +--------------+

🎯 Purpose:
  - Loads .sourcefix.{json,yaml,yml,hcl}
  - Resolves the effective rule state for one file from the global rules and
    the ordered `match` overlays
  - Fingerprints effective options for the incremental cache
  - Writes rule edits back to the config file

🔄 Flow:
 1. Find or receive a config path
 2. Pick the registered parser for the file name
 3. Validate and apply defaults
 4. Per file: ForFile(path) merges overlays in declaration order

⚡ Overlay semantics:
An overlay whose value is "off" clears every rule merged so far for the file
and disables the rest; overlays matching later can switch individual rules
back on. Any other overlay value is a map of rule states merged over what
came before.

🔍 Example:

	cfg, err := config.Load(ctx, ".sourcefix.yaml")
	if err != nil {
		return err
	}

	rules, err := cfg.ForFile("src/app.js")
	if err != nil {
		return err
	}

	if rules.Enabled("remove-debugger") {
		// ...
	}
*/
package config
