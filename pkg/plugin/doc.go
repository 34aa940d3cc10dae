/*
Package plugin resolves named rules and compiles them for the engine.

🔌 Contract

A rule is any value implementing Plugin. It may additionally implement:

	Matcher   template -> guard(bindings, path) (bool, error)
	Replacer  template -> replace(bindings, path) (Replacement, error)
	Finder    find(path) (bool, error)
	Fixer     fix(path) error

🔍 Resolution

Names are tried against an ordered list of resolvers and the first hit wins:

	1. inline      plugins handed in by the caller
	2. builtin     sourcefix/plugin-<name>, registered from pkg/plugins
	3. rulesdir    sourcefix-plugin-<name>.{yaml,yml,json,hcl}
	4. remote      the same file fetched from a provider

When every resolver misses the result is a *NotFoundError and the run stops
before any file is processed.
*/
package plugin
