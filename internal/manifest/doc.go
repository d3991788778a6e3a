// Package manifest parses and validates the template manifest
// (templates.yaml). Validation runs in two phases: the raw document is checked
// against an embedded JSON Schema, then the decoded manifest is checked for
// duplicate template ids, duplicate block references and block directories
// missing from the blocks root. Any issue fails the whole manifest.
package manifest
