// Package atom loads the atom namespace: named fragments of reusable content
// exposed to every template render under the "atoms" key.
//
// Each direct child of the atom root is one atom. A file without a structured
// suffix is a text atom; a file with one of the structured suffixes (.yaml,
// .yml, .json, .toml, .hcl) is parsed into a JSON-like value; a directory is
// a composite atom whose immediate files become keys named after their
// suffix. Names are unique across the whole namespace.
package atom
