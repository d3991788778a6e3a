// Package materialize turns source trees into output trees.
//
// Each file under a layer is classified by name alone (see Classify) and then
// copied, rendered through text/template, or recreated as a symbolic link.
// Layers are folded in order into a single destination, so a file from a
// later layer replaces the same relative path written by an earlier one.
package materialize
