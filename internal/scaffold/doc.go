// Package scaffold generates template repositories. For each template in the
// manifest it clears out/<id>, builds the render context from the template's
// fields and the shared atoms, and materializes the global files followed by
// each block in declared order.
package scaffold
