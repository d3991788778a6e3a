package materialize

import "fmt"

// FilesystemError reports a failed filesystem operation on a path.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// UndefinedVariableError reports a template reference to a name or key that
// is not present in the render context.
type UndefinedVariableError struct {
	Path string
	// Name is the dotted reference, e.g. "atoms.missing_atom", when it can
	// be recovered from the engine's message.
	Name string
	Err  error
}

func (e *UndefinedVariableError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("undefined variable %q in %s: %v", e.Name, e.Path, e.Err)
	}
	return fmt.Sprintf("undefined variable in %s: %v", e.Path, e.Err)
}

func (e *UndefinedVariableError) Unwrap() error { return e.Err }

// RenderError reports a template that failed to parse or execute for a
// reason other than an undefined reference.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
