package domain

import "fmt"

// PathSensitivity tells the executor how a file argument contributes to
// the task's cache identity.
type PathSensitivity int

const (
	// PathNone ignores the path entirely; only the file content counts.
	PathNone PathSensitivity = iota
	PathAbsolute
	PathRelative
	PathNameOnly
)

func (p PathSensitivity) String() string {
	switch p {
	case PathNone:
		return "none"
	case PathAbsolute:
		return "absolute"
	case PathRelative:
		return "relative"
	case PathNameOnly:
		return "name_only"
	}
	return fmt.Sprintf("PathSensitivity(%d)", int(p))
}

// Argument is one element of a tool command line.
// Implementations: ValueArg, FileArg, FileOutputArg, ClasspathArg.
type Argument interface {
	fmt.Stringer
	isArgument()
}

// ValueArg renders its input verbatim.
type ValueArg struct {
	Input Input
}

// FileArg renders the path of the file its input resolves to.
type FileArg struct {
	Input       Input
	Sensitivity PathSensitivity
}

// FileOutputArg renders the path of a file the tool is expected to create.
// The file becomes the task's result for Slot.
type FileOutputArg struct {
	Slot      string
	Extension string
}

// ClasspathArg renders a list of files. When ListFile is set the executor
// writes the entries to a file, one per line with Prefix prepended, and
// passes that file's path; otherwise the entries are joined with the
// platform path separator.
type ClasspathArg struct {
	Input    Input
	ListFile bool
	Prefix   string
}

func (ValueArg) isArgument()      {}
func (FileArg) isArgument()       {}
func (FileOutputArg) isArgument() {}
func (ClasspathArg) isArgument()  {}

func (a ValueArg) String() string { return a.Input.String() }

func (a FileArg) String() string {
	return fmt.Sprintf("file(%s)", a.Input)
}

func (a FileOutputArg) String() string {
	return fmt.Sprintf("out(%s.%s)", a.Slot, a.Extension)
}

func (a ClasspathArg) String() string {
	if a.ListFile {
		return fmt.Sprintf("classpath-file(%s, prefix=%q)", a.Input, a.Prefix)
	}
	return fmt.Sprintf("classpath(%s)", a.Input)
}

// Literal is a ValueArg over a plain string.
func Literal(s string) ValueArg {
	return ValueArg{Input: Direct(s)}
}

// argumentInput returns the input an argument consumes, if any.
func argumentInput(a Argument) (Input, error) {
	switch arg := a.(type) {
	case ValueArg:
		return arg.Input, nil
	case FileArg:
		return arg.Input, nil
	case ClasspathArg:
		return arg.Input, nil
	case FileOutputArg:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: argument %T", ErrUnknownKind, a)
}
