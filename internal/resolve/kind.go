package resolve

// Kind identifies the asset kind of a compilation unit. A unit never spans
// stages; the pipeline runs kinds in fixed order (style, script, template).
type Kind int

const (
	KindStyle Kind = iota
	KindScript
	KindTemplate
)

func (k Kind) String() string {
	switch k {
	case KindStyle:
		return "sass"
	case KindScript:
		return "js"
	case KindTemplate:
		return "jinja"
	}
	return "unknown"
}

// SourceExt returns the source file extension matched during directory
// expansion for this kind.
func (k Kind) SourceExt() string {
	switch k {
	case KindStyle:
		return ".scss"
	case KindScript:
		return ".js"
	case KindTemplate:
		return ".j2"
	}
	return ""
}

// OutputExt returns the extension of outputs derived from discovered sources.
// Template outputs simply drop the source extension.
func (k Kind) OutputExt() string {
	switch k {
	case KindStyle:
		return ".css"
	case KindScript:
		return ".min.js"
	}
	return ""
}
