package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *WebCompileError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *WebCompileError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration file invalid").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *WebCompileError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Resolution errors

func UnreadableDirectory(path string, cause error) *WebCompileError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "input directory unreadable").
		WithContext("path", path)
}

func UnmatchedTranslateRoot(pair string) *WebCompileError {
	return New(CategoryConfig, SeverityFatal, "translate pair matched no source root").
		WithContext("pair", pair)
}

// Per-unit errors

func SourceNotFound(path string) *WebCompileError {
	return New(CategoryIO, SeverityError, "path does not exist").
		WithContext("path", path)
}

func ReadFailed(path string, cause error) *WebCompileError {
	return Wrap(cause, CategoryIO, SeverityError, "source unreadable").
		WithContext("path", path)
}

func WriteFailed(path string, cause error) *WebCompileError {
	return Wrap(cause, CategoryIO, SeverityError, "output unwritable").
		WithContext("path", path)
}

func CompileFailed(path string, cause error) *WebCompileError {
	return Wrap(cause, CategoryCompile, SeverityError, "compilation failed").
		WithContext("path", path)
}

func DanglingReference(source string) *WebCompileError {
	return New(CategoryReference, SeverityError, "no compiled path registered for source").
		WithContext("source", source)
}

// Git errors

func GitRepoNotFound(root string) *WebCompileError {
	return New(CategoryGit, SeverityFatal,
		"config file not at the root of a git repository (use --no-git-add)").
		WithContext("root", root)
}

func GitIndexError(path string, cause error) *WebCompileError {
	return Wrap(cause, CategoryGit, SeverityWarning, "git index update failed").
		WithContext("path", path)
}

// Internal errors

func InternalError(message string, cause error) *WebCompileError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
