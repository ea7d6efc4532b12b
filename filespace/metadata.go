package filespace

// CodeMetadata holds formatting information probed from editor settings.
// Every field is independently optional; nil means the field has never
// been set.
type CodeMetadata struct {
	// FileType is an editor-specific file type tag.
	FileType *string

	// TabSize is the display width of a tab character.
	TabSize *int

	// IndentSize is the number of columns per indent level.
	IndentSize *int

	// UsesTabs indicates whether indentation uses tabs instead of spaces.
	UsesTabs *bool
}

// clone returns a deep copy so callers cannot mutate stored state through
// the returned pointers.
func (m CodeMetadata) clone() CodeMetadata {
	out := CodeMetadata{}
	if m.FileType != nil {
		v := *m.FileType
		out.FileType = &v
	}
	if m.TabSize != nil {
		v := *m.TabSize
		out.TabSize = &v
	}
	if m.IndentSize != nil {
		v := *m.IndentSize
		out.IndentSize = &v
	}
	if m.UsesTabs != nil {
		v := *m.UsesTabs
		out.UsesTabs = &v
	}
	return out
}
