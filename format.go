package tagparse

import "github.com/tagparse/tagparse/model"

// FormatType returns the canonical textual form of d, for prompt templates
// that substitute a return-type token (§6).
func FormatType(d *model.Descriptor) string { return model.FormatType(d) }

// TypeDescription returns FormatType(d) plus the class docstring, if any.
func TypeDescription(d *model.Descriptor) string { return model.TypeDescription(d) }
