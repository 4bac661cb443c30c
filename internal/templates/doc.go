// Package templates supplies the markup templates used by the template
// renderer.
//
// A Set has three parts: the folder template ({{url}}, {{name}},
// {{children}}), the file template ({{url}}, {{name}}) and the layout
// ({{tree}}). Defaults are embedded in the binary and produce a
// collapsible <details> view; a directory holding files with the same
// names overrides them.
package templates
