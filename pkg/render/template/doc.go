// Package template defines the template engine contract used by the markup
// renderer. The gotemplate subpackage implements it on pongo2.
package template
