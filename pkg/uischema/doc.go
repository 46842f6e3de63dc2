// Package uischema loads UI overlays that adjust how a Web Template is
// presented without editing the template itself. An overlay targets one
// template id and maps node id paths to widget choices, label and
// description overrides, and free-form annotations.
//
// Overlays are applied to a copy of the template, so a parsed template can
// be shared between forms with and without overlays.
package uischema
