// Package datavalue models the openEHR data values a bound field can hold and
// the rules for splitting them into FLAT suffix parts ("|code", "|magnitude",
// ...) and joining them back.
package datavalue
