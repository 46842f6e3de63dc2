// Package flatpath turns template nodes plus repeat indices into FLAT
// document keys and parses keys back into their static AQL path, repeat
// indices and suffix.
//
// A repeat index is written as ":<n>" right after the aqlPath segment of the
// repeating node it belongs to:
//
//	/content[openEHR-EHR-OBSERVATION.glasgow_coma_scale.v1]:1/data[at0001]/events[at0002]:0/data[at0003]/items[at0009]/value|code
package flatpath
