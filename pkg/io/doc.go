// Package io reads and writes rules as JSON files.
//
// # File Shapes
//
// Two shapes are accepted on import. A single rule object:
//
//	{
//	  "id": "checkout",
//	  "ruleSpecVersion": 1,
//	  "ruleVersion": 1,
//	  "steps": [
//	    {"id": "S1", "screenId": "home", "nextStepIds": ["S2"]},
//	    {"id": "S2", "screenId": "cart", "nextStepIds": []}
//	  ]
//	}
//
// and a multi-rule file wrapping several rule objects:
//
//	{"stepRules": [{...}, {...}]}
//
// [ReadRules] returns every rule of either shape; [ReadRule] returns the
// first one and fails with NO_RULES when the file holds none.
//
// # Export
//
// [WriteRule] and [ExportFile] write the single-rule shape, [WriteRules]
// and [ExportFileMulti] the multi-rule shape. Output is indented with two
// spaces. Property names are exactly those of the import format, so a file
// survives an import/export round trip unchanged apart from formatting and
// the normalisation of missing arrays to empty ones.
//
// # Errors
//
// Every failure is a coded [errors.Error]: FILE_NOT_FOUND for a missing
// input file, INVALID_JSON for malformed content, INVALID_FORMAT for JSON
// that is not an object, NO_RULES for an empty rule list. A failed import
// returns no rules at all, so callers never see a partially decoded file.
//
// [errors.Error]: github.com/matzehuels/rulemaker/pkg/errors.Error
package io
