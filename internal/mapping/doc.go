// Package mapping holds the portable mapping artifact that records what
// discovery found in a model, together with the model's fingerprint.
//
// The artifact is JSON:
//
//	{
//	  "version": "1.0",
//	  "inp_file_hash": "<fingerprint>",
//	  "input_count": 2,
//	  "output_count": 1,
//	  "inputs":  [{"index": 0, "name": "ElapsedTime", "object_type": "SYSTEM", "property": "ELAPSEDTIME"}, ...],
//	  "outputs": [{"index": 0, "name": "POND", "object_type": "STORAGE", "property": "VOLUME"}]
//	}
//
// Serialize is deterministic. Deserialize checks structure in a fixed order
// and reports the first problem as a *ParseError, then validates the shape
// against an embedded CUE schema. Unknown entry keys written by other
// generators are tolerated.
package mapping
