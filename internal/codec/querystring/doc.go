// Package querystring converts tile data between typed records and the flat
// query-string wire format, where each key may carry type tokens:
//
//	name[:value-token][:container-token]=value
//
// Encode turns a record into such a string following a schema. ParseQuery
// marshals a raw query string back into typed raw data, and Decode coerces
// raw data into a record, filling defaults for absent fields.
//
// Mappings inside sequences are flattened one level into repeated
// "name.key:records" parameters, the way HTML forms post repeating rows.
package querystring
