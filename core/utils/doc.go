// Package utils provides loose type conversions for provider payloads whose
// fields are not consistently typed (numbers sent as strings, booleans sent as 0/1).
package utils
