package gpg

import (
	"strconv"
	"strings"
	"time"
)

// Record kinds of the --with-colons listing format.
const (
	RecordPublicKey    = "pub"
	RecordSecretKey    = "sec"
	RecordPublicSubkey = "sub"
	RecordSecretSubkey = "ssb"
	RecordFingerprint  = "fpr"
	RecordKeygrip      = "grp"
	RecordUserID       = "uid"

	// card-status records
	RecordSerial    = "serial"
	RecordName      = "name"
	RecordCardTimes = "fprtime"
)

// Positional fields of key, subkey, uid, fpr and grp records.
// Index 0 is always the record kind.
const (
	FieldValidity     = 1
	FieldKeyLength    = 2
	FieldAlgorithm    = 3
	FieldKeyID        = 4
	FieldCreated      = 5
	FieldExpires      = 6
	FieldUserID       = 9 // also the value of fpr and grp records
	FieldCapabilities = 11
	FieldTokenSerial  = 14
	FieldCurve        = 16
)

// Record is one decoded colon-delimited line.
type Record struct {
	fields []string
}

// NewRecord builds a record from already split fields.
func NewRecord(fields ...string) Record {
	return Record{fields: fields}
}

// Kind returns field 0.
func (r Record) Kind() string {
	return r.Field(0)
}

// Field returns the decoded field at index i, or "" when the record is shorter.
func (r Record) Field(i int) string {
	if i < 0 || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

// Int returns the field as an integer, 0 when empty or malformed.
func (r Record) Int(i int) int {
	n, err := strconv.Atoi(r.Field(i))
	if err != nil {
		return 0
	}
	return n
}

// Time interprets the field as seconds since the epoch.
// gpg may also emit ISO 8601 timestamps ("20240101T120000").
func (r Record) Time(i int) time.Time {
	v := r.Field(i)
	if v == "" || v == "0" {
		return time.Time{}
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC()
	}
	if t, err := time.Parse("20060102T150405", v); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

// Len returns the number of fields including the kind.
func (r Record) Len() int {
	return len(r.fields)
}

// ParseRecords decodes colon-delimited output into records.
// Blank lines are skipped; short lines are kept as-is.
func ParseRecords(data []byte) []Record {
	var records []Record
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, ParseRecordLine(line))
	}
	return records
}

// ParseRecordLine decodes a single line.
func ParseRecordLine(line string) Record {
	parts := strings.Split(line, ":")
	for i, p := range parts {
		parts[i] = unescapeField(p)
	}
	return Record{fields: parts}
}

// unescapeField reverses gpg's C-style \xHH escaping of colons and
// other special characters inside field values.
func unescapeField(s string) string {
	if !strings.Contains(s, `\x`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) && s[i+1] == 'x' {
			if b, err := strconv.ParseUint(s[i+2:i+4], 16, 8); err == nil {
				sb.WriteByte(byte(b))
				i += 3
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
