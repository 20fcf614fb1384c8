package heapsnapshot

import (
	"encoding/json"
	"fmt"
)

// FieldKind is the decoded shape of one column, as declared by a meta type
// descriptor.
type FieldKind int

const (
	// KindEnum columns store an index into a per-column string domain.
	KindEnum FieldKind = iota
	// KindString columns store an index into the snapshot's strings table,
	// or (tolerated) a raw out-of-range integer.
	KindString
	// KindNumber columns are identity-decoded.
	KindNumber
	// KindNode columns store a node-array position (identity-decoded).
	KindNode
	// KindStringOrNumber columns follow the same fallback policy as
	// KindString.
	KindStringOrNumber
)

// ColumnSpec describes one column's name, decoded kind, and (for enum
// columns) string domain.
type ColumnSpec struct {
	Name   string
	Kind   FieldKind
	Domain []string // only populated when Kind == KindEnum
}

// ColumnTable is the decoder produced by interpreting a meta header: a
// (field_name, decoder) table plus an index for offset lookup by name.
type ColumnTable struct {
	Columns []ColumnSpec
	offsets map[string]int
}

// Offset returns the position of a named column within a record, and
// whether it was found.
func (t ColumnTable) Offset(name string) (int, bool) {
	idx, ok := t.offsets[name]
	return idx, ok
}

// requireOffset looks up a required field's offset, returning a Parse error
// (a required meta path missing) if absent.
func (t ColumnTable) requireOffset(name string) (int, error) {
	idx, ok := t.Offset(name)
	if !ok {
		return 0, errParse(fmt.Sprintf("required field %q missing from meta column layout", name), nil)
	}
	return idx, nil
}

// DecodeField decodes the raw integer at column col using that column's
// kind. It returns the decoded value as either a string or a number, with
// isString indicating which. Enum values index into the column's own
// domain; string/string-or-number values index into the snapshot's shared
// strings table, falling back to the raw integer when out of range.
func (t ColumnTable) DecodeField(col int, raw int64, strings []string) (str string, num int64, isString bool, err error) {
	spec := t.Columns[col]
	switch spec.Kind {
	case KindEnum:
		if raw < 0 || int(raw) >= len(spec.Domain) {
			return "", 0, false, errDecode(fmt.Sprintf(
				"enum index %d out of range for column %q (domain size %d)", raw, spec.Name, len(spec.Domain)), nil)
		}
		return spec.Domain[raw], 0, true, nil
	case KindString, KindStringOrNumber:
		if raw >= 0 && int(raw) < len(strings) {
			return strings[raw], 0, true, nil
		}
		// Tolerated fallback: some V8 builds emit indices overflowing the
		// string table. Pass the raw integer through rather than failing.
		return "", raw, false, nil
	case KindNumber, KindNode:
		return "", raw, false, nil
	default:
		return "", 0, false, errDecode(fmt.Sprintf("unrecognized field kind for column %q", spec.Name), nil)
	}
}

// BuildNodeColumns interprets meta.node_fields/node_types into a ColumnTable
// for decoding node records.
func BuildNodeColumns(meta RawMeta) (ColumnTable, error) {
	return buildColumnTable(meta.NodeFields, meta.NodeTypes, true)
}

// BuildEdgeColumns interprets meta.edge_fields/edge_types into a ColumnTable
// for decoding edge records.
func BuildEdgeColumns(meta RawMeta) (ColumnTable, error) {
	return buildColumnTable(meta.EdgeFields, meta.EdgeTypes, false)
}

func buildColumnTable(fields []string, typeDescs []json.RawMessage, forNodes bool) (ColumnTable, error) {
	if len(fields) != len(typeDescs) {
		return ColumnTable{}, errParse(fmt.Sprintf(
			"field count %d does not match type descriptor count %d", len(fields), len(typeDescs)), nil)
	}

	t := ColumnTable{
		Columns: make([]ColumnSpec, len(fields)),
		offsets: make(map[string]int, len(fields)),
	}

	for i, name := range fields {
		kind, domain, err := decodeTypeDescriptor(typeDescs[i], forNodes)
		if err != nil {
			return ColumnTable{}, err
		}
		t.Columns[i] = ColumnSpec{Name: name, Kind: kind, Domain: domain}
		t.offsets[name] = i
	}

	return t, nil
}

// decodeTypeDescriptor resolves a single meta type descriptor: either a JSON
// array of strings (an enum domain) or a JSON string tag.
func decodeTypeDescriptor(raw json.RawMessage, forNodes bool) (FieldKind, []string, error) {
	var domain []string
	if err := json.Unmarshal(raw, &domain); err == nil {
		return KindEnum, domain, nil
	}

	var tag string
	if err := json.Unmarshal(raw, &tag); err != nil {
		return 0, nil, errParse("type descriptor is neither an enum domain nor a string tag", err)
	}

	switch tag {
	case "string":
		return KindString, nil, nil
	case "number":
		return KindNumber, nil, nil
	case "node":
		if forNodes {
			return 0, nil, errDecode(fmt.Sprintf(`type tag "node" is not valid for a node column`), nil)
		}
		return KindNode, nil, nil
	case "string_or_number":
		if forNodes {
			return 0, nil, errDecode(fmt.Sprintf(`type tag "string_or_number" is not valid for a node column`), nil)
		}
		return KindStringOrNumber, nil, nil
	default:
		return 0, nil, errDecode(fmt.Sprintf("unknown type tag %q", tag), nil)
	}
}

// decodedToText converts a decoded field into the text representation
// stored for TEXT columns (node.name, edge.name_or_index): strings pass
// through as-is, numbers convert to their decimal string.
func decodedToText(str string, num int64, isString bool) string {
	if isString {
		return str
	}
	return fmt.Sprintf("%d", num)
}
