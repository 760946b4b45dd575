package jce

import (
	"cmp"
	"reflect"
	"slices"
	"strings"
	"sync"

	intr "github.com/dadrian/jce/internal"
)

// This file maps ordinary Go values onto the Encoder and Decoder
// primitives. Struct fields are records keyed by their `jce:"<tag>"`
// struct tag; `jce:"<tag>,omitempty"` drops zero values.

var (
	marshalerType         = reflect.TypeFor[Marshaler]()
	unmarshalerType       = reflect.TypeFor[Unmarshaler]()
	recordMarshalerType   = reflect.TypeFor[RecordMarshaler]()
	recordUnmarshalerType = reflect.TypeFor[RecordUnmarshaler]()
	valueType             = reflect.TypeFor[Value]()
)

type fieldInfo struct {
	index     int
	tag       uint8
	omitEmpty bool
}

type structInfo struct {
	fields []fieldInfo // ascending tag order
	byTag  map[uint8]int
}

var structCache sync.Map // reflect.Type -> *structInfo

func structFields(t reflect.Type) (*structInfo, error) {
	if v, ok := structCache.Load(t); ok {
		return v.(*structInfo), nil
	}
	info := &structInfo{byTag: make(map[uint8]int)}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		ft, ok, err := intr.ParseFieldTag(f)
		if err != nil {
			return nil, errorf(ErrInvalidFieldTag, "%s.%s: %q: %v", t, f.Name, f.Tag.Get("jce"), err)
		}
		if !ok {
			continue
		}
		if prev, dup := info.byTag[ft.ID]; dup {
			return nil, errorf(ErrInvalidFieldTag, "%s: fields %s and %s share tag %d",
				t, t.Field(prev).Name, f.Name, ft.ID)
		}
		info.byTag[ft.ID] = i
		info.fields = append(info.fields, fieldInfo{index: i, tag: ft.ID, omitEmpty: ft.OmitEmpty})
	}
	slices.SortFunc(info.fields, func(a, b fieldInfo) int { return cmp.Compare(a.tag, b.tag) })
	structCache.Store(t, info)
	return info, nil
}

func asMarshaler(rv reflect.Value) (Marshaler, bool) {
	if rv.Type().Implements(marshalerType) && rv.CanInterface() {
		m, ok := rv.Interface().(Marshaler)
		return m, ok
	}
	if rv.CanAddr() && reflect.PointerTo(rv.Type()).Implements(marshalerType) {
		return rv.Addr().Interface().(Marshaler), true
	}
	return nil, false
}

func asRecordMarshaler(rv reflect.Value) (RecordMarshaler, bool) {
	if rv.Type().Implements(recordMarshalerType) && rv.CanInterface() {
		m, ok := rv.Interface().(RecordMarshaler)
		return m, ok
	}
	if rv.CanAddr() && reflect.PointerTo(rv.Type()).Implements(recordMarshalerType) {
		return rv.Addr().Interface().(RecordMarshaler), true
	}
	return nil, false
}

func asUnmarshaler(rv reflect.Value) (Unmarshaler, bool) {
	if rv.CanAddr() && reflect.PointerTo(rv.Type()).Implements(unmarshalerType) {
		return rv.Addr().Interface().(Unmarshaler), true
	}
	return nil, false
}

func asRecordUnmarshaler(rv reflect.Value) (RecordUnmarshaler, bool) {
	if rv.CanAddr() && reflect.PointerTo(rv.Type()).Implements(recordUnmarshalerType) {
		return rv.Addr().Interface().(RecordUnmarshaler), true
	}
	return nil, false
}

// Encode writes v as a top-level value. Structs and RecordMarshalers
// become the outermost record, written as bare fields; any other value
// is written under tag 0. Nil pointers write nothing.
func (e *Encoder) Encode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil
	}
	if rm, ok := v.(RecordMarshaler); ok {
		return e.writeTopRecord(rm.MarshalJCEFields)
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	if rm, ok := asRecordMarshaler(rv); ok {
		return e.writeTopRecord(rm.MarshalJCEFields)
	}
	if _, ok := asMarshaler(rv); !ok && rv.Kind() == reflect.Struct {
		return e.writeTopRecord(func(e *Encoder) error { return e.encodeFields(rv) })
	}
	return e.encodeValue(0, rv)
}

// WriteValue writes an arbitrary Go value under tag. It is the entry
// point for Marshalers that delegate nested values back to the encoder.
func (e *Encoder) WriteValue(tag uint8, v any) error {
	return e.encodeValue(tag, reflect.ValueOf(v))
}

func (e *Encoder) encodeValue(tag uint8, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Invalid:
		return nil
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
	case reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		if el := rv.Elem(); el.Kind() == reflect.Pointer && el.IsNil() {
			return nil
		}
	}
	if m, ok := asMarshaler(rv); ok {
		return m.MarshalJCE(e, tag)
	}
	if rm, ok := asRecordMarshaler(rv); ok {
		return e.WriteRecord(tag, rm.MarshalJCEFields)
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return e.encodeValue(tag, rv.Elem())
	case reflect.Bool:
		return e.WriteBool(tag, rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.WriteInt(tag, rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return e.WriteUint(tag, rv.Uint())
	case reflect.Float32:
		return e.WriteFloat32(tag, float32(rv.Float()))
	case reflect.Float64:
		return e.WriteFloat64(tag, rv.Float())
	case reflect.String:
		return e.WriteString(tag, rv.String())
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return e.WriteBytes(tag, rv.Bytes())
		}
		return e.encodeSequence(tag, rv)
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return e.WriteBytes(tag, b)
		}
		return e.encodeSequence(tag, rv)
	case reflect.Map:
		return e.encodeMap(tag, rv)
	case reflect.Struct:
		return e.WriteRecord(tag, func(e *Encoder) error { return e.encodeFields(rv) })
	default:
		return errorf(ErrTypeMismatch, "cannot encode %s", rv.Type())
	}
}

// encodeElem encodes a container element, which unlike a record field
// cannot be absent.
func (e *Encoder) encodeElem(tag uint8, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Invalid:
		return errorf(ErrTypeMismatch, "missing container element at tag %d", tag)
	case reflect.Pointer:
		if rv.IsNil() {
			return errorf(ErrTypeMismatch, "nil %s container element at tag %d", rv.Type(), tag)
		}
	case reflect.Interface:
		if rv.IsNil() || rv.Elem().Kind() == reflect.Pointer && rv.Elem().IsNil() {
			return errorf(ErrTypeMismatch, "nil %s container element at tag %d", rv.Type(), tag)
		}
	}
	return e.encodeValue(tag, rv)
}

func (e *Encoder) encodeFields(rv reflect.Value) error {
	info, err := structFields(rv.Type())
	if err != nil {
		return err
	}
	for _, f := range info.fields {
		fv := rv.Field(f.index)
		if f.omitEmpty && fv.IsZero() {
			continue
		}
		if err := e.encodeValue(f.tag, fv); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeSequence(tag uint8, rv reflect.Value) error {
	return e.WriteSequence(tag, rv.Len(), func(e *Encoder, tag uint8, i int) error {
		return e.encodeElem(tag, rv.Index(i))
	})
}

func (e *Encoder) encodeMap(tag uint8, rv reflect.Value) error {
	keys := rv.MapKeys()
	sortKeys(keys)
	return e.WriteMap(tag, len(keys),
		func(e *Encoder, tag uint8, i int) error { return e.encodeElem(tag, keys[i]) },
		func(e *Encoder, tag uint8, i int) error { return e.encodeElem(tag, rv.MapIndex(keys[i])) })
}

// sortKeys orders map keys of basic kinds so output is deterministic.
// Keys of other kinds keep map iteration order.
func sortKeys(keys []reflect.Value) {
	if len(keys) < 2 {
		return
	}
	var less func(a, b reflect.Value) int
	switch keys[0].Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		less = func(a, b reflect.Value) int { return cmp.Compare(a.Int(), b.Int()) }
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		less = func(a, b reflect.Value) int { return cmp.Compare(a.Uint(), b.Uint()) }
	case reflect.Float32, reflect.Float64:
		less = func(a, b reflect.Value) int { return cmp.Compare(a.Float(), b.Float()) }
	case reflect.String:
		less = func(a, b reflect.Value) int { return strings.Compare(a.String(), b.String()) }
	case reflect.Bool:
		less = func(a, b reflect.Value) int {
			return cmp.Compare(boolInt(a.Bool()), boolInt(b.Bool()))
		}
	default:
		return
	}
	slices.SortFunc(keys, less)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Decode reads one top-level value into v, which must be a non-nil
// pointer. Structs and RecordUnmarshalers consume the outermost record
// up to end of input; an interface target receives that record as a
// generic Record; any other target reads a single header and its value.
func (d *Decoder) Decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &Error{Kind: ErrTypeMismatch, Detail: "Decode target must be non-nil pointer"}
	}
	target := rv.Elem()
	for target.Kind() == reflect.Pointer {
		if target.IsNil() {
			target.Set(reflect.New(target.Type().Elem()))
		}
		target = target.Elem()
	}
	if _, ok := asUnmarshaler(target); !ok {
		if _, ok := asRecordUnmarshaler(target); ok || target.Kind() == reflect.Struct {
			return d.decodeValue(NoType, target)
		}
		if target.Kind() == reflect.Interface && (target.NumMethod() == 0 || target.Type() == valueType) {
			rec, err := d.DecodeAll()
			if err != nil {
				return err
			}
			target.Set(reflect.ValueOf(rec))
			return nil
		}
	}
	h, err := d.ReadHeader()
	if err != nil {
		return err
	}
	return d.decodeValue(h.Type, target)
}

// ReadValueInto decodes a value of type t, whose header was already
// read, into the Go value pointed to by v.
func (d *Decoder) ReadValueInto(t TypeCode, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return d.fail(ErrTypeMismatch, "ReadValueInto target must be non-nil pointer")
	}
	return d.decodeValue(t, rv.Elem())
}

func (d *Decoder) decodeValue(t TypeCode, rv reflect.Value) error {
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return d.decodeValue(t, rv.Elem())
	}
	if u, ok := asUnmarshaler(rv); ok {
		return u.UnmarshalJCE(d, t)
	}
	if ru, ok := asRecordUnmarshaler(rv); ok {
		return d.ReadRecord(t, ru.UnmarshalJCEField)
	}
	switch rv.Kind() {
	case reflect.Interface:
		if rv.NumMethod() != 0 && rv.Type() != valueType {
			return d.fail(ErrTypeMismatch, "cannot decode into %s", rv.Type())
		}
		v, err := d.ReadValue(t)
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(v))
		return nil
	case reflect.Bool:
		b, err := d.ReadBool(t)
		if err != nil {
			return err
		}
		rv.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := d.ReadNumberAs(t)
		if err != nil {
			return err
		}
		rv.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := d.ReadNumberAs(t)
		if err != nil {
			return err
		}
		rv.SetUint(uint64(n))
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := d.ReadFloat64(t)
		if err != nil {
			return err
		}
		rv.SetFloat(f)
		return nil
	case reflect.String:
		s, err := d.ReadString(t)
		if err != nil {
			return err
		}
		rv.SetString(s)
		return nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b, err := d.ReadBytes(t)
			if err != nil {
				return err
			}
			rv.SetBytes(b)
			return nil
		}
		return d.decodeSequence(t, rv)
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b, err := d.ReadBytes(t)
			if err != nil {
				return err
			}
			if len(b) != rv.Len() {
				return d.fail(ErrTypeMismatch, "%d bytes for %s", len(b), rv.Type())
			}
			reflect.Copy(rv, reflect.ValueOf(b))
			return nil
		}
		return d.decodeArray(t, rv)
	case reflect.Map:
		return d.decodeMap(t, rv)
	case reflect.Struct:
		return d.decodeStruct(t, rv)
	default:
		return d.fail(ErrTypeMismatch, "cannot decode into %s", rv.Type())
	}
}

func (d *Decoder) decodeStruct(t TypeCode, rv reflect.Value) error {
	info, err := structFields(rv.Type())
	if err != nil {
		return err
	}
	return d.ReadRecord(t, func(d *Decoder, h Header) (bool, error) {
		idx, ok := info.byTag[h.Tag]
		if !ok {
			return false, nil
		}
		return true, d.decodeValue(h.Type, rv.Field(idx))
	})
}

func (d *Decoder) decodeSequence(t TypeCode, rv reflect.Value) error {
	n, err := d.ReadSequenceLen(t)
	if err != nil {
		return err
	}
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()
	elem := rv.Type().Elem()
	s := reflect.MakeSlice(rv.Type(), 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		h, err := d.ReadHeader()
		if err != nil {
			return err
		}
		s = reflect.Append(s, reflect.Zero(elem))
		if err := d.decodeValue(h.Type, s.Index(i)); err != nil {
			return err
		}
	}
	rv.Set(s)
	return nil
}

func (d *Decoder) decodeArray(t TypeCode, rv reflect.Value) error {
	n, err := d.ReadSequenceLen(t)
	if err != nil {
		return err
	}
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()
	for i := 0; i < n; i++ {
		h, err := d.ReadHeader()
		if err != nil {
			return err
		}
		if i >= rv.Len() {
			if err := d.Skip(h.Type); err != nil {
				return err
			}
			continue
		}
		if err := d.decodeValue(h.Type, rv.Index(i)); err != nil {
			return err
		}
	}
	for i := n; i < rv.Len(); i++ {
		rv.Index(i).SetZero()
	}
	return nil
}

func (d *Decoder) decodeMap(t TypeCode, rv reflect.Value) error {
	n, err := d.ReadMapLen(t)
	if err != nil {
		return err
	}
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()
	if rv.IsNil() {
		rv.Set(reflect.MakeMapWithSize(rv.Type(), min(n, maxPrealloc)))
	}
	kt, vt := rv.Type().Key(), rv.Type().Elem()
	for i := 0; i < n; i++ {
		h, err := d.ReadHeader()
		if err != nil {
			return err
		}
		k := reflect.New(kt).Elem()
		if err := d.decodeValue(h.Type, k); err != nil {
			return err
		}
		if !k.Comparable() {
			return d.fail(ErrTypeMismatch, "decoded %s map key is not comparable", kt)
		}
		if h, err = d.ReadHeader(); err != nil {
			return err
		}
		v := reflect.New(vt).Elem()
		if err := d.decodeValue(h.Type, v); err != nil {
			return err
		}
		rv.SetMapIndex(k, v)
	}
	return nil
}
