package lua

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/extsim/internal/editor"
	"github.com/dshills/extsim/internal/engine/buffer"
	"github.com/dshills/extsim/internal/project/filestore"
	"github.com/dshills/extsim/internal/project/vfs"
	"github.com/dshills/extsim/internal/project/workspace"
	"github.com/dshills/extsim/internal/uri"
)

// Bridge converts values between Go and Lua.
//
// Simulator types get fixed shapes: URIs become strings, positions become
// {line=, character=} tables, ranges {start=, ["end"]=}, and documents,
// editors, folders, and terminals become snapshot tables. Other structs are
// converted field by field with snake_case keys.
type Bridge struct {
	L *lua.LState
}

// NewBridge creates a new Bridge for the given Lua state.
func NewBridge(L *lua.LState) *Bridge {
	return &Bridge{L: L}
}

// ToGoValue converts a Lua value to a Go value.
func (b *Bridge) ToGoValue(lv lua.LValue) any {
	return b.toGoValueWithVisited(lv, make(map[*lua.LTable]bool))
}

func (b *Bridge) toGoValueWithVisited(lv lua.LValue, visited map[*lua.LTable]bool) any {
	if lv == nil {
		return nil
	}

	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return b.tableToGoWithVisited(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

// tableToGoWithVisited converts a sequence to a slice and anything else to
// a map keyed by the string form of the keys.
func (b *Bridge) tableToGoWithVisited(t *lua.LTable, visited map[*lua.LTable]bool) any {
	isArray := true
	maxN := 0
	count := 0
	t.ForEach(func(k, _ lua.LValue) {
		count++
		if kn, ok := k.(lua.LNumber); ok {
			n := int(kn)
			if float64(n) == float64(kn) && n > 0 {
				maxN = max(maxN, n)
				return
			}
		}
		isArray = false
	})

	if isArray && maxN > 0 && count == maxN {
		arr := make([]any, maxN)
		for i := 1; i <= maxN; i++ {
			arr[i-1] = b.toGoValueWithVisited(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = fmt.Sprintf("%v", float64(kv))
		default:
			key = k.String()
		}
		m[key] = b.toGoValueWithVisited(v, visited)
	})
	return m
}

// ToLuaValue converts a Go value to a Lua value.
func (b *Bridge) ToLuaValue(v any) lua.LValue {
	if v == nil {
		return lua.LNil
	}

	switch val := v.(type) {
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []byte:
		return lua.LString(val)
	case time.Time:
		return lua.LNumber(val.UnixMilli())
	case error:
		return lua.LString(val.Error())

	case uri.URI:
		return lua.LString(val.String())
	case []uri.URI:
		return b.URIList(val)
	case buffer.Position:
		return b.PositionTable(val)
	case buffer.Range:
		return b.RangeTable(val)
	case buffer.Selection:
		t := b.L.NewTable()
		t.RawSetString("anchor", b.PositionTable(val.Anchor()))
		t.RawSetString("active", b.PositionTable(val.Active()))
		return t
	case buffer.EndOfLine:
		return lua.LString(val.String())
	case vfs.FileType:
		return lua.LString(val.String())
	case workspace.Type:
		return lua.LString(val.String())
	case *filestore.Document:
		return b.DocumentTable(val)
	case *editor.TextEditor:
		return b.EditorTable(val)
	case *editor.Terminal:
		return b.TerminalTable(val)
	case workspace.Folder:
		return b.FolderTable(val)

	default:
		return b.reflectToLua(v)
	}
}

// reflectToLua uses reflection to convert arbitrary Go values.
func (b *Bridge) reflectToLua(v any) lua.LValue {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return lua.LNil
	}

	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return lua.LNil
		}
		return b.ToLuaValue(rv.Elem().Interface())

	case reflect.Slice, reflect.Array:
		t := b.L.NewTable()
		for i := 0; i < rv.Len(); i++ {
			t.RawSetInt(i+1, b.ToLuaValue(rv.Index(i).Interface()))
		}
		return t

	case reflect.Map:
		t := b.L.NewTable()
		for _, key := range rv.MapKeys() {
			t.RawSet(b.ToLuaValue(key.Interface()), b.ToLuaValue(rv.MapIndex(key).Interface()))
		}
		return t

	case reflect.Struct:
		return b.structToTable(rv)

	case reflect.Bool:
		return lua.LBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return lua.LNumber(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(rv.Float())
	case reflect.String:
		return lua.LString(rv.String())

	default:
		ud := b.L.NewUserData()
		ud.Value = v
		return ud
	}
}

// structToTable converts the exported fields of a struct, keyed by the json
// tag when present and the snake_case field name otherwise.
func (b *Bridge) structToTable(rv reflect.Value) *lua.LTable {
	t := b.L.NewTable()
	rt := rv.Type()

	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if field.PkgPath != "" {
			continue
		}

		name := strcase.ToSnake(field.Name)
		if tag := field.Tag.Get("json"); tag != "" && tag != "-" {
			if tag, _, _ = strings.Cut(tag, ","); tag != "" {
				name = tag
			}
		}
		t.RawSetString(name, b.ToLuaValue(rv.Field(i).Interface()))
	}
	return t
}

// URIList converts URIs to a sequence of strings.
func (b *Bridge) URIList(us []uri.URI) *lua.LTable {
	t := b.L.NewTable()
	for i, u := range us {
		t.RawSetInt(i+1, lua.LString(u.String()))
	}
	return t
}

// PositionTable returns {line=, character=}.
func (b *Bridge) PositionTable(p buffer.Position) *lua.LTable {
	t := b.L.NewTable()
	t.RawSetString("line", lua.LNumber(p.Line()))
	t.RawSetString("character", lua.LNumber(p.Character()))
	return t
}

// RangeTable returns {start=, ["end"]=}.
func (b *Bridge) RangeTable(r buffer.Range) *lua.LTable {
	t := b.L.NewTable()
	t.RawSetString("start", b.PositionTable(r.Start()))
	t.RawSetString("end", b.PositionTable(r.End()))
	return t
}

// DocumentTable snapshots doc.
func (b *Bridge) DocumentTable(doc *filestore.Document) *lua.LTable {
	t := b.L.NewTable()
	t.RawSetString("uri", lua.LString(doc.URI().String()))
	t.RawSetString("file_name", lua.LString(doc.FileName()))
	t.RawSetString("language_id", lua.LString(doc.LanguageID()))
	t.RawSetString("version", lua.LNumber(doc.Version()))
	t.RawSetString("is_dirty", lua.LBool(doc.IsDirty()))
	t.RawSetString("is_closed", lua.LBool(doc.IsClosed()))
	t.RawSetString("is_untitled", lua.LBool(doc.IsUntitled()))
	t.RawSetString("line_count", lua.LNumber(doc.LineCount()))
	t.RawSetString("eol", lua.LString(doc.EOL().String()))
	return t
}

// EditorTable snapshots e.
func (b *Bridge) EditorTable(e *editor.TextEditor) *lua.LTable {
	t := b.L.NewTable()
	t.RawSetString("document", b.DocumentTable(e.Document()))
	t.RawSetString("view_column", lua.LNumber(e.ViewColumn()))
	t.RawSetString("selection", b.ToLuaValue(e.Selection()))
	return t
}

// TerminalTable snapshots term.
func (b *Bridge) TerminalTable(term *editor.Terminal) *lua.LTable {
	t := b.L.NewTable()
	t.RawSetString("id", lua.LNumber(term.ID()))
	t.RawSetString("name", lua.LString(term.Name()))
	return t
}

// FolderTable snapshots f.
func (b *Bridge) FolderTable(f workspace.Folder) *lua.LTable {
	t := b.L.NewTable()
	t.RawSetString("uri", lua.LString(f.URI.String()))
	t.RawSetString("name", lua.LString(f.Name))
	t.RawSetString("index", lua.LNumber(f.Index))
	return t
}

// ParseURI accepts a URI string or an absolute file path.
func ParseURI(s string) (uri.URI, error) {
	if strings.HasPrefix(s, "/") {
		return uri.File(s), nil
	}
	return uri.Parse(s)
}

// CheckURI reads argument n as a URI or file path.
func (b *Bridge) CheckURI(L *lua.LState, n int) uri.URI {
	u, err := ParseURI(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return u
}

// CheckPosition reads argument n as {line=, character=} or {line, character}.
func (b *Bridge) CheckPosition(L *lua.LState, n int) buffer.Position {
	p, err := b.positionFrom(L.CheckTable(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return p
}

// CheckRange reads argument n as a range table.
func (b *Bridge) CheckRange(L *lua.LState, n int) buffer.Range {
	r, err := b.rangeFrom(L.CheckTable(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return r
}

func (b *Bridge) positionFrom(t *lua.LTable) (buffer.Position, error) {
	line, char := t.RawGetString("line"), t.RawGetString("character")
	if line == lua.LNil {
		line, char = t.RawGetInt(1), t.RawGetInt(2)
	}
	ln, ok1 := line.(lua.LNumber)
	cn, ok2 := char.(lua.LNumber)
	if !ok1 || !ok2 {
		return buffer.Position{}, fmt.Errorf("position must have numeric line and character")
	}
	return buffer.NewPosition(int(ln), int(cn))
}

// rangeFrom accepts {start=pos, ["end"]=pos} or {sl, sc, el, ec}.
func (b *Bridge) rangeFrom(t *lua.LTable) (buffer.Range, error) {
	if st, ok := t.RawGetString("start").(*lua.LTable); ok {
		et, ok := t.RawGetString("end").(*lua.LTable)
		if !ok {
			return buffer.Range{}, fmt.Errorf("range is missing its end")
		}
		start, err := b.positionFrom(st)
		if err != nil {
			return buffer.Range{}, err
		}
		end, err := b.positionFrom(et)
		if err != nil {
			return buffer.Range{}, err
		}
		return buffer.NewRange(start, end), nil
	}

	var coords [4]int
	for i := range coords {
		n, ok := t.RawGetInt(i + 1).(lua.LNumber)
		if !ok {
			return buffer.Range{}, fmt.Errorf("range must be {start=, end=} or four numbers")
		}
		coords[i] = int(n)
	}
	return buffer.NewRangeFromCoords(coords[0], coords[1], coords[2], coords[3])
}

// TextEdits reads a sequence of {range=, text=} tables. An entry with eol
// set to "LF" or "CRLF" converts the line terminator.
func (b *Bridge) TextEdits(t *lua.LTable) ([]buffer.TextEdit, error) {
	var edits []buffer.TextEdit
	for i := 1; i <= t.Len(); i++ {
		et, ok := t.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("edit %d: not a table", i)
		}
		e, err := b.textEdit(et)
		if err != nil {
			return nil, fmt.Errorf("edit %d: %w", i, err)
		}
		edits = append(edits, e)
	}
	return edits, nil
}

func (b *Bridge) textEdit(t *lua.LTable) (buffer.TextEdit, error) {
	if eol, ok := t.RawGetString("eol").(lua.LString); ok {
		e := buffer.ParseEOL(string(eol))
		if e == 0 {
			return buffer.TextEdit{}, fmt.Errorf("unknown eol %q", string(eol))
		}
		return buffer.SetEndOfLine(e), nil
	}

	rt, ok := t.RawGetString("range").(*lua.LTable)
	if !ok {
		return buffer.TextEdit{}, fmt.Errorf("missing range")
	}
	r, err := b.rangeFrom(rt)
	if err != nil {
		return buffer.TextEdit{}, err
	}
	return buffer.Replace(r, lua.LVAsString(t.RawGetString("text"))), nil
}

// PushError pushes nil, the message, and the file system error code (or nil)
// and returns the count for a Go function to return.
func PushError(L *lua.LState, err error) int {
	L.Push(lua.LNil)
	L.Push(lua.LString(err.Error()))
	if code := vfs.CodeOf(err); code != "" {
		L.Push(lua.LString(code))
	} else {
		L.Push(lua.LNil)
	}
	return 3
}

// optBool reads field name of an options table.
func optBool(t *lua.LTable, name string) bool {
	if t == nil {
		return false
	}
	return lua.LVAsBool(t.RawGetString(name))
}

// optBoolPtr reads field name, returning nil when it is absent.
func optBoolPtr(t *lua.LTable, name string) *bool {
	if t == nil {
		return nil
	}
	v := t.RawGetString(name)
	if v == lua.LNil {
		return nil
	}
	return vfs.Bool(lua.LVAsBool(v))
}

// CallFunc calls fn in protected mode with Go arguments.
func (b *Bridge) CallFunc(fn *lua.LFunction, args ...any) error {
	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = b.ToLuaValue(a)
	}
	return b.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, largs...)
}
