package workspace

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dshills/extsim/internal/config"
	"github.com/dshills/extsim/internal/project/vfs"
	"github.com/dshills/extsim/internal/uri"
)

// FileExt is the extension of workspace files.
const FileExt = ".code-workspace"

// File is the parsed content of a .code-workspace file. Workspace files are
// JSON with comments and trailing commas allowed.
type File struct {
	Folders []FileFolder

	// Settings is the raw JSON of the "settings" object, or nil.
	Settings []byte
}

// FileFolder is a folder entry of a workspace file. Exactly one of Path and
// URI is set; a relative Path is resolved against the file's directory.
type FileFolder struct {
	Path string
	URI  string
	Name string
}

// ParseFile parses the content of a workspace file.
func ParseFile(data []byte) (*File, error) {
	clean := pretty.Spec(data)
	if !gjson.ValidBytes(clean) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidFile)
	}
	root := gjson.ParseBytes(clean)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level is not an object", ErrInvalidFile)
	}

	folders := root.Get("folders")
	if folders.Exists() && !folders.IsArray() {
		return nil, fmt.Errorf("%w: \"folders\" is not an array", ErrInvalidFile)
	}

	f := &File{}
	for i, entry := range folders.Array() {
		ff := FileFolder{
			Path: entry.Get("path").String(),
			URI:  entry.Get("uri").String(),
			Name: entry.Get("name").String(),
		}
		if ff.Path == "" && ff.URI == "" {
			return nil, fmt.Errorf("%w: folder %d has neither path nor uri", ErrInvalidFile, i)
		}
		f.Folders = append(f.Folders, ff)
	}
	if s := root.Get("settings"); s.IsObject() {
		f.Settings = []byte(s.Raw)
	}
	return f, nil
}

// Resolve returns the folder URIs of f. Relative paths are resolved against
// the directory of file.
func (f *File) Resolve(file uri.URI) ([]FolderSpec, error) {
	dir := file.Dir()
	specs := make([]FolderSpec, 0, len(f.Folders))
	for _, ff := range f.Folders {
		var u uri.URI
		switch {
		case ff.URI != "":
			parsed, err := uri.Parse(ff.URI)
			if err != nil {
				return nil, fmt.Errorf("%w: folder uri %q: %v", ErrInvalidFile, ff.URI, err)
			}
			u = parsed
		case strings.HasPrefix(ff.Path, "/"):
			u = file.WithPath(ff.Path)
		default:
			u = dir.JoinPath(ff.Path)
		}
		specs = append(specs, FolderSpec{URI: u, Name: ff.Name})
	}
	return specs, nil
}

// LoadFile reads the workspace file at u and makes it the current workspace:
// its folders replace the folder list and its settings become available
// through Setting and Config.
func (w *Workspace) LoadFile(u uri.URI) error {
	data, err := w.fs.ReadFile(u)
	if err != nil {
		return err
	}
	f, err := ParseFile(data)
	if err != nil {
		return fmt.Errorf("load %s: %w", u, err)
	}
	specs, err := f.Resolve(u)
	if err != nil {
		return fmt.Errorf("load %s: %w", u, err)
	}

	// Folder change listeners may read Config, so the settings go in with
	// the folders.
	w.commitFile(w.validate(specs), u, true, f.Settings)

	log.Infof("loaded workspace file %s (%d folders)", u, len(specs))
	return nil
}

// SaveFile writes the folder list to the workspace file at u. Keys of an
// existing file other than "folders" are kept. Folders beneath the file's
// directory are written as relative paths. A zero u means the current
// workspace file; without one SaveFile returns ErrNoFile.
func (w *Workspace) SaveFile(u uri.URI) error {
	w.mu.RLock()
	if u.IsZero() {
		u = w.file
	}
	folders := make([]Folder, len(w.folders))
	copy(folders, w.folders)
	settings := w.settings
	w.mu.RUnlock()

	if u.IsZero() {
		return ErrNoFile
	}

	doc := []byte("{}")
	if existing, err := w.fs.ReadFile(u); err == nil {
		clean := pretty.Spec(existing)
		if gjson.ValidBytes(clean) && gjson.ParseBytes(clean).IsObject() {
			doc = clean
		}
	}

	entries := make([]map[string]string, 0, len(folders))
	for _, f := range folders {
		entries = append(entries, fileEntry(u, f))
	}

	var err error
	if doc, err = sjson.SetBytes(doc, "folders", entries); err != nil {
		return fmt.Errorf("save %s: %w", u, err)
	}
	if settings != nil {
		if doc, err = sjson.SetRawBytes(doc, "settings", settings); err != nil {
			return fmt.Errorf("save %s: %w", u, err)
		}
	}

	return w.fs.WriteFile(u, pretty.Pretty(doc), vfs.WriteOptions{})
}

func fileEntry(file uri.URI, f Folder) map[string]string {
	entry := make(map[string]string, 2)
	switch rel, ok := file.Dir().Rel(f.URI); {
	case ok && rel != "":
		entry["path"] = rel
	case ok:
		entry["path"] = "."
	case f.URI.Scheme() == file.Scheme() && f.URI.Authority() == file.Authority():
		entry["path"] = f.URI.Path()
	default:
		entry["uri"] = f.URI.String()
	}
	if f.Name != "" && f.Name != folderName(f.URI) {
		entry["name"] = f.Name
	}
	return entry
}

// Setting returns the workspace file setting named key, e.g.
// "files.exclude". The result does not exist when no file is loaded or the
// key is absent.
func (w *Workspace) Setting(key string) gjson.Result {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.settings == nil {
		return gjson.Result{}
	}
	return gjson.GetBytes(w.settings, gjson.Escape(key))
}

// Config returns base overridden by the settings of the loaded workspace
// file. Without a workspace file it returns base unchanged.
func (w *Workspace) Config(base *config.Config) *config.Config {
	override := &config.Config{
		FilesExclude:     w.enabledPatterns("files.exclude"),
		SearchExclude:    w.enabledPatterns("search.exclude"),
		WatcherExclude:   w.enabledPatterns("files.watcherExclude"),
		FileAssociations: w.associations(),
	}
	switch w.Setting("files.eol").String() {
	case "\n":
		override.DefaultEOL = "lf"
	case "\r\n":
		override.DefaultEOL = "crlf"
	}
	return config.Merge(base, override)
}

// enabledPatterns returns the keys of an exclude setting whose value is
// true, in file order.
func (w *Workspace) enabledPatterns(key string) []string {
	var out []string
	w.Setting(key).ForEach(func(k, v gjson.Result) bool {
		if v.Bool() {
			out = append(out, k.String())
		}
		return true
	})
	return out
}

func (w *Workspace) associations() map[string]string {
	var out map[string]string
	w.Setting("files.associations").ForEach(func(k, v gjson.Result) bool {
		if out == nil {
			out = make(map[string]string)
		}
		out[k.String()] = v.String()
		return true
	})
	return out
}
