package filestore

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/dshills/extsim/internal/config"
	"github.com/dshills/extsim/internal/engine/buffer"
	"github.com/dshills/extsim/internal/event"
	"github.com/dshills/extsim/internal/logging"
	"github.com/dshills/extsim/internal/project/vfs"
	"github.com/dshills/extsim/internal/uri"
)

var log = logging.Get("documents")

// Store is the registry of text documents, keyed by canonical URI.
type Store struct {
	mu        sync.RWMutex
	documents map[string]*Document
	untitled  int

	fs  vfs.FileSystem
	bus *event.Bus
	cfg *config.Config

	// Configuration
	maxFileSize int64 // Maximum file size to open (0 = unlimited)
	defaultEOL  buffer.EndOfLine
	wordPattern *regexp.Regexp

	subs event.Store
}

// Option configures a Store.
type Option func(*Store)

// WithMaxFileSize sets the maximum file size.
func WithMaxFileSize(size int64) Option {
	return func(s *Store) {
		s.maxFileSize = size
	}
}

// WithConfig sets the configuration used for language ids, the default
// line terminator, and the word pattern.
func WithConfig(cfg *config.Config) Option {
	return func(s *Store) {
		s.cfg = cfg
	}
}

// NewStore creates a document store over fsys that fires its events on
// bus and follows file changes announced there.
func NewStore(fsys vfs.FileSystem, bus *event.Bus, opts ...Option) *Store {
	s := &Store{
		documents:   make(map[string]*Document),
		fs:          fsys,
		bus:         bus,
		cfg:         config.Default(),
		maxFileSize: 10 * 1024 * 1024, // 10MB default
	}
	for _, opt := range opts {
		opt(s)
	}

	s.defaultEOL = buffer.ParseEOL(s.cfg.DefaultEOL)
	s.wordPattern = buffer.DefaultWordPattern
	if s.cfg.WordPattern != "" {
		// Validate already compiled it once.
		s.wordPattern = regexp.MustCompile(s.cfg.WordPattern)
	}

	s.Attach()
	return s
}

// Open returns the document for u, reading it from the file system if
// needed. A closed document is revived in place with fresh content.
func (s *Store) Open(u uri.URI) (*Document, error) {
	if u.IsUntitled() {
		return s.openUntitledURI(u, "", "")
	}

	s.mu.RLock()
	doc, ok := s.documents[u.Key()]
	s.mu.RUnlock()
	if ok && !doc.IsClosed() {
		return doc, nil
	}

	content, enc, err := s.read(u)
	if err != nil {
		return nil, &DocumentError{Op: "open", URI: u, Err: err}
	}

	s.mu.Lock()
	// Check again in case a listener opened it meanwhile.
	if cur, ok := s.documents[u.Key()]; ok && !cur.IsClosed() {
		s.mu.Unlock()
		return cur, nil
	}
	if doc, ok = s.documents[u.Key()]; ok {
		doc.mu.Lock()
		doc.text = buffer.NewText(content, s.defaultEOL)
		doc.encoding = enc
		doc.version++
		doc.dirty = false
		doc.closed = false
		doc.mu.Unlock()
	} else {
		doc = s.newDocument(u, content, "")
		doc.encoding = enc
		s.documents[u.Key()] = doc
	}
	s.mu.Unlock()

	log.Debugf("open %s (version %d)", u, doc.Version())
	DidOpen(s.bus).Fire(doc)
	return doc, nil
}

// UntitledOptions describe a new untitled document.
type UntitledOptions struct {
	Content    string
	LanguageID string
}

// OpenUntitled creates a new untitled document named Untitled-N.
func (s *Store) OpenUntitled(opts UntitledOptions) (*Document, error) {
	s.mu.Lock()
	var u uri.URI
	for {
		s.untitled++
		u = uri.Untitled(fmt.Sprintf("Untitled-%d", s.untitled))
		if _, taken := s.documents[u.Key()]; !taken {
			break
		}
	}
	s.mu.Unlock()

	return s.openUntitledURI(u, opts.Content, opts.LanguageID)
}

func (s *Store) openUntitledURI(u uri.URI, content, languageID string) (*Document, error) {
	s.mu.Lock()
	doc, ok := s.documents[u.Key()]
	if ok && !doc.IsClosed() {
		s.mu.Unlock()
		return doc, nil
	}
	if ok {
		doc.mu.Lock()
		doc.text = buffer.NewText(content, s.defaultEOL)
		doc.version++
		doc.dirty = content != ""
		doc.closed = false
		doc.mu.Unlock()
	} else {
		doc = s.newDocument(u, content, languageID)
		doc.dirty = content != ""
		s.documents[u.Key()] = doc
	}
	s.mu.Unlock()

	DidOpen(s.bus).Fire(doc)
	return doc, nil
}

func (s *Store) newDocument(u uri.URI, content, languageID string) *Document {
	if languageID == "" {
		languageID = s.languageID(u)
	}
	return &Document{
		store:      s,
		uri:        u,
		text:       buffer.NewText(content, s.defaultEOL),
		version:    1,
		languageID: languageID,
		encoding:   vfs.EncodingUTF8,
	}
}

func (s *Store) languageID(u uri.URI) string {
	if u.IsUntitled() {
		return "plaintext"
	}
	if lang := s.cfg.LanguageID(u.Path()); lang != "" {
		return lang
	}
	return detectLanguageID(u.Path())
}

// read loads and decodes the file at u.
func (s *Store) read(u uri.URI) (string, vfs.Encoding, error) {
	st, err := s.fs.Stat(u)
	if err != nil {
		return "", "", err
	}
	if st.Type.IsDirectory() {
		return "", "", vfs.FileIsADirectory(u)
	}
	if s.maxFileSize > 0 && st.Size > s.maxFileSize {
		return "", "", ErrFileTooLarge
	}

	data, err := s.fs.ReadFile(u)
	if err != nil {
		return "", "", err
	}
	if vfs.IsBinary(data) {
		return "", "", ErrBinaryFile
	}
	return vfs.DecodeText(data)
}

// Get returns the document for u, open or closed.
func (s *Store) Get(u uri.URI) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[u.Key()]
	return doc, ok
}

// IsOpen returns true if the document for u is open.
func (s *Store) IsOpen(u uri.URI) bool {
	doc, ok := s.Get(u)
	return ok && !doc.IsClosed()
}

// Close marks the document for u closed and fires documents.didClose. It
// reports false when there is no open document for u.
func (s *Store) Close(u uri.URI) bool {
	doc, ok := s.Get(u)
	if !ok {
		return false
	}
	return s.closeDocument(doc)
}

func (s *Store) closeDocument(doc *Document) bool {
	doc.mu.Lock()
	if doc.closed {
		doc.mu.Unlock()
		return false
	}
	doc.closed = true
	doc.mu.Unlock()

	log.Debugf("close %s", doc.URI())
	DidClose(s.bus).Fire(doc)
	return true
}

// Documents returns the open documents sorted by URI.
func (s *Store) Documents() []*Document {
	return s.collect(func(d *Document) bool { return !d.IsClosed() })
}

// AllDocuments returns every known document, open or closed, sorted by URI.
func (s *Store) AllDocuments() []*Document {
	return s.collect(func(*Document) bool { return true })
}

// DirtyDocuments returns the open documents with unsaved changes.
func (s *Store) DirtyDocuments() []*Document {
	return s.collect(func(d *Document) bool { return !d.IsClosed() && d.IsDirty() })
}

func (s *Store) collect(keep func(*Document) bool) []*Document {
	s.mu.RLock()
	keys := make([]string, 0, len(s.documents))
	for k := range s.documents {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	docs := make([]*Document, 0, len(keys))
	for _, k := range keys {
		docs = append(docs, s.documents[k])
	}
	s.mu.RUnlock()

	out := docs[:0]
	for _, d := range docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the number of open documents.
func (s *Store) Count() int {
	return len(s.Documents())
}

// Save saves the document for u. See Document.Save.
func (s *Store) Save(u uri.URI) (bool, error) {
	doc, ok := s.Get(u)
	if !ok {
		return false, &DocumentError{Op: "save", URI: u, Err: ErrDocumentNotOpen}
	}
	return s.save(doc, SaveManual)
}

// SaveAll saves every dirty document. Untitled documents are skipped
// unless includeUntitled is set, in which case they are reported as
// failures since they have no file to write to. SaveAll reports whether
// every document was saved.
func (s *Store) SaveAll(includeUntitled bool) bool {
	ok := true
	var errs []error
	for _, doc := range s.DirtyDocuments() {
		if doc.IsUntitled() {
			if includeUntitled {
				ok = false
			}
			continue
		}
		saved, err := s.save(doc, SaveManual)
		if err != nil {
			errs = append(errs, err)
		}
		ok = ok && saved
	}
	if err := errors.Join(errs...); err != nil {
		log.Warningf("save all: %v", err)
	}
	return ok
}

func (s *Store) save(doc *Document, reason SaveReason) (bool, error) {
	if doc.IsUntitled() || doc.IsClosed() {
		return false, nil
	}

	WillSave(s.bus).Fire(WillSaveEvent{Document: doc, Reason: reason})

	// A willSave listener may have edited or closed the document.
	doc.mu.RLock()
	u, text, enc, closed := doc.uri, doc.text, doc.encoding, doc.closed
	doc.mu.RUnlock()
	if closed {
		return false, nil
	}

	data, err := vfs.EncodeText(text.Content(), enc)
	if err != nil {
		return false, &DocumentError{Op: "save", URI: u, Err: err}
	}
	if err := s.fs.WriteFile(u, data, vfs.WriteOptions{}); err != nil {
		return false, &DocumentError{Op: "save", URI: u, Err: err}
	}

	doc.mu.Lock()
	if doc.text == text {
		doc.dirty = false
	}
	doc.mu.Unlock()

	log.Debugf("save %s", u)
	DidSave(s.bus).Fire(doc)
	return true, nil
}

// Reset forgets every document without firing events.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = make(map[string]*Document)
	s.untitled = 0
}
