package filestore

import (
	"github.com/dshills/extsim/internal/project/vfs"
	"github.com/dshills/extsim/internal/uri"
)

// Attach subscribes the store to the file events of its bus. NewStore calls
// it; after a bus reset severs all subscriptions it must be called again.
func (s *Store) Attach() {
	s.subs.Dispose()
	s.subs.Add(vfs.DidCreate(s.bus).Subscribe(func(e vfs.FileCreateEvent) {
		for _, u := range e.Files {
			s.reloadUnder(u)
		}
	}))
	s.subs.Add(vfs.DidChange(s.bus).Subscribe(func(e vfs.FileChangeEvent) {
		for _, u := range e.Files {
			s.reloadUnder(u)
		}
	}))
	s.subs.Add(vfs.DidDelete(s.bus).Subscribe(func(e vfs.FileDeleteEvent) {
		for _, u := range e.Files {
			for _, doc := range s.openUnder(u) {
				s.closeDocument(doc)
			}
		}
	}))
	s.subs.Add(vfs.DidRename(s.bus).Subscribe(func(e vfs.FileRenameEvent) {
		for _, p := range e.Files {
			s.move(p.OldURI, p.NewURI)
		}
	}))
}

// Detach drops the file event subscriptions.
func (s *Store) Detach() {
	s.subs.Dispose()
}

// openUnder returns the open, titled documents at or beneath u.
func (s *Store) openUnder(u uri.URI) []*Document {
	var out []*Document
	for _, doc := range s.Documents() {
		if !doc.IsUntitled() && u.Encloses(doc.URI()) {
			out = append(out, doc)
		}
	}
	return out
}

// reloadUnder re-reads every open document at or beneath u whose file
// content differs from the document.
func (s *Store) reloadUnder(u uri.URI) {
	for _, doc := range s.openUnder(u) {
		du := doc.URI()
		content, enc, err := s.read(du)
		if err != nil {
			log.Debugf("reload %s: %v", du, err)
			continue
		}
		before, after, changed := doc.replace(content, enc, s.defaultEOL)
		if changed {
			log.Debugf("reload %s (version %d)", du, doc.Version())
			doc.fireChange(before, after, ReasonReload)
		}
	}
}

// move re-keys the documents at or beneath oldURI to their place beneath
// newURI. Open documents are announced as closed under the old URI and
// opened under the new one; the instance stays the same.
func (s *Store) move(oldURI, newURI uri.URI) {
	type move struct {
		doc    *Document
		target uri.URI
		open   bool
	}

	var moves []move
	for _, doc := range s.AllDocuments() {
		du := doc.URI()
		rel, ok := oldURI.Rel(du)
		if !ok || du.IsUntitled() {
			continue
		}
		target := newURI
		if rel != "" {
			target = newURI.JoinPath(rel)
		}
		moves = append(moves, move{doc: doc, target: target, open: !doc.IsClosed()})
	}

	for _, m := range moves {
		if m.open {
			DidClose(s.bus).Fire(m.doc)
		}
	}

	var displaced []*Document
	s.mu.Lock()
	for _, m := range moves {
		delete(s.documents, m.doc.URI().Key())
	}
	for _, m := range moves {
		if prev, ok := s.documents[m.target.Key()]; ok {
			displaced = append(displaced, prev)
		}
		s.documents[m.target.Key()] = m.doc

		m.doc.mu.Lock()
		m.doc.uri = m.target
		m.doc.languageID = s.languageID(m.target)
		m.doc.mu.Unlock()
	}
	s.mu.Unlock()

	// A document displaced by an overwriting rename has lost its file.
	for _, doc := range displaced {
		s.closeDocument(doc)
	}

	for _, m := range moves {
		if m.open {
			DidOpen(s.bus).Fire(m.doc)
		}
	}
}
