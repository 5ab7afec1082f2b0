// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package session orchestrates load, refresh and save for one open
// schema file. All parsing and reconciliation is synchronous CPU work;
// the only suspension points are the FileIO calls at the boundary.
package session

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/erdpets/erdpets/diagram"
	"github.com/erdpets/erdpets/reconcile"
	"github.com/erdpets/erdpets/schema"
)

// FileIO is the host environment's file primitive. Both calls are
// opaque to the core; no partial-write semantics are exposed.
type FileIO interface {
	ReadFile(ctx context.Context) (string, error)
	WriteFile(ctx context.Context, text string) error
}

// State of an open file.
type State uint8

const (
	StateUnloaded State = iota
	StateLoaded
	StateDirty
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateDirty:
		return "dirty"
	case StateSaving:
		return "saving"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

var (
	// ErrBusy is returned when an operation arrives while a save is
	// in flight. Operations are rejected, never interleaved.
	ErrBusy = errors.New("session: save in flight")
	// ErrUnloaded is returned when an operation needs a loaded file.
	ErrUnloaded = errors.New("session: no file loaded")
)

type (
	// A Session owns the synchronization state of one open file.
	// Methods are safe for serialized use; concurrent callers are
	// rejected with ErrBusy while a save awaits its write.
	Session struct {
		io  FileIO
		gen reconcile.PositionGenerator
		log *zap.Logger

		state  State
		seq    uint64
		text   string // file text as last read or written
		schema *schema.Schema
		set    *diagram.Set
		live   map[string]map[string]diagram.Point // diagram → table → position
	}

	// LoadResult carries one load's outcome. Seq lets the caller
	// discard results that were superseded by a newer action.
	LoadResult struct {
		Seq         uint64
		Schema      *schema.Schema
		Set         *diagram.Set
		SchemaWarns []schema.Warning
	}

	// RefreshResult carries one refresh's outcome.
	RefreshResult struct {
		Seq         uint64
		Model       *reconcile.Model
		Set         *diagram.Set
		SchemaWarns []schema.Warning
		Warns       []reconcile.Warning
	}
)

// New returns an unloaded session over the given file.
func New(io FileIO, gen reconcile.PositionGenerator, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{io: io, gen: gen, log: log, live: make(map[string]map[string]diagram.Point)}
}

// State returns the current synchronization state.
func (s *Session) State() State { return s.state }

// Seq returns the sequence number of the newest operation.
func (s *Session) Seq() uint64 { return s.seq }

// Schema returns the last parsed schema.
func (s *Session) Schema() *schema.Schema { return s.schema }

// Diagrams lists the diagram names in declaration order.
func (s *Session) Diagrams() []string {
	if s.set == nil {
		return nil
	}
	return s.set.Names()
}

// Load reads and parses the file. A file without a layout block loads
// with an empty diagram set; that is a normal state for a new file.
func (s *Session) Load(ctx context.Context) (*LoadResult, error) {
	if s.state == StateSaving {
		return nil, ErrBusy
	}
	text, err := s.io.ReadFile(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: read: %w", err)
	}
	sc, warns, err := schema.Parse(text)
	if err != nil {
		return nil, err
	}
	set, err := diagram.Parse(text)
	if err != nil {
		return nil, err
	}
	if set == nil {
		set = &diagram.Set{}
	}
	s.seq++
	s.text, s.schema, s.set = text, sc, set
	s.live = make(map[string]map[string]diagram.Point)
	s.state = StateLoaded
	s.log.Info("file loaded",
		zap.Uint64("seq", s.seq),
		zap.Int("tables", len(sc.Tables)),
		zap.Int("diagrams", len(set.Diagrams)),
		zap.Int("warnings", len(warns)),
	)
	return &LoadResult{Seq: s.seq, Schema: sc, Set: set, SchemaWarns: warns}, nil
}

// Resolve builds the render model for the named diagram from the
// loaded state, overlaying any live position edits.
func (s *Session) Resolve(name string) (*reconcile.Model, []reconcile.Warning, error) {
	if s.state == StateUnloaded {
		return nil, nil, ErrUnloaded
	}
	m, warns, err := reconcile.Resolve(name, s.schema, s.set, s.gen)
	if err != nil {
		return nil, warns, err
	}
	for _, n := range m.Nodes {
		if p, ok := s.live[name][n.Name]; ok {
			n.X, n.Y = p.X, p.Y
		}
	}
	return m, warns, nil
}

// SetPosition records a drag-end for one table of one diagram and
// marks the session dirty.
func (s *Session) SetPosition(diagramName, table string, p diagram.Point) error {
	switch s.state {
	case StateUnloaded:
		return ErrUnloaded
	case StateSaving:
		return ErrBusy
	}
	if s.live[diagramName] == nil {
		s.live[diagramName] = make(map[string]diagram.Point)
	}
	s.live[diagramName][table] = p
	s.state = StateDirty
	return nil
}

// EnsureDiagram adds a diagram selecting every schema through
// wildcards when no diagram with the given name exists yet. This is
// how a freshly created file gets its first layout.
func (s *Session) EnsureDiagram(name string) error {
	switch s.state {
	case StateUnloaded:
		return ErrUnloaded
	case StateSaving:
		return ErrBusy
	}
	if _, ok := s.set.Diagram(name); ok {
		return nil
	}
	d, _ := reconcile.DefaultSet(name, s.schema).Diagram(name)
	s.set.Diagrams = append(s.set.Diagrams, d)
	s.state = StateDirty
	s.log.Info("diagram created", zap.String("diagram", name))
	return nil
}

// Refresh re-reads the file, reparses the schema and re-resolves the
// named diagram against the in-memory diagram set, so unsaved layout
// edits survive a schema change on disk.
func (s *Session) Refresh(ctx context.Context, name string) (*RefreshResult, error) {
	switch s.state {
	case StateUnloaded:
		return nil, ErrUnloaded
	case StateSaving:
		return nil, ErrBusy
	}
	text, err := s.io.ReadFile(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: read: %w", err)
	}
	sc, schemaWarns, err := schema.Parse(text)
	if err != nil {
		return nil, err
	}
	m, updated, warns, err := reconcile.Refresh(name, sc, s.set, s.gen)
	if err != nil {
		return nil, err
	}
	s.seq++
	if s.state == StateLoaded && !reflect.DeepEqual(s.set, updated) {
		s.state = StateDirty
	}
	s.text, s.schema, s.set = text, sc, updated
	s.log.Info("file refreshed",
		zap.Uint64("seq", s.seq),
		zap.String("diagram", name),
		zap.Int("nodes", len(m.Nodes)),
	)
	return &RefreshResult{Seq: s.seq, Model: m, Set: updated, SchemaWarns: schemaWarns, Warns: warns}, nil
}

// PrepareSave returns the full new file text: every diagram's entries
// placed and committed, the block re-serialized and spliced over the
// old one. The SQL text outside the block is passed through untouched.
func (s *Session) PrepareSave() (string, error) {
	if s.state == StateUnloaded {
		return "", ErrUnloaded
	}
	set, err := s.commitAll()
	if err != nil {
		return "", err
	}
	block, err := set.MarshalText()
	if err != nil {
		return "", err
	}
	return diagram.Splice(s.text, string(block)), nil
}

// Save writes the prepared text back through FileIO. On failure the
// session stays dirty so no edit is lost; on success it returns to the
// loaded state with the written text as its new baseline.
func (s *Session) Save(ctx context.Context) error {
	switch s.state {
	case StateUnloaded:
		return ErrUnloaded
	case StateSaving:
		return ErrBusy
	}
	set, err := s.commitAll()
	if err != nil {
		return err
	}
	block, err := set.MarshalText()
	if err != nil {
		return err
	}
	text := diagram.Splice(s.text, string(block))
	s.state = StateSaving
	if err := s.io.WriteFile(ctx, text); err != nil {
		s.state = StateDirty
		return fmt.Errorf("session: write: %w", err)
	}
	s.seq++
	s.text, s.set = text, set
	s.live = make(map[string]map[string]diagram.Point)
	s.state = StateLoaded
	s.log.Info("file saved", zap.Uint64("seq", s.seq), zap.Int("bytes", len(text)))
	return nil
}

// commitAll resolves every diagram and folds the outcome, plus live
// edits, back into a committed copy of the set. Resolving first is
// what guarantees the serializer's every-entry-has-coordinates
// precondition for all diagrams, not only the active one.
func (s *Session) commitAll() (*diagram.Set, error) {
	set := s.set
	for _, name := range s.set.Names() {
		m, _, err := reconcile.Resolve(name, s.schema, set, s.gen)
		if err != nil {
			return nil, err
		}
		pos := m.Positions()
		for table, p := range s.live[name] {
			if _, ok := m.Node(table); ok {
				pos[table] = p
			}
		}
		if set, err = reconcile.Commit(set, name, pos); err != nil {
			return nil, err
		}
	}
	return set, nil
}
