package tarantool

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// SpaceRef names a space either by its numeric id or by its symbolic name.
// Numeric ids bypass the schema cache entirely; names are resolved through
// it at the request-surface boundary.
type SpaceRef struct {
	id   uint32
	name string
	byID bool
}

// SpaceID builds a SpaceRef that addresses a space by numeric id directly.
func SpaceID(id uint32) SpaceRef { return SpaceRef{id: id, byID: true} }

// SpaceName builds a SpaceRef that must be resolved through the schema
// cache before dispatch.
func SpaceName(name string) SpaceRef { return SpaceRef{name: name} }

func (r SpaceRef) String() string {
	if r.byID {
		return fmt.Sprintf("#%d", r.id)
	}
	return r.name
}

// IndexRef is SpaceRef's sibling for index identifiers: by numeric id, or
// by name relative to a space.
type IndexRef struct {
	id   uint32
	name string
	byID bool
}

// IndexID builds an IndexRef that addresses an index by numeric id.
func IndexID(id uint32) IndexRef { return IndexRef{id: id, byID: true} }

// IndexName builds an IndexRef that must be resolved through the schema
// cache before dispatch.
func IndexName(name string) IndexRef { return IndexRef{name: name} }

func (r IndexRef) String() string {
	if r.byID {
		return fmt.Sprintf("#%d", r.id)
	}
	return r.name
}

// Space is one schema entry: a space's numeric id and its index name→id
// mapping.
type Space struct {
	ID      uint32
	Indexes map[string]uint32
}

// Schema is the lazily populated space/index name→id cache. It is
// caller-mutable: callers may seed or edit it directly to avoid issuing
// EVAL calls. The cache has its own read-write mutex, so lookups made
// concurrently with a parseSchema refresh or a Put are safe.
type Schema struct {
	mu         sync.RWMutex
	byName     map[string]*Space
	byID       map[uint32]*Space
	spaceNames map[uint32]string
}

// NewSchema returns an empty schema cache. ResolveSpace/ResolveIndex on an
// empty cache fail with SchemaNotLoaded for name-based references; numeric
// references always succeed.
func NewSchema() *Schema {
	return &Schema{
		byName:     make(map[string]*Space),
		byID:       make(map[uint32]*Space),
		spaceNames: make(map[uint32]string),
	}
}

// Put inserts or replaces one space's entry. Callers use this to seed the
// cache without a round trip.
func (s *Schema) Put(name string, id uint32, indexes map[string]uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp := &Space{ID: id, Indexes: indexes}
	s.byName[name] = sp
	s.byID[id] = sp
	s.spaceNames[id] = name
}

// replace atomically swaps the whole cache, used by parseSchema.
func (s *Schema) replace(byName map[string]*Space, byID map[uint32]*Space, names map[uint32]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byName = byName
	s.byID = byID
	s.spaceNames = names
}

func (s *Schema) loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byName) > 0
}

// ResolveSpace turns a SpaceRef into a numeric space id, consulting the
// cache only for name-based references.
func (s *Schema) ResolveSpace(ref SpaceRef) (uint32, error) {
	if ref.byID {
		return ref.id, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.byName) == 0 {
		return 0, ClientError{Code: ErrSchemaNotLoaded, Msg: "schema cache is empty, space " + ref.name}
	}
	sp, ok := s.byName[ref.name]
	if !ok {
		return 0, ClientError{Code: ErrUnknownSpace, Msg: ref.name}
	}
	return sp.ID, nil
}

// ResolveIndex turns an IndexRef into a numeric index id relative to space.
// space must already have been resolved (its numeric id is used to look up
// the space's index table when idx is name-based and space was given by
// id).
func (s *Schema) ResolveIndex(space SpaceRef, idx IndexRef) (uint32, error) {
	if idx.byID {
		return idx.id, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.byName) == 0 {
		return 0, ClientError{Code: ErrSchemaNotLoaded, Msg: "schema cache is empty, index " + idx.name}
	}

	var sp *Space
	if space.byID {
		sp = s.byID[space.id]
	} else {
		sp = s.byName[space.name]
	}
	if sp == nil {
		return 0, ClientError{Code: ErrUnknownSpace, Msg: space.String()}
	}
	id, ok := sp.Indexes[idx.name]
	if !ok {
		return 0, ClientError{Code: ErrUnknownIndex, Msg: idx.name}
	}
	return id, nil
}

// parseSchema repopulates conn's schema cache via three EVAL categories:
// one to enumerate space names (`return box.space`), then per space one
// for its numeric id (`box.space.<name>.id`)
// and one for its index table (`box.space.<name>.index`). The new schema
// replaces the old one atomically, only once every space has been loaded
// successfully.
func parseSchema(ctx context.Context, conn *Connection) error {
	resp, err := conn.evalRaw(ctx, "return box.space", nil)
	if err != nil {
		return err
	}
	names, err := spaceNamesFromEval(resp)
	if err != nil {
		return err
	}

	byName := make(map[string]*Space, len(names))
	byID := make(map[uint32]*Space, len(names))
	spaceNames := make(map[uint32]string, len(names))

	for _, name := range names {
		idResp, err := conn.evalRaw(ctx, fmt.Sprintf("return box.space.%s.id", name), nil)
		if err != nil {
			return err
		}
		id, err := scalarUint32FromEval(idResp)
		if err != nil {
			return fmt.Errorf("schema: space %s: %w", name, err)
		}

		indexResp, err := conn.evalRaw(ctx, fmt.Sprintf("return box.space.%s.index", name), nil)
		if err != nil {
			return err
		}
		indexes, err := indexesFromEval(indexResp)
		if err != nil {
			return fmt.Errorf("schema: space %s: %w", name, err)
		}

		sp := &Space{ID: id, Indexes: indexes}
		byName[name] = sp
		byID[id] = sp
		spaceNames[id] = name
	}

	conn.schema.replace(byName, byID, spaceNames)
	return nil
}

// spaceNamesFromEval extracts the string-keyed space names from the
// decoded `box.space` table. box.space also carries numeric keys aliasing
// the same space objects; those are skipped.
func spaceNamesFromEval(resp *Response) ([]string, error) {
	table, err := firstMapResult(resp)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(table))
	for k := range table {
		if name, ok := k.(string); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// indexesFromEval extracts the string-keyed index name→id mapping from a
// decoded `box.space.<name>.index` table, which (like box.space itself)
// carries both numeric and name keys over the same index objects.
func indexesFromEval(resp *Response) (map[string]uint32, error) {
	table, err := firstMapResult(resp)
	if err != nil {
		return nil, err
	}
	indexes := make(map[string]uint32, len(table))
	for k, v := range table {
		name, ok := k.(string)
		if !ok {
			continue
		}
		entry, ok := v.(map[interface{}]interface{})
		if !ok {
			continue
		}
		if idVal, ok := bodyLookupAny(entry, "id"); ok {
			id, ok := toUint64(idVal)
			if !ok {
				return nil, fmt.Errorf("index %s: id is not numeric", name)
			}
			indexes[name] = uint32(id)
		}
	}
	return indexes, nil
}

func scalarUint32FromEval(resp *Response) (uint32, error) {
	if len(resp.Data) == 0 {
		return 0, fmt.Errorf("eval returned no data")
	}
	v, ok := toUint64(resp.Data[0])
	if !ok {
		return 0, fmt.Errorf("eval result is not numeric")
	}
	return uint32(v), nil
}

func firstMapResult(resp *Response) (map[interface{}]interface{}, error) {
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("eval returned no data")
	}
	table, ok := resp.Data[0].(map[interface{}]interface{})
	if !ok {
		return nil, fmt.Errorf("eval result is not a table")
	}
	return table, nil
}

// bodyLookupAny fetches a map entry by string key.
func bodyLookupAny(m map[interface{}]interface{}, key string) (interface{}, bool) {
	for k, v := range m {
		if s, ok := k.(string); ok && s == key {
			return v, true
		}
	}
	return nil, false
}
