package tarantool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveSpaceByIDAlwaysSucceeds(t *testing.T) {
	s := NewSchema()
	id, err := s.ResolveSpace(SpaceID(512))
	require.NoError(t, err)
	require.EqualValues(t, 512, id)
}

func TestResolveSpaceByNameFailsWhenSchemaEmpty(t *testing.T) {
	s := NewSchema()
	_, err := s.ResolveSpace(SpaceName("users"))
	require.Error(t, err)
	cerr, ok := err.(ClientError)
	require.True(t, ok)
	require.Equal(t, ErrSchemaNotLoaded, cerr.Code)
}

func TestResolveSpaceByNameUnknownAfterSeed(t *testing.T) {
	s := NewSchema()
	s.Put("users", 512, map[string]uint32{"primary": 0})

	id, err := s.ResolveSpace(SpaceName("users"))
	require.NoError(t, err)
	require.EqualValues(t, 512, id)

	_, err = s.ResolveSpace(SpaceName("bogus"))
	require.Error(t, err)
	cerr, ok := err.(ClientError)
	require.True(t, ok)
	require.Equal(t, ErrUnknownSpace, cerr.Code)
}

func TestResolveIndexByID(t *testing.T) {
	s := NewSchema()
	id, err := s.ResolveIndex(SpaceID(512), IndexID(3))
	require.NoError(t, err)
	require.EqualValues(t, 3, id)
}

func TestResolveIndexByNameWithSpaceByID(t *testing.T) {
	s := NewSchema()
	s.Put("users", 512, map[string]uint32{"primary": 0, "by_email": 1})

	id, err := s.ResolveIndex(SpaceID(512), IndexName("by_email"))
	require.NoError(t, err)
	require.EqualValues(t, 1, id)
}

func TestResolveIndexByNameWithSpaceByName(t *testing.T) {
	s := NewSchema()
	s.Put("users", 512, map[string]uint32{"primary": 0, "by_email": 1})

	id, err := s.ResolveIndex(SpaceName("users"), IndexName("by_email"))
	require.NoError(t, err)
	require.EqualValues(t, 1, id)
}

func TestResolveIndexUnknownName(t *testing.T) {
	s := NewSchema()
	s.Put("users", 512, map[string]uint32{"primary": 0})

	_, err := s.ResolveIndex(SpaceName("users"), IndexName("bogus"))
	require.Error(t, err)
	cerr, ok := err.(ClientError)
	require.True(t, ok)
	require.Equal(t, ErrUnknownIndex, cerr.Code)
}

func TestResolveIndexUnknownSpace(t *testing.T) {
	s := NewSchema()
	s.Put("users", 512, map[string]uint32{"primary": 0})

	_, err := s.ResolveIndex(SpaceName("bogus"), IndexName("primary"))
	require.Error(t, err)
	cerr, ok := err.(ClientError)
	require.True(t, ok)
	require.Equal(t, ErrUnknownSpace, cerr.Code)
}

func TestResolveIndexSchemaNotLoaded(t *testing.T) {
	s := NewSchema()
	_, err := s.ResolveIndex(SpaceName("users"), IndexName("primary"))
	require.Error(t, err)
	cerr, ok := err.(ClientError)
	require.True(t, ok)
	require.Equal(t, ErrSchemaNotLoaded, cerr.Code)
}

func TestSpaceNamesFromEvalSkipsNumericKeys(t *testing.T) {
	resp := &Response{
		Data: []interface{}{
			map[interface{}]interface{}{
				"users":      map[interface{}]interface{}{},
				uint64(512):  map[interface{}]interface{}{},
				"orders":     map[interface{}]interface{}{},
			},
		},
	}

	names, err := spaceNamesFromEval(resp)
	require.NoError(t, err)
	require.Equal(t, []string{"orders", "users"}, names)
}

func TestIndexesFromEvalReadsStringKeyedEntries(t *testing.T) {
	resp := &Response{
		Data: []interface{}{
			map[interface{}]interface{}{
				"primary":  map[interface{}]interface{}{"id": uint64(0)},
				uint64(0):  map[interface{}]interface{}{"id": uint64(0)},
				"by_email": map[interface{}]interface{}{"id": uint64(1)},
			},
		},
	}

	indexes, err := indexesFromEval(resp)
	require.NoError(t, err)
	require.Equal(t, map[string]uint32{"primary": 0, "by_email": 1}, indexes)
}

func TestScalarUint32FromEval(t *testing.T) {
	resp := &Response{Data: []interface{}{uint64(512)}}
	id, err := scalarUint32FromEval(resp)
	require.NoError(t, err)
	require.EqualValues(t, 512, id)
}
