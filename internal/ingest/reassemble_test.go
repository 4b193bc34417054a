package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedFragment struct {
	messageType int
	data        []byte
	isFinal     bool
}

type scriptedSource struct {
	fragments []scriptedFragment
	i         int
}

func (s *scriptedSource) NextFragment() (int, []byte, bool, error) {
	if s.i >= len(s.fragments) {
		return 0, nil, false, errors.New("exhausted")
	}
	f := s.fragments[s.i]
	s.i++
	return f.messageType, f.data, f.isFinal, nil
}

func TestReassemble_SingleFragment(t *testing.T) {
	src := &scriptedSource{fragments: []scriptedFragment{
		{messageType: 2, data: []byte("hello"), isFinal: true},
	}}
	mt, payload, err := Reassemble(src)
	require.NoError(t, err)
	assert.Equal(t, 2, mt)
	assert.Equal(t, []byte("hello"), payload)
}

func TestReassemble_MultipleFragments(t *testing.T) {
	src := &scriptedSource{fragments: []scriptedFragment{
		{messageType: 2, data: []byte("foo"), isFinal: false},
		{messageType: 2, data: []byte("bar"), isFinal: false},
		{messageType: 2, data: []byte("baz"), isFinal: true},
	}}
	mt, payload, err := Reassemble(src)
	require.NoError(t, err)
	assert.Equal(t, 2, mt)
	assert.Equal(t, []byte("foobarbaz"), payload)
}

func TestReassemble_SourceError(t *testing.T) {
	src := &scriptedSource{fragments: nil}
	_, _, err := Reassemble(src)
	assert.Error(t, err)
}
