package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeIDUnmarshal(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want NodeID
	}{
		{name: "string", raw: `"menu-7"`, want: "menu-7"},
		{name: "integer", raw: `42`, want: "42"},
		{name: "null", raw: `null`, want: ""},
		{name: "empty string", raw: `""`, want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var id NodeID
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &id))
			assert.Equal(t, tc.want, id)
		})
	}
}

func TestNodeIDUnmarshalRejectsObjects(t *testing.T) {
	var id NodeID
	assert.Error(t, json.Unmarshal([]byte(`{"id":1}`), &id))
}

func TestNodeIDPointerInStruct(t *testing.T) {
	var payload struct {
		ID       NodeID  `json:"id"`
		ParentID *NodeID `json:"parent_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"parent_id":2}`), &payload))
	require.NotNil(t, payload.ParentID)
	assert.Equal(t, NodeID("3"), payload.ID)
	assert.Equal(t, NodeID("2"), *payload.ParentID)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","parent_id":null}`), &payload))
	assert.Nil(t, payload.ParentID)
}

func TestValidItemType(t *testing.T) {
	assert.True(t, ValidItemType("feature"))
	assert.True(t, ValidItemType("menu"))
	assert.False(t, ValidItemType("Feature"))
	assert.False(t, ValidItemType("menus"))
	assert.False(t, ValidItemType(""))
}
