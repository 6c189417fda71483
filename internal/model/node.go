package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Hierarchy kinds mirrored from the upstream source
const (
	KindMenu    = "menu"
	KindFeature = "feature"
)

// Node types per hierarchy kind
const (
	NodeTypeGroup      = "group"
	NodeTypeModule     = "module"
	NodeTypeMenu       = "menu"
	NodeTypeFeature    = "feature"
	NodeTypeSubfeature = "subfeature"
)

// NodeID is the upstream-assigned identifier of a hierarchy node. It is never generated locally.
// Upstream systems send it either as a JSON string or as a JSON number.
type NodeID string

func (id NodeID) String() string {
	return string(id)
}

// UnmarshalJSON accepts "42", 42 and null.
func (id *NodeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = NodeID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("node id must be a string or a number: %w", err)
	}
	*id = NodeID(n.String())
	return nil
}

// Node is one mirrored menu or feature entry. Rows are keyed by (scope, kind, upstream id)
// and are only ever written by the hierarchy synchronizer.
type Node struct {
	ScopeCode   string         `gorm:"type:varchar(50);primaryKey" json:"scope_code"`
	Kind        string         `gorm:"type:varchar(20);primaryKey" json:"kind"`
	ID          NodeID         `gorm:"type:varchar(100);primaryKey" json:"id"`
	ParentID    *NodeID        `gorm:"type:varchar(100);index" json:"parent_id"`
	Level       int            `gorm:"type:int;not null;index" json:"level"`
	Type        string         `gorm:"type:varchar(20);not null" json:"type"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	OrderNumber int            `gorm:"type:int;not null" json:"order_number"`
	Route       string         `gorm:"type:varchar(255)" json:"route"`
	Path        string         `gorm:"type:varchar(255)" json:"path"`
	Icon        string         `gorm:"type:varchar(100)" json:"icon"`
	ProductCode string         `gorm:"type:varchar(50)" json:"product_code"` // As supplied upstream, may be empty
	IsActive    bool           `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Node) TableName() string {
	return "catalog_nodes"
}
