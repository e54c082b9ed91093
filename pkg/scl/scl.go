// SPDX-License-Identifier: MPL-2.0

package scl

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/sclkit/sclkit/pkg/dialect"
	"github.com/sclkit/sclkit/pkg/element"
	"github.com/sclkit/sclkit/pkg/idgen"
)

// Element tags the SCL algorithms navigate by.
const (
	TagSCL                  = "SCL"
	TagHeader               = "Header"
	TagHistory              = "History"
	TagHitem                = "Hitem"
	TagSubstation           = "Substation"
	TagVoltageLevel         = "VoltageLevel"
	TagBay                  = "Bay"
	TagFunction             = "Function"
	TagSubFunction          = "SubFunction"
	TagLNode                = "LNode"
	TagPrivate              = "Private"
	TagDataTypeTemplates    = "DataTypeTemplates"
	TagLNodeType            = "LNodeType"
	TagDO                   = "DO"
	TagSDO                  = "SDO"
	TagDOType               = "DOType"
	TagDA                   = "DA"
	TagDAType               = "DAType"
	TagBDA                  = "BDA"
	TagEnumType             = "EnumType"
	TagLNodeInputs          = "LNodeInputs"
	TagLNodeOutputs         = "LNodeOutputs"
	TagDOS                  = "DOS"
	TagFunctionSclRef       = "FunctionSclRef"
	TagVariable             = "Variable"
	TagGeneralEquipment     = "GeneralEquipment"
	TagConductingEquipment  = "ConductingEquipment"
	TagProcessResources     = "ProcessResources"
	TagPowerSystemRelations = "PowerSystemRelations"
	TagLabels               = "Labels"
	TagBehaviorDescription  = "BehaviorDescription"
)

// Attribute names with algorithmic meaning.
const (
	AttrID     = "id"
	AttrName   = "name"
	AttrType   = "type"
	AttrBType  = "bType"
	AttrLnType = "lnType"
	AttrUUID   = "uuid"

	// BTypeEnum is the DA/BDA bType value whose type refers to an EnumType.
	BTypeEnum = "Enum"
)

//go:embed scl_2019c1.cue
var definition2019C1 []byte

var (
	// DefaultNamespace is the SCL namespace.
	DefaultNamespace = element.Namespace{URI: "http://www.iec.ch/61850/2003/SCL", Prefix: ""}
	// Namespace6100 is the IEC 61850-6-100 function modelling namespace.
	Namespace6100 = element.Namespace{URI: "http://www.iec.ch/61850/2019/SCL/6-100", Prefix: "eIEC61850-6-100"}

	defaultDialect = sync.OnceValues(func() (*dialect.Config, error) {
		return NewDialect(idgen.UUIDv4())
	})
)

// Dialect returns the shared SCL 2019C1 dialect with the standard hooks
// installed and random v4 UUIDs.
func Dialect() (*dialect.Config, error) {
	return defaultDialect()
}

// NewDialect loads the SCL 2019C1 definition and installs the standard hooks,
// drawing uuid attribute values from uuids.
func NewDialect(uuids idgen.Generator) (*dialect.Config, error) {
	cfg, err := dialect.Load(definition2019C1, "scl_2019c1.cue", dialect.Hooks{})
	if err != nil {
		return nil, fmt.Errorf("scl 2019C1: %w", err)
	}
	return cfg.WithHooks(NewHooks(cfg, uuids)), nil
}
