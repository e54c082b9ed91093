// SPDX-License-Identifier: MPL-2.0

package datatypes_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/sclkit/sclkit/internal/testutil/scltest"
	"github.com/sclkit/sclkit/pkg/element"
	"github.com/sclkit/sclkit/pkg/engine"
	"github.com/sclkit/sclkit/pkg/scl"
	"github.com/sclkit/sclkit/pkg/scl/datatypes"
)

const templatesXML = `<SCL ` + scltest.AllXMLNS + `>
	<DataTypeTemplates dev:id="dtt">
		<LNodeType id="LN_XCBR" lnClass="XCBR">
			<Private type="vendor"/>
			<DO name="Pos" type="DO_DPC"/>
			<DO name="Loc" type="DO_SPS"/>
			<DO name="Blk" type="DO_MISSING"/>
			<DO name="Opt"/>
		</LNodeType>
		<LNodeType id="LN_XSWI" lnClass="XSWI">
			<DO name="Pos" type="DO_DPC"/>
		</LNodeType>
		<LNodeType id="LN_UNUSED" lnClass="GGIO">
			<DO name="Ind" type="DO_UNUSED"/>
		</LNodeType>
		<DOType id="DO_DPC" cdc="DPC">
			<DA name="stVal" fc="ST" bType="Enum" type="EN_DBPOS"/>
			<DA name="q" fc="ST" bType="Quality"/>
			<DA name="origin" fc="ST" bType="Struct" type="DA_ORIGIN"/>
			<SDO name="sub" type="DO_NESTED"/>
		</DOType>
		<DOType id="DO_SPS" cdc="SPS">
			<DA name="stVal" fc="ST" bType="BOOLEAN"/>
			<DA name="origin" fc="ST" bType="Struct" type="DA_ORIGIN"/>
		</DOType>
		<DOType id="DO_NESTED" cdc="DPC">
			<SDO name="back" type="DO_DPC"/>
		</DOType>
		<DOType id="DO_UNUSED" cdc="SPS"/>
		<DAType id="DA_ORIGIN">
			<BDA name="orCat" bType="Enum" type="EN_ORCAT"/>
			<BDA name="self" bType="Struct" type="DA_ORIGIN"/>
			<BDA name="pair" bType="Struct" type="DA_PAIR"/>
			<BDA name="gone" bType="Struct" type="DA_MISSING"/>
		</DAType>
		<DAType id="DA_PAIR">
			<BDA name="back" bType="Struct" type="DA_ORIGIN"/>
			<BDA name="orCat" bType="Enum" type="EN_ORCAT"/>
		</DAType>
		<EnumType id="EN_DBPOS">
			<EnumVal ord="0">intermediate</EnumVal>
			<EnumVal ord="1">off</EnumVal>
		</EnumType>
		<EnumType id="EN_ORCAT">
			<EnumVal ord="0">not-supported</EnumVal>
		</EnumType>
	</DataTypeTemplates>
</SCL>`

func ids(recs []element.TreeRecord) []string {
	out := make([]string, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.AttrValue(scl.AttrID))
	}
	return out
}

func TestResolveDataModel(t *testing.T) {
	t.Parallel()

	doc := scltest.FromXML(t, "", templatesXML)
	templates, err := doc.FromElement(engine.Selector{ID: "dtt"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		lnTypes   []string
		wantLN    []string
		wantDO    []string
		wantDA    []string
		wantEnums []string
	}{
		{
			name:      "shared DOType and cycles",
			lnTypes:   []string{"LN_XCBR", "LN_XSWI"},
			wantLN:    []string{"LN_XCBR", "LN_XSWI"},
			wantDO:    []string{"DO_DPC", "DO_NESTED", "DO_SPS"},
			wantDA:    []string{"DA_ORIGIN", "DA_PAIR"},
			wantEnums: []string{"EN_DBPOS", "EN_ORCAT"},
		},
		{
			name:      "repeated root type",
			lnTypes:   []string{"LN_XSWI", "LN_XSWI"},
			wantLN:    []string{"LN_XSWI"},
			wantDO:    []string{"DO_DPC", "DO_NESTED"},
			wantDA:    []string{"DA_ORIGIN", "DA_PAIR"},
			wantEnums: []string{"EN_DBPOS", "EN_ORCAT"},
		},
		{
			name:    "dangling root type",
			lnTypes: []string{"LN_NOPE", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			model, err := datatypes.ResolveDataModel(templates, tt.lnTypes)
			if err != nil {
				t.Fatalf("ResolveDataModel() error: %v", err)
			}
			checks := []struct {
				catalog string
				got     []string
				want    []string
			}{
				{scl.TagLNodeType, ids(model.LNodeTypes), tt.wantLN},
				{scl.TagDOType, ids(model.DOTypes), tt.wantDO},
				{scl.TagDAType, ids(model.DATypes), tt.wantDA},
				{scl.TagEnumType, ids(model.EnumTypes), tt.wantEnums},
			}
			for _, c := range checks {
				if len(c.got) != len(c.want) || (len(c.want) > 0 && !slices.Equal(c.got, c.want)) {
					t.Errorf("%s = %v, want %v", c.catalog, c.got, c.want)
				}
			}
			if model.Len() != len(model.All()) {
				t.Errorf("Len() = %d, All() has %d", model.Len(), len(model.All()))
			}
		})
	}
}

func TestResolveDataModel_LNodeTypeKeepsOnlyDO(t *testing.T) {
	t.Parallel()

	doc := scltest.FromXML(t, "", templatesXML)
	model, err := datatypes.ResolveDataModel(doc.FromRoot(), []string{"LN_XCBR"})
	if err != nil {
		t.Fatal(err)
	}
	lnType := model.LNodeTypes[0]
	if len(lnType.Tree) != 4 {
		t.Fatalf("LNodeType children = %d, want 4 DO", len(lnType.Tree))
	}
	for _, child := range lnType.Tree {
		if child.TagName != scl.TagDO {
			t.Errorf("unexpected %s in LNodeType", child.TagName)
		}
	}
	if enum := model.EnumTypes[0]; len(enum.Tree) != 2 || enum.Tree[1].Value != "off" {
		t.Errorf("EnumType should keep its values, got %+v", enum.Tree)
	}
}

func TestResolveDataModel_NoTemplates(t *testing.T) {
	t.Parallel()

	doc := scltest.NewDocument(t, "")
	_, err := datatypes.ResolveDataModel(doc.FromRoot(), []string{"LN"})
	if !errors.Is(err, engine.ErrElementNotFound) {
		t.Errorf("expected ErrElementNotFound, got %v", err)
	}
}

func TestLnTypes(t *testing.T) {
	t.Parallel()

	lnode := func(lnType string) element.TreeRecord {
		rec := element.Record{TagName: scl.TagLNode}
		if lnType != "" {
			rec.Attributes = []element.Attribute{{Name: scl.AttrLnType, Value: lnType}}
		}
		return element.TreeRecord{Record: rec}
	}
	tree := element.TreeRecord{
		Record: element.Record{TagName: scl.TagFunction},
		Tree: []element.TreeRecord{
			lnode("A"),
			{Record: element.Record{TagName: scl.TagSubFunction}, Tree: []element.TreeRecord{lnode("B"), lnode("A")}},
			lnode(""),
			{Record: element.Record{TagName: scl.TagLNodeType, Attributes: []element.Attribute{{Name: scl.AttrLnType, Value: "C"}}}},
		},
	}

	if got := datatypes.LnTypes(tree); !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("LnTypes() = %v, want [A B]", got)
	}
}
