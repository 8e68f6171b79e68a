package colortable

import (
	"testing"

	"github.com/ironsheep/blob-tools-mcp/internal/segment"
)

func TestParseLabel(t *testing.T) {
	for i, name := range append([]string{"undefined"}, LabelNames()...) {
		l, err := ParseLabel(name)
		if err != nil {
			t.Fatalf("ParseLabel(%q) failed: %v", name, err)
		}
		if int(l) != i {
			t.Errorf("ParseLabel(%q) = %d, want %d", name, l, i)
		}
		if LabelName(l) != name {
			t.Errorf("LabelName(%d) = %q, want %q", l, LabelName(l), name)
		}
	}

	if l, err := ParseLabel("ORANGE"); err != nil || l != Orange {
		t.Errorf("ParseLabel is case sensitive: %v, %v", l, err)
	}
	if _, err := ParseLabel("purple"); err == nil {
		t.Error("ParseLabel should reject unknown names")
	}
}

func TestDisplayColor(t *testing.T) {
	tests := []struct {
		label segment.Label
		want  string
	}{
		{Undefined, "#000000"},
		{Orange, "#FF9B00"},
		{Pink, "#FF69B4"},
		{Green, "#008000"},
		{segment.Label(42), "#808080"},
	}
	for _, tt := range tests {
		if got := DisplayHex(tt.label); got != tt.want {
			t.Errorf("DisplayHex(%d) = %s, want %s", tt.label, got, tt.want)
		}
	}
	if LabelName(42) != "label-42" {
		t.Errorf("LabelName(42) = %q", LabelName(42))
	}
}
